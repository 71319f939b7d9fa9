package cli

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/config"
	"github.com/dmitrijs2005/gophauth/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	loggedIn bool
	err      error

	registered models.Registration
	identifier string
	password   string
	added      models.Address
	deleted    string
	addresses  []models.Address
}

func (f *fakeClient) LoggedIn() bool { return f.loggedIn }

func (f *fakeClient) Ping(ctx context.Context) error { return f.err }

func (f *fakeClient) Register(ctx context.Context, r models.Registration) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.registered = r
	f.loggedIn = true
	role := r.Role
	if role == "" {
		role = "user"
	}
	return &models.User{UserName: r.UserName, Role: role}, nil
}

func (f *fakeClient) Login(ctx context.Context, identifier, password string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.identifier, f.password = identifier, password
	f.loggedIn = true
	return &models.User{UserName: "john_doe"}, nil
}

func (f *fakeClient) Logout(ctx context.Context) error {
	f.loggedIn = false
	return f.err
}

func (f *fakeClient) Me(ctx context.Context) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.User{
		ID: "u1", UserName: "john_doe", Email: "john@example.com",
		FullName: models.FullName{FirstName: "John", LastName: "Doe"}, Role: "seller",
		Addresses: f.addresses,
	}, nil
}

func (f *fakeClient) ListAddresses(ctx context.Context) ([]models.Address, error) {
	return f.addresses, f.err
}

func (f *fakeClient) AddAddress(ctx context.Context, a models.Address) ([]models.Address, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.added = a
	a.ID = "a1"
	f.addresses = append(f.addresses, a)
	return f.addresses, nil
}

func (f *fakeClient) DeleteAddress(ctx context.Context, id string) ([]models.Address, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.deleted = id
	return nil, nil
}

func newTestApp(t *testing.T, fc *fakeClient, input string) (*App, *bytes.Buffer) {
	t.Helper()
	stubTerminal(t, false, nil, nil)
	var out bytes.Buffer
	cfg := &config.Config{}
	cfg.LoadDefaults()
	return newApp(cfg, fc, strings.NewReader(input), &out), &out
}

func TestNewApp(t *testing.T) {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	app, err := NewApp(cfg)
	require.NoError(t, err)
	assert.False(t, app.isLoggedIn())

	cfg.ServerURL = "gopher://nope"
	_, err = NewApp(cfg)
	require.Error(t, err)
}

func TestApp_Register(t *testing.T) {
	fc := &fakeClient{}
	app, out := newTestApp(t, fc, "john_doe\njohn@example.com\nJohn\nDoe\n\nStrongP@ssw0rd\n")

	require.NoError(t, app.Register(context.Background()))

	assert.Equal(t, models.Registration{
		UserName: "john_doe",
		Email:    "john@example.com",
		Password: "StrongP@ssw0rd",
		FullName: models.FullName{FirstName: "John", LastName: "Doe"},
	}, fc.registered)
	assert.Contains(t, out.String(), "Registered john_doe (user)")
	assert.Equal(t, " (john_doe)", app.status())
}

func TestApp_LoginAndLogout(t *testing.T) {
	fc := &fakeClient{}
	app, out := newTestApp(t, fc, "john@example.com\nStrongP@ssw0rd\n")
	ctx := context.Background()

	require.NoError(t, app.Login(ctx))
	assert.Equal(t, "john@example.com", fc.identifier)
	assert.Equal(t, "StrongP@ssw0rd", fc.password)
	assert.Equal(t, " (john_doe)", app.status())

	require.NoError(t, app.Logout(ctx))
	assert.Equal(t, "", app.status())
	assert.Contains(t, out.String(), "Logged out")
}

func TestApp_LoginFailure(t *testing.T) {
	fc := &fakeClient{err: &client.APIError{Status: 401, Message: "Invalid credentials"}}
	app, out := newTestApp(t, fc, "john_doe\nwrong\n")

	err := app.Login(context.Background())
	require.Error(t, err)
	assert.Contains(t, out.String(), "Invalid credentials")
	assert.False(t, app.isLoggedIn())
}

func TestApp_Unavailable(t *testing.T) {
	fc := &fakeClient{err: fmt.Errorf("%w: dial tcp", client.ErrUnavailable)}
	app, out := newTestApp(t, fc, "")

	require.ErrorIs(t, app.Ping(context.Background()), client.ErrUnavailable)
	assert.Contains(t, out.String(), "Server unavailable")
}

func TestApp_MeAndAddresses(t *testing.T) {
	fc := &fakeClient{loggedIn: true}
	app, out := newTestApp(t, fc, "1 Main St\nSpringfield\nIL\n62701\nUS\ny\n")
	ctx := context.Background()

	require.NoError(t, app.AddAddress(ctx))
	assert.Equal(t, models.Address{
		Street: "1 Main St", City: "Springfield", State: "IL", ZipCode: "62701", Country: "US", IsDefault: true,
	}, fc.added)
	assert.Contains(t, out.String(), "* a1  1 Main St, Springfield, IL, 62701, US")

	out.Reset()
	require.NoError(t, app.Me(ctx))
	assert.Contains(t, out.String(), "Email:    john@example.com")
	assert.Contains(t, out.String(), "Role:     seller")
	assert.Equal(t, " (john_doe)", app.status())

	out.Reset()
	require.NoError(t, app.Addresses(ctx))
	assert.Contains(t, out.String(), "a1")

	out.Reset()
	require.NoError(t, app.DeleteAddress(ctx, "a1"))
	assert.Equal(t, "a1", fc.deleted)
	assert.Contains(t, out.String(), "No addresses")
}

func TestApp_RunSession(t *testing.T) {
	fc := &fakeClient{}
	app, out := newTestApp(t, fc, "login\njohn_doe\nStrongP@ssw0rd\nme\nexit\n")

	app.Run(context.Background())

	text := out.String()
	assert.Contains(t, text, "Auth CLI for http://127.0.0.1:3000")
	assert.Contains(t, text, "Server is up")
	assert.Contains(t, text, "Login successful")
	assert.Contains(t, text, "auth (john_doe)> ")
	assert.Contains(t, text, "Bye!")
}
