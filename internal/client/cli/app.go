package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/config"
	"github.com/dmitrijs2005/gophauth/internal/client/models"
	"github.com/dmitrijs2005/gophauth/internal/common"
)

type App struct {
	config   *config.Config
	client   client.Client
	userName string
	reader   *bufio.Reader
	out      io.Writer
}

func NewApp(c *config.Config) (*App, error) {
	apiClient, err := client.NewHTTPClient(c.ServerURL, c.RequestTimeout)
	if err != nil {
		return nil, err
	}
	return newApp(c, apiClient, os.Stdin, os.Stdout), nil
}

func newApp(c *config.Config, apiClient client.Client, in io.Reader, out io.Writer) *App {
	return &App{config: c, client: apiClient, reader: bufio.NewReader(in), out: out}
}

// Run prints a greeting, pings the server and starts the REPL.
func (a *App) Run(ctx context.Context) {
	fmt.Fprintf(a.out, "Auth CLI for %s (type 'help' for commands)\n", a.config.ServerURL)
	_ = a.Ping(ctx)
	runREPL(ctx, a, a.status, a.reader, a.out)
}

func (a *App) isLoggedIn() bool {
	return a.client.LoggedIn()
}

func (a *App) status() string {
	if a.isLoggedIn() && a.userName != "" {
		return fmt.Sprintf(" (%s)", a.userName)
	}
	return ""
}

func (a *App) fail(err error) error {
	switch {
	case errors.Is(err, client.ErrUnavailable):
		fmt.Fprintln(a.out, "Server unavailable:", err)
	case errors.Is(err, client.ErrUnauthorized) && !a.isLoggedIn():
		a.userName = ""
		fmt.Fprintln(a.out, "Not logged in:", err)
	default:
		fmt.Fprintln(a.out, "error:", err)
	}
	return err
}

func (a *App) prompt(label string) (string, error) {
	return GetSimpleText(a.reader, label, a.out)
}

func (a *App) Ping(ctx context.Context) error {
	if err := a.client.Ping(ctx); err != nil {
		return a.fail(err)
	}
	fmt.Fprintln(a.out, "Server is up")
	return nil
}

func (a *App) Register(ctx context.Context) error {
	var r models.Registration
	fields := []struct {
		label string
		dst   *string
	}{
		{"-Enter user name", &r.UserName},
		{"-Enter email", &r.Email},
		{"-Enter first name", &r.FullName.FirstName},
		{"-Enter last name", &r.FullName.LastName},
		{"-Enter role (user or seller, empty for user)", &r.Role},
	}
	for _, f := range fields {
		v, err := a.prompt(f.label)
		if err != nil {
			return a.fail(err)
		}
		*f.dst = v
	}

	password, err := GetPassword(a.reader, a.out)
	if err != nil {
		return a.fail(err)
	}
	defer common.WipeByteArray(password)
	r.Password = string(password)

	u, err := a.client.Register(ctx, r)
	if err != nil {
		return a.fail(err)
	}

	a.userName = u.UserName
	fmt.Fprintf(a.out, "Registered %s (%s)\n", u.UserName, u.Role)
	return nil
}

func (a *App) Login(ctx context.Context) error {
	identifier, err := a.prompt("-Enter user name or email")
	if err != nil {
		return a.fail(err)
	}

	password, err := GetPassword(a.reader, a.out)
	if err != nil {
		return a.fail(err)
	}
	defer common.WipeByteArray(password)

	u, err := a.client.Login(ctx, identifier, string(password))
	if err != nil {
		return a.fail(err)
	}

	a.userName = u.UserName
	fmt.Fprintln(a.out, "Login successful")
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	err := a.client.Logout(ctx)
	a.userName = ""
	if err != nil {
		return a.fail(err)
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) Me(ctx context.Context) error {
	u, err := a.client.Me(ctx)
	if err != nil {
		return a.fail(err)
	}

	a.userName = u.UserName
	fmt.Fprintf(a.out, "ID:       %s\n", u.ID)
	fmt.Fprintf(a.out, "Username: %s\n", u.UserName)
	fmt.Fprintf(a.out, "Email:    %s\n", u.Email)
	fmt.Fprintf(a.out, "Name:     %s %s\n", u.FullName.FirstName, u.FullName.LastName)
	fmt.Fprintf(a.out, "Role:     %s\n", u.Role)
	a.printAddresses(u.Addresses)
	return nil
}

func (a *App) Addresses(ctx context.Context) error {
	list, err := a.client.ListAddresses(ctx)
	if err != nil {
		return a.fail(err)
	}
	a.printAddresses(list)
	return nil
}

func (a *App) AddAddress(ctx context.Context) error {
	var addr models.Address
	fields := []struct {
		label string
		dst   *string
	}{
		{"-Enter street", &addr.Street},
		{"-Enter city", &addr.City},
		{"-Enter state", &addr.State},
		{"-Enter zip code", &addr.ZipCode},
		{"-Enter country", &addr.Country},
	}
	for _, f := range fields {
		v, err := a.prompt(f.label)
		if err != nil {
			return a.fail(err)
		}
		*f.dst = v
	}

	isDefault, err := GetYesNo(a.reader, "-Make default?", a.out)
	if err != nil {
		return a.fail(err)
	}
	addr.IsDefault = isDefault

	list, err := a.client.AddAddress(ctx, addr)
	if err != nil {
		return a.fail(err)
	}
	a.printAddresses(list)
	return nil
}

func (a *App) DeleteAddress(ctx context.Context, id string) error {
	list, err := a.client.DeleteAddress(ctx, id)
	if err != nil {
		return a.fail(err)
	}
	a.printAddresses(list)
	return nil
}

func (a *App) printAddresses(list []models.Address) {
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No addresses")
		return
	}
	for _, addr := range list {
		mark := " "
		if addr.IsDefault {
			mark = "*"
		}
		line := strings.Join([]string{addr.Street, addr.City, addr.State, addr.ZipCode, addr.Country}, ", ")
		fmt.Fprintf(a.out, "%s %s  %s\n", mark, addr.ID, line)
	}
}
