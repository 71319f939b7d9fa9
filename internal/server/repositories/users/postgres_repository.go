package users

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

const userColumns = `id, username, email, first_name, last_name, role, addresses, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner, withPassword bool) (*models.User, error) {
	var (
		user      models.User
		role      string
		addresses []byte
	)

	dest := []any{
		&user.ID, &user.UserName, &user.Email,
		&user.FullName.FirstName, &user.FullName.LastName,
		&role, &addresses, &user.CreatedAt, &user.UpdatedAt,
	}
	if withPassword {
		dest = append(dest, &user.PasswordHash)
	}

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	user.Role = models.Role(role)
	user.Addresses = []models.Address{}
	if len(addresses) > 0 {
		if err := json.Unmarshal(addresses, &user.Addresses); err != nil {
			return nil, fmt.Errorf("decode addresses: %w", err)
		}
	}

	return &user, nil
}

func encodeAddresses(addresses []models.Address) ([]byte, error) {
	if addresses == nil {
		addresses = []models.Address{}
	}
	return json.Marshal(addresses)
}

// mapError translates driver errors into common sentinels.
func mapError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrorNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return fmt.Errorf("%w: %s", common.ErrorConflict, pgErr.ConstraintName)
	}

	return fmt.Errorf("db error: %w", err)
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	addresses, err := encodeAddresses(user.Addresses)
	if err != nil {
		return nil, fmt.Errorf("encode addresses: %w", err)
	}

	query :=
		`INSERT INTO users (id, username, email, password_hash, first_name, last_name, role, addresses)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at, updated_at
		 `

	err = r.db.QueryRowContext(ctx, query,
		user.ID, user.UserName, user.Email, user.PasswordHash,
		user.FullName.FirstName, user.FullName.LastName,
		string(user.Role), addresses).Scan(&user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		return nil, mapError(err)
	}

	if user.Addresses == nil {
		user.Addresses = []models.Address{}
	}

	return user, nil
}

func (r *PostgresRepository) ExistsByUserNameOrEmail(ctx context.Context, userName, email string) (bool, error) {
	query :=
		`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 OR email = $2)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userName, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	return exists, nil
}

func (r *PostgresRepository) getByID(ctx context.Context, id string, forUpdate bool) (*models.User, error) {
	// ids are uuids; anything else cannot name a stored user
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id), false)
	if err != nil {
		return nil, mapError(err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getByID(ctx, id, false)
}

// GetByIDForUpdate locks the row until the surrounding transaction ends.
func (r *PostgresRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.User, error) {
	return r.getByID(ctx, id, true)
}

// GetUserByLogin looks the user up by username or email and includes the
// password hash.
func (r *PostgresRepository) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	query :=
		`SELECT ` + userColumns + `, password_hash FROM users
		 WHERE username = $1 OR email = $1
		 LIMIT 1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, login), true)
	if err != nil {
		return nil, mapError(err)
	}

	return user, nil
}

func (r *PostgresRepository) UpdateAddresses(ctx context.Context, id string, addresses []models.Address) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}

	payload, err := encodeAddresses(addresses)
	if err != nil {
		return nil, fmt.Errorf("encode addresses: %w", err)
	}

	query :=
		`UPDATE users SET addresses = $2, updated_at = now()
		 WHERE id = $1
		 RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id, payload), false)
	if err != nil {
		return nil, mapError(err)
	}

	return user, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return common.ErrorNotFound
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}

	return nil
}
