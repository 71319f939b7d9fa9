package users

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Repository persists identity records. Reads never populate PasswordHash
// except GetUserByLogin, which exists to verify credentials.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	ExistsByUserNameOrEmail(ctx context.Context, userName, email string) (bool, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByIDForUpdate(ctx context.Context, id string) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	UpdateAddresses(ctx context.Context, id string, addresses []models.Address) (*models.User, error)
	Delete(ctx context.Context, id string) error
}
