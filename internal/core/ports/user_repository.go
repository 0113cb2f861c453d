package ports

import (
	"context"

	"github.com/welzyne/courier-system/internal/core/domain"
)

// UserRepository defines persistence operations for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// FindByIdentifier matches identifier against email or username.
	FindByIdentifier(ctx context.Context, identifier string) (*domain.User, error)
	FindAdmin(ctx context.Context) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Update(ctx context.Context, user *domain.User) (*domain.User, error)
	UpdateStatus(ctx context.Context, id, status string) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}
