package ports

import (
	"context"
	"io"

	"github.com/welzyne/courier-system/internal/core/domain"
)

// Photo is an uploaded profile picture.
type Photo struct {
	Filename string
	Content  io.Reader
}

// UpdateProfileInput carries optional profile changes. Nil fields are kept.
type UpdateProfileInput struct {
	Username *string
	Email    *string
	Phone    *string
	Bio      *string
	Address  *string
	Photo    *Photo
	// BaseURL is the public origin used to build the photo URL.
	BaseURL string
}

type UserService interface {
	GetProfile(ctx context.Context, id string) (*domain.User, error)
	UpdateProfile(ctx context.Context, id string, in UpdateProfileInput) (*domain.User, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
	UpdateStatus(ctx context.Context, id, status string) (*domain.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// PhotoStore persists profile photos and returns their public path segment.
type PhotoStore interface {
	Save(ctx context.Context, photo Photo) (string, error)
	Remove(ctx context.Context, url string) error
}
