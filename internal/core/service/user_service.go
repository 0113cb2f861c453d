package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/welzyne/courier-system/internal/core/domain"
	"github.com/welzyne/courier-system/internal/core/ports"
)

// UserService manages profiles and admin account moderation.
type UserService struct {
	repo        ports.UserRepository
	photos      ports.PhotoStore
	broadcaster ports.Broadcaster
	logger      zerolog.Logger
	now         func() time.Time
}

func NewUserService(
	repo ports.UserRepository,
	photos ports.PhotoStore,
	broadcaster ports.Broadcaster,
	logger zerolog.Logger,
) *UserService {
	return &UserService{
		repo:        repo,
		photos:      photos,
		broadcaster: broadcaster,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *UserService) GetProfile(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.FindByID(ctx, id)
}

// UpdateProfile applies the non-nil fields of in. A new photo replaces the
// previous file, which is removed best-effort.
func (s *UserService) UpdateProfile(ctx context.Context, id string, in ports.UpdateProfileInput) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if email == "" {
			return nil, &domain.ValidationError{Fields: []string{"email"}}
		}
		if email != user.Email {
			existing, err := s.repo.FindByEmail(ctx, email)
			if err == nil && existing.ID != user.ID {
				return nil, domain.ErrDuplicateEmail
			}
			if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
				return nil, err
			}
		}
		user.Email = email
	}
	if in.Username != nil {
		if strings.TrimSpace(*in.Username) == "" {
			return nil, &domain.ValidationError{Fields: []string{"username"}}
		}
		user.Username = strings.TrimSpace(*in.Username)
	}
	if in.Phone != nil {
		user.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Bio != nil {
		user.Bio = *in.Bio
	}
	if in.Address != nil {
		user.Address = *in.Address
	}

	var oldPhoto, newPhoto string
	if in.Photo != nil && s.photos != nil {
		path, err := s.photos.Save(ctx, *in.Photo)
		if err != nil {
			return nil, err
		}
		oldPhoto = user.PhotoURL
		user.PhotoURL = strings.TrimRight(in.BaseURL, "/") + path
		newPhoto = user.PhotoURL
	}

	user.UpdatedAt = s.now().UTC()
	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		if newPhoto != "" {
			if rerr := s.photos.Remove(ctx, newPhoto); rerr != nil {
				s.logger.Warn().Err(rerr).Str("user_id", id).Msg("failed to remove unused profile photo")
			}
		}
		return nil, err
	}

	if oldPhoto != "" {
		if err := s.photos.Remove(ctx, oldPhoto); err != nil {
			s.logger.Warn().Err(err).Str("user_id", id).Msg("failed to remove old profile photo")
		}
	}

	s.logger.Info().Str("user_id", id).Msg("profile updated")
	s.broadcaster.Publish(ctx, domain.UserUpdated(updated))
	return updated, nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.repo.List(ctx)
}

func (s *UserService) UpdateStatus(ctx context.Context, id, status string) (*domain.User, error) {
	if !domain.ValidUserStatus(status) {
		return nil, domain.NewValidationError("invalid status value: %q", status)
	}
	user, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", id).Str("status", status).Msg("user status updated")
	s.broadcaster.Publish(ctx, domain.UserUpdated(user))
	return user, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", id).Msg("user deleted")
	s.broadcaster.Publish(ctx, domain.UserDeleted(id))
	return nil
}
