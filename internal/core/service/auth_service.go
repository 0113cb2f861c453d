package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/welzyne/courier-system/internal/core/domain"
	"github.com/welzyne/courier-system/internal/core/ports"
)

// Claims is the signed session payload.
type Claims struct {
	UserID string `json:"id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// AdminAccount describes the singleton bootstrap admin.
type AdminAccount struct {
	Username string
	Email    string
	Phone    string
	Password string
}

// AuthService implements registration, login and token validation.
type AuthService struct {
	repo        ports.UserRepository
	broadcaster ports.Broadcaster
	limiter     ports.LoginLimiter
	admin       AdminAccount
	jwtSecret   []byte
	tokenTTL    time.Duration
	logger      zerolog.Logger
	now         func() time.Time
}

// AuthOption customises an AuthService.
type AuthOption func(*AuthService)

// WithLoginLimiter enables throttling of failed logins.
func WithLoginLimiter(l ports.LoginLimiter) AuthOption {
	return func(s *AuthService) { s.limiter = l }
}

// WithClock overrides the time source used for token issuance.
func WithClock(now func() time.Time) AuthOption {
	return func(s *AuthService) { s.now = now }
}

func NewAuthService(
	repo ports.UserRepository,
	broadcaster ports.Broadcaster,
	admin AdminAccount,
	jwtSecret string,
	tokenTTL time.Duration,
	logger zerolog.Logger,
	opts ...AuthOption,
) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = time.Hour
	}
	s := &AuthService{
		repo:        repo,
		broadcaster: broadcaster,
		admin:       admin,
		jwtSecret:   []byte(jwtSecret),
		tokenTTL:    tokenTTL,
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a "user" account. Any role the client asked for is ignored.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	var missing []string
	if strings.TrimSpace(in.Username) == "" {
		missing = append(missing, "username")
	}
	if strings.TrimSpace(in.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(in.Phone) == "" {
		missing = append(missing, "phone")
	}
	if in.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return nil, &domain.ValidationError{Fields: missing}
	}

	if _, err := s.repo.FindByEmail(ctx, in.Email); err == nil {
		return nil, domain.ErrDuplicateEmail
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user, err := s.repo.Create(ctx, &domain.User{
		Username:       in.Username,
		Email:          in.Email,
		Phone:          in.Phone,
		PasswordHash:   string(hash),
		Role:           domain.RoleUser,
		Status:         domain.UserStatusActive,
		MembershipType: domain.DefaultMembership,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return nil, err
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("user registered")
	s.broadcaster.Publish(ctx, domain.UserCreated(user))

	return &ports.AuthResult{Token: token, User: user}, nil
}

// Login authenticates by email or username. The bootstrap admin credentials
// short-circuit the lookup and create the admin account on first use.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*ports.AuthResult, error) {
	if identifier == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	if s.isAdminCredential(identifier, password) {
		admin, err := s.findOrCreateAdmin(ctx)
		if err != nil {
			return nil, err
		}
		return s.result(admin)
	}

	if s.limiter != nil {
		ok, err := s.limiter.Allow(ctx, identifier)
		if err != nil {
			s.logger.Warn().Err(err).Str("identifier", identifier).Msg("login limiter unavailable")
		} else if !ok {
			return nil, domain.ErrTooManyAttempts
		}
	}

	user, err := s.repo.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.recordFailure(ctx, identifier)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		s.recordFailure(ctx, identifier)
		return nil, domain.ErrInvalidCredentials
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, identifier); err != nil {
			s.logger.Warn().Err(err).Str("identifier", identifier).Msg("failed to reset login attempts")
		}
	}

	return s.result(user)
}

// ValidateToken classifies token into one of the TokenState outcomes. The
// stored user is re-fetched so role and status changes take effect.
func (s *AuthService) ValidateToken(ctx context.Context, token string) ports.TokenValidation {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, s.keyFunc, jwt.WithTimeFunc(s.now))

	switch {
	case err == nil:
		user, ferr := s.repo.FindByID(ctx, claims.UserID)
		if ferr != nil {
			return ports.TokenValidation{State: ports.TokenInvalid}
		}
		return ports.TokenValidation{State: ports.TokenValid, User: user}

	case errors.Is(err, jwt.ErrTokenExpired) && claims.UserID != "":
		user, ferr := s.repo.FindByID(ctx, claims.UserID)
		if ferr != nil {
			return ports.TokenValidation{State: ports.TokenExpiredUnresolved}
		}
		fresh, ierr := s.issueToken(user)
		if ierr != nil {
			s.logger.Error().Err(ierr).Str("user_id", user.ID).Msg("token refresh failed")
			return ports.TokenValidation{State: ports.TokenExpiredUnresolved}
		}
		s.logger.Debug().Str("user_id", user.ID).Msg("expired token soft-refreshed")
		return ports.TokenValidation{State: ports.TokenExpiredRefreshed, User: user, NewToken: fresh}

	default:
		return ports.TokenValidation{State: ports.TokenInvalid}
	}
}

// EnsureAdmin creates the bootstrap admin account when no admin exists.
func (s *AuthService) EnsureAdmin(ctx context.Context) error {
	_, err := s.repo.FindAdmin(ctx)
	if err == nil {
		s.logger.Info().Msg("admin user already exists")
		return nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return err
	}
	if _, err := s.createAdmin(ctx); err != nil {
		return err
	}
	s.logger.Info().Str("username", s.admin.Username).Msg("admin user created")
	return nil
}

func (s *AuthService) isAdminCredential(identifier, password string) bool {
	return s.admin.Username != "" && s.admin.Password != "" &&
		identifier == s.admin.Username && password == s.admin.Password
}

func (s *AuthService) findOrCreateAdmin(ctx context.Context) (*domain.User, error) {
	admin, err := s.repo.FindAdmin(ctx)
	if err == nil {
		return admin, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}
	return s.createAdmin(ctx)
}

func (s *AuthService) createAdmin(ctx context.Context) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(s.admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	return s.repo.Create(ctx, &domain.User{
		Username:       s.admin.Username,
		Email:          s.admin.Email,
		Phone:          s.admin.Phone,
		PasswordHash:   string(hash),
		Role:           domain.RoleAdmin,
		Status:         domain.UserStatusActive,
		MembershipType: domain.DefaultMembership,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
}

func (s *AuthService) recordFailure(ctx context.Context, identifier string) {
	if s.limiter == nil {
		return
	}
	if err := s.limiter.Fail(ctx, identifier); err != nil {
		s.logger.Warn().Err(err).Str("identifier", identifier).Msg("failed to record login attempt")
	}
}

func (s *AuthService) result(user *domain.User) (*ports.AuthResult, error) {
	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}
	return &ports.AuthResult{Token: token, User: user}, nil
}

func (s *AuthService) keyFunc(token *jwt.Token) (interface{}, error) {
	if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
		return nil, jwt.ErrTokenSignatureInvalid
	}
	return s.jwtSecret, nil
}

func (s *AuthService) issueToken(user *domain.User) (string, error) {
	now := s.now()
	claims := Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.jwtSecret)
}
