package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/pavingco/driveway-api/internal/api/metrics"
	"github.com/pavingco/driveway-api/internal/core/domain"
	"github.com/pavingco/driveway-api/internal/core/ports"
)

const minPasswordLength = 6

// AuthService implements registration, login and bearer token verification.
type AuthService struct {
	clients   ports.ClientRepository
	revoker   ports.TokenRevoker
	jwtSecret string
	tokenTTL  time.Duration
	logger    zerolog.Logger
	now       func() time.Time
}

func NewAuthService(clients ports.ClientRepository, revoker ports.TokenRevoker, jwtSecret string, tokenTTL time.Duration, logger zerolog.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 3 * time.Hour
	}
	return &AuthService{
		clients:   clients,
		revoker:   revoker,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		logger:    logger,
		now:       time.Now,
	}
}

// Register creates a client account. Self-registration always yields the
// user role.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.Client, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, domain.NewValidationError("email and password are required")
	}
	if len(in.Password) < minPasswordLength {
		return nil, domain.NewValidationError("password must be at least %d characters", minPasswordLength)
	}

	client := &domain.Client{
		FirstName:         strings.TrimSpace(in.FirstName),
		LastName:          strings.TrimSpace(in.LastName),
		Address:           strings.TrimSpace(in.Address),
		PaymentDescriptor: strings.TrimSpace(in.PaymentDescriptor),
		Phone:             strings.TrimSpace(in.Phone),
		Email:             email,
		Role:              domain.RoleUser,
	}
	if err := s.create(ctx, client, in.Password); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("client_id", client.ID).Msg("client registered")
	return client, nil
}

// EnsureAdmin creates the bootstrap administrator when no account holds the
// email yet. An existing account is left untouched.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil
	}
	if _, err := s.clients.FindByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, domain.ErrClientNotFound) {
		return fmt.Errorf("ensure admin: %w", err)
	}

	admin := &domain.Client{FirstName: "Admin", Email: email, Role: domain.RoleAdmin}
	if err := s.create(ctx, admin, password); err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return nil
		}
		return fmt.Errorf("ensure admin: %w", err)
	}
	s.logger.Info().Int64("client_id", admin.ID).Msg("admin account created")
	return nil
}

func (s *AuthService) create(ctx context.Context, client *domain.Client, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	client.PasswordHash = string(hash)
	client.CreatedAt = s.now().UTC()
	return s.clients.Create(ctx, client)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.Client, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", nil, domain.NewValidationError("email and password are required")
	}

	client, err := s.clients.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrClientNotFound) {
			metrics.LoginAttemptsTotal.WithLabelValues("failure").Inc()
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(client.PasswordHash), []byte(password)) != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("failure").Inc()
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.generateToken(client)
	if err != nil {
		return "", nil, err
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	return token, client, nil
}

// Authenticate verifies a bearer token and resolves the caller. The role is
// re-read from the store so a demoted account loses access immediately.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*ports.Session, error) {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(s.jwtSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !tkn.Valid {
		return nil, domain.ErrUnauthorized
	}

	rawID, _ := claims["client_id"].(string)
	clientID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}
	tokenID, _ := claims["jti"].(string)
	if tokenID == "" {
		return nil, domain.ErrUnauthorized
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, domain.ErrUnauthorized
	}

	if s.revoker != nil {
		revoked, err := s.revoker.IsRevoked(ctx, tokenID)
		if err != nil {
			return nil, fmt.Errorf("authenticate: %w", err)
		}
		if revoked {
			return nil, domain.ErrUnauthorized
		}
	}

	client, err := s.clients.FindByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, domain.ErrClientNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	return &ports.Session{
		Actor:     client.Actor(),
		Email:     client.Email,
		TokenID:   tokenID,
		ExpiresAt: exp.Time,
	}, nil
}

// Logout revokes the session's token for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, session *ports.Session) error {
	if session == nil || session.TokenID == "" {
		return domain.ErrUnauthorized
	}
	if s.revoker == nil {
		return nil
	}
	ttl := session.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.revoker.Revoke(ctx, session.TokenID, ttl); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (s *AuthService) generateToken(client *domain.Client) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"client_id": strconv.FormatInt(client.ID, 10),
		"email":     client.Email,
		"role":      string(client.Role),
		"jti":       uuid.NewString(),
		"iat":       now.Unix(),
		"exp":       now.Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
