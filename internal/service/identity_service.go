package service

import (
	"alcyxob/coach-tracker/internal/cache"
	"alcyxob/coach-tracker/internal/domain"
	"alcyxob/coach-tracker/internal/repository"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrMissingToken      = errors.New("authentication token is missing")
	ErrInvalidToken      = errors.New("authentication token is invalid or expired")
	ErrUnknownUser       = errors.New("no account exists for this identity")
	ErrUserInactive      = errors.New("account is inactive")
	ErrUserAlreadyExists = errors.New("an account already exists for this identity or email")
	ErrInvalidRole       = errors.New("role must be coach or client")
	ErrIncompleteProfile = errors.New("name and email are required")
)

// Identity is the resolved caller of a request.
type Identity struct {
	AuthID  string             `json:"authId"`
	UserID  primitive.ObjectID `json:"userId"`
	Role    domain.Role        `json:"role"`
	OwnerID primitive.ObjectID `json:"ownerId"` // coach that owns the caller's data
}

// IsCoach reports whether the caller acts as a coach.
func (i *Identity) IsCoach() bool { return i.Role == domain.RoleCoach }

type IdentityService interface {
	// Verify checks the token signature and returns the subject.
	Verify(token string) (authID string, err error)
	// Resolve verifies the token and maps it onto an active application user.
	Resolve(ctx context.Context, token string) (*Identity, *domain.User, error)
	// Provision creates the application user for an already verified subject.
	Provision(ctx context.Context, authID, name, email string, role domain.Role) (*domain.User, error)
}

type identityService struct {
	userRepo  repository.UserRepository
	cache     *cache.ReadThrough
	jwtSecret []byte
	issuer    string
	log       logrus.FieldLogger
}

// NewIdentityService creates the service that verifies tokens minted by the
// identity provider. The secret is shared with that provider.
func NewIdentityService(userRepo repository.UserRepository, rt *cache.ReadThrough, jwtSecret, issuer string, log logrus.FieldLogger) IdentityService {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty") // Critical configuration
	}
	return &identityService{
		userRepo:  userRepo,
		cache:     rt,
		jwtSecret: []byte(jwtSecret),
		issuer:    issuer,
		log:       log,
	}
}

// UserCacheKey is where a user resolved by auth id is cached.
func UserCacheKey(authID string) string {
	return "user:auth:" + authID
}

func (s *identityService) Verify(tokenString string) (string, error) {
	if strings.TrimSpace(tokenString) == "" {
		return "", ErrMissingToken
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		s.log.WithError(err).Debug("token verification failed")
		return "", ErrInvalidToken
	}
	if s.issuer != "" && !claims.VerifyIssuer(s.issuer, true) {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

func (s *identityService) Resolve(ctx context.Context, token string) (*Identity, *domain.User, error) {
	authID, err := s.Verify(token)
	if err != nil {
		return nil, nil, err
	}

	user, err := cache.Fetch(ctx, s.cache, UserCacheKey(authID), func(ctx context.Context) (domain.User, error) {
		u, err := s.userRepo.GetByAuthID(ctx, authID)
		if err != nil {
			return domain.User{}, err
		}
		return *u, nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrUnknownUser
		}
		return nil, nil, fmt.Errorf("resolve identity: %w", err)
	}
	if !user.IsActive() {
		return nil, nil, ErrUserInactive
	}
	user.AuthID = authID

	return &Identity{
		AuthID:  authID,
		UserID:  user.ID,
		Role:    user.Role,
		OwnerID: user.OwnerID(),
	}, &user, nil
}

func (s *identityService) Provision(ctx context.Context, authID, name, email string, role domain.Role) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	if authID == "" || name == "" || email == "" {
		return nil, ErrIncompleteProfile
	}
	if role != domain.RoleCoach && role != domain.RoleClient {
		return nil, ErrInvalidRole
	}

	if _, err := s.userRepo.GetByAuthID(ctx, authID); err == nil {
		return nil, ErrUserAlreadyExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	user := &domain.User{
		AuthID: authID,
		Name:   name,
		Email:  email,
		Role:   role,
		Status: domain.StatusActive,
	}
	id, err := s.userRepo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}
	user.ID = id
	s.cache.Invalidate(ctx, UserCacheKey(authID))
	return user, nil
}
