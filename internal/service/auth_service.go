package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/sekolahku/sekolahku-api/internal/models"
	appErrors "github.com/sekolahku/sekolahku-api/pkg/errors"
)

type userAuthRepository interface {
	FindByAuthID(ctx context.Context, authID string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	SyncIdentity(ctx context.Context, id, fullName string, avatarURL *string) error
	RoleNames(ctx context.Context, userID string) ([]string, error)
	Permissions(ctx context.Context, userID string) ([]models.Permission, error)
}

// AuthService validates externally issued session tokens and resolves them to
// application users. The identity platform signs tokens with a shared secret;
// this service never issues tokens itself.
type AuthService struct {
	repo   userAuthRepository
	secret []byte
	issuer string
	logger *zap.Logger
}

// NewAuthService constructs the auth service.
func NewAuthService(repo userAuthRepository, secret, issuer string, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{repo: repo, secret: []byte(secret), issuer: issuer, logger: logger}
}

// ValidateToken parses and verifies a session token, returning its claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.AuthClaims, error) {
	claims := &models.AuthClaims{}
	parserOpts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
	if s.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(s.issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, parserOpts...)
	if err != nil || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token")
	}
	if claims.Subject == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token missing subject")
	}
	return claims, nil
}

// ResolveProfile maps token claims to the internal user with roles and the
// flattened permission set. Unknown subjects surface as unprovisioned and
// inactive accounts are rejected.
func (s *AuthService) ResolveProfile(ctx context.Context, claims *models.AuthClaims) (*models.UserProfile, error) {
	user, err := s.repo.FindByAuthID(ctx, claims.Subject)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrUnprovisioned, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve user")
	}
	if !user.Active {
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "")
	}
	return s.buildProfile(ctx, user)
}

// Provision creates the application user for a first-time subject. The call
// is idempotent: an already-provisioned subject gets its existing profile.
func (s *AuthService) Provision(ctx context.Context, claims *models.AuthClaims) (*models.UserProfile, bool, error) {
	existing, err := s.repo.FindByAuthID(ctx, claims.Subject)
	if err == nil {
		if !existing.Active {
			return nil, false, appErrors.Clone(appErrors.ErrInactiveAccount, "")
		}
		profile, perr := s.buildProfile(ctx, existing)
		return profile, false, perr
	}
	if err != sql.ErrNoRows {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check user")
	}

	user := &models.User{
		AuthID:   claims.Subject,
		Email:    claims.Email,
		FullName: claims.FullName,
		Active:   true,
	}
	if claims.AvatarURL != "" {
		avatar := claims.AvatarURL
		user.AvatarURL = &avatar
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to provision user")
	}
	s.logger.Info("provisioned user", zap.String("user_id", user.ID), zap.String("email", user.Email))

	profile, err := s.buildProfile(ctx, user)
	return profile, true, err
}

// SyncIdentity refreshes name and avatar from the latest token claims.
func (s *AuthService) SyncIdentity(ctx context.Context, userID string, claims *models.AuthClaims) (*models.UserProfile, error) {
	var avatar *string
	if claims.AvatarURL != "" {
		a := claims.AvatarURL
		avatar = &a
	}
	if err := s.repo.SyncIdentity(ctx, userID, claims.FullName, avatar); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sync identity")
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload user")
	}
	return s.buildProfile(ctx, user)
}

func (s *AuthService) buildProfile(ctx context.Context, user *models.User) (*models.UserProfile, error) {
	roles, err := s.repo.RoleNames(ctx, user.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roles")
	}
	perms, err := s.repo.Permissions(ctx, user.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load permissions")
	}
	if roles == nil {
		roles = []string{}
	}
	if perms == nil {
		perms = []models.Permission{}
	}
	return &models.UserProfile{User: *user, Roles: roles, Permissions: perms}, nil
}
