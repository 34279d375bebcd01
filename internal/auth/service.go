package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type Permission string

const (
	PermViewer   Permission = "viewer"
	PermOperator Permission = "operator"
	PermAdmin    Permission = "admin"
)

// Config carries the auth settings from the service configuration.
type Config struct {
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

type AuthService struct {
	store          *UserStore
	jwtHandler     *JWTHandler
	passwordHasher *PasswordHasher
	logger         *zap.Logger
}

func NewAuthService(store *UserStore, cfg Config, logger *zap.Logger) *AuthService {
	return &AuthService{
		store:          store,
		jwtHandler:     NewJWTHandler(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
		passwordHasher: NewPasswordHasher(),
		logger:         logger,
	}
}

// LoginUser authenticates a user and returns tokens
func (a *AuthService) LoginUser(username, password, ipAddress string) (accessToken, refreshToken string, err error) {
	user, ok := a.store.GetUserByUsername(username)
	if !ok {
		a.logger.Warn("Login failed: unknown user",
			zap.String("username", username), zap.String("ip", ipAddress))
		return "", "", fmt.Errorf("invalid credentials")
	}

	valid, err := a.passwordHasher.VerifyPassword(password, user.PasswordHash)
	if err != nil || !valid {
		a.logger.Warn("Login failed: invalid password",
			zap.String("username", username), zap.String("ip", ipAddress))
		return "", "", fmt.Errorf("invalid credentials")
	}

	accessToken, err = a.jwtHandler.GenerateAccessToken(user.ID, user.Username, user.Role)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err = a.jwtHandler.GenerateRefreshToken()
	if err != nil {
		return "", "", fmt.Errorf("failed to generate refresh token: %w", err)
	}

	a.store.StoreRefreshToken(a.hashRefreshToken(refreshToken), user.ID,
		time.Now().Add(a.jwtHandler.refreshTokenTTL))

	a.logger.Info("User logged in",
		zap.String("username", username), zap.String("ip", ipAddress))
	return accessToken, refreshToken, nil
}

// RefreshAccessToken rotates a refresh token into a fresh token pair.
// The presented token is revoked whether or not the rotation succeeds.
func (a *AuthService) RefreshAccessToken(refreshToken string) (string, string, error) {
	userID, ok := a.store.ConsumeRefreshToken(a.hashRefreshToken(refreshToken))
	if !ok {
		return "", "", fmt.Errorf("invalid refresh token")
	}

	user, ok := a.store.GetUserByID(userID)
	if !ok {
		return "", "", fmt.Errorf("user not found")
	}

	accessToken, err := a.jwtHandler.GenerateAccessToken(user.ID, user.Username, user.Role)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate access token: %w", err)
	}

	newRefreshToken, err := a.jwtHandler.GenerateRefreshToken()
	if err != nil {
		return "", "", fmt.Errorf("failed to generate refresh token: %w", err)
	}

	a.store.StoreRefreshToken(a.hashRefreshToken(newRefreshToken), user.ID,
		time.Now().Add(a.jwtHandler.refreshTokenTTL))

	return accessToken, newRefreshToken, nil
}

// RevokeRefreshToken revokes a refresh token
func (a *AuthService) RevokeRefreshToken(refreshToken string) {
	a.store.RevokeRefreshToken(a.hashRefreshToken(refreshToken))
}

// ValidateAccessToken validates a bearer token and returns its claims.
func (a *AuthService) ValidateAccessToken(token string) (*JWTClaims, error) {
	return a.jwtHandler.ValidateAccessToken(token)
}

// ValidateBearer validates an access token and resolves the
// permissions of its role.
func (a *AuthService) ValidateBearer(token string) (*JWTClaims, []Permission, error) {
	claims, err := a.jwtHandler.ValidateAccessToken(token)
	if err != nil {
		return nil, nil, err
	}
	return claims, a.roleToPermissions(claims.Role), nil
}

func (a *AuthService) roleToPermissions(role string) []Permission {
	switch role {
	case "admin":
		return []Permission{PermViewer, PermOperator, PermAdmin}
	case "operator":
		return []Permission{PermViewer, PermOperator}
	default:
		return []Permission{PermViewer}
	}
}

func (a *AuthService) hashRefreshToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
