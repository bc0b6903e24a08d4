package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"lawdesk/internal/config"
	"lawdesk/internal/domain"
	"lawdesk/internal/service"
	"lawdesk/mocks"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Issuer: "lawdesk-test"}
}

func testUser() *domain.User {
	return &domain.User{ID: 7, Email: "partner@firm.test", FullName: "Pat Partner", Role: domain.RolePartner, IsActive: true}
}

func TestAuthService_IssueAndValidate(t *testing.T) {
	svc := service.NewAuthService(new(mocks.MockUserRepo), testJWTConfig())

	token, err := svc.IssueToken(testUser(), time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, domain.RolePartner, claims.Role)
}

func TestAuthService_ValidateToken_Rejects(t *testing.T) {
	cfg := testJWTConfig()
	svc := service.NewAuthService(new(mocks.MockUserRepo), cfg)

	expired, err := svc.IssueToken(testUser(), -time.Minute)
	require.NoError(t, err)

	other := service.NewAuthService(new(mocks.MockUserRepo), config.JWTConfig{Secret: "other", Issuer: cfg.Issuer})
	foreign, err := other.IssueToken(testUser(), time.Hour)
	require.NoError(t, err)

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, &service.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Audience:  jwt.ClaimStrings{"refresh"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID: 7,
	})
	refreshToken, err := refresh.SignedString([]byte(cfg.Secret))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"expired":   expired,
		"signature": foreign,
		"audience":  refreshToken,
		"garbage":   "not.a.token",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateToken(token)
			assert.ErrorIs(t, err, domain.ErrUnauthorized)
		})
	}
}

func TestAuthService_Authenticate(t *testing.T) {
	users := new(mocks.MockUserRepo)
	svc := service.NewAuthService(users, testJWTConfig())
	user := testUser()
	user.Role = domain.RoleAssociate
	users.On("GetByID", mock.Anything, int64(7)).Return(user, nil)

	token, err := svc.IssueToken(testUser(), time.Hour)
	require.NoError(t, err)

	actor, err := svc.Authenticate(context.Background(), token)

	require.NoError(t, err)
	assert.Equal(t, "Pat Partner", actor.Name)
	assert.Equal(t, domain.RoleAssociate, actor.Role, "stored role wins over the token")
}

func TestAuthService_Authenticate_InactiveOrMissing(t *testing.T) {
	users := new(mocks.MockUserRepo)
	svc := service.NewAuthService(users, testJWTConfig())
	inactive := testUser()
	inactive.IsActive = false
	users.On("GetByID", mock.Anything, int64(7)).Return(inactive, nil)
	users.On("GetByID", mock.Anything, int64(8)).Return(nil, domain.ErrNotFound)

	token7, _ := svc.IssueToken(testUser(), time.Hour)
	missing := testUser()
	missing.ID = 8
	token8, _ := svc.IssueToken(missing, time.Hour)

	_, err := svc.Authenticate(context.Background(), token7)
	assert.ErrorIs(t, err, domain.ErrUserInactive)
	_, err = svc.Authenticate(context.Background(), token8)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
