package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"journeybot/internal/config"
)

func newTestAuthService() *AuthService {
	return NewAuthService(&config.Config{
		JWTSecret:     "test-secret",
		AdminUsername: "admin",
		AdminPassword: "password123",
	})
}

func TestAuthServiceLogin(t *testing.T) {
	svc := newTestAuthService()

	t.Run("valid credentials", func(t *testing.T) {
		resp, err := svc.Login("admin", "password123")
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Token)
		assert.Contains(t, resp.AdminID, "admin_")

		claims, err := svc.ValidateAdminToken(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, resp.AdminID, claims.AdminID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login("admin", "nope")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("wrong username", func(t *testing.T) {
		_, err := svc.Login("root", "password123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestCaregiverToken(t *testing.T) {
	svc := newTestAuthService()

	t.Run("round trip", func(t *testing.T) {
		token, err := svc.GenerateCaregiverToken("child1", "cg1")
		require.NoError(t, err)

		claims, err := svc.ValidateCaregiverToken(token)
		require.NoError(t, err)
		assert.Equal(t, "child1", claims.ChildID)
		assert.Equal(t, "cg1", claims.CaregiverID)
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		_, err := svc.ValidateCaregiverToken("not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("token signed with another secret rejected", func(t *testing.T) {
		other := NewAuthService(&config.Config{JWTSecret: "other-secret"})
		token, err := other.GenerateCaregiverToken("child1", "cg1")
		require.NoError(t, err)

		_, err = svc.ValidateCaregiverToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("admin token is not a caregiver token", func(t *testing.T) {
		resp, err := svc.Login("admin", "password123")
		require.NoError(t, err)

		claims, err := svc.ValidateCaregiverToken(resp.Token)
		if err == nil {
			// Claims parse but carry no conversation scope
			assert.Empty(t, claims.ChildID)
			assert.Empty(t, claims.CaregiverID)
		}
	})
}
