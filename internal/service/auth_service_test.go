package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/edupoint-id/edupoint-api/internal/models"
)

type mockUserRepo struct {
	users         map[string]models.User
	refreshTokens map[string]models.RefreshToken
	revokedAll    []string
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	return nil
}

func (m *mockUserRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if m.refreshTokens == nil {
		m.refreshTokens = make(map[string]models.RefreshToken)
	}
	m.refreshTokens[token.Token] = *token
	return nil
}

func (m *mockUserRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if t, ok := m.refreshTokens[token]; ok {
		return &t, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for key, t := range m.refreshTokens {
		if t.ID == id {
			t.Revoked = true
			t.RevokedAt = &revokedAt
			m.refreshTokens[key] = t
		}
	}
	return nil
}

func (m *mockUserRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	m.revokedAll = append(m.revokedAll, userID)
	return nil
}

func hashPassword(t *testing.T, raw string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func newAuthFixture(repo *mockUserRepo) *AuthService {
	return NewAuthService(repo, validator.New(), zap.NewNop(), AuthConfig{
		AccessTokenSecret:  "test_secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "edupoint-test",
	})
}

func TestAuthServiceLogin(t *testing.T) {
	repo := &mockUserRepo{users: map[string]models.User{
		"u1": {ID: "u1", Email: "admin@school.id", PasswordHash: hashPassword(t, "secret123"), FullName: "Admin", Role: models.RoleAdmin, Active: true},
	}}
	svc := newAuthFixture(repo)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@school.id", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, models.RoleAdmin, res.User.Role)
	assert.Len(t, repo.refreshTokens, 1)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	repo := &mockUserRepo{users: map[string]models.User{
		"u1": {ID: "u1", Email: "admin@school.id", PasswordHash: hashPassword(t, "secret123"), Role: models.RoleAdmin, Active: true},
	}}
	svc := newAuthFixture(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@school.id", Password: "wrong"})
	require.Error(t, err)
}

func TestAuthServiceLoginInactiveAccount(t *testing.T) {
	repo := &mockUserRepo{users: map[string]models.User{
		"u1": {ID: "u1", Email: "admin@school.id", PasswordHash: hashPassword(t, "secret123"), Role: models.RoleAdmin, Active: false},
	}}
	svc := newAuthFixture(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@school.id", Password: "secret123"})
	require.Error(t, err)
}

func TestAuthServiceValidateToken(t *testing.T) {
	repo := &mockUserRepo{users: map[string]models.User{
		"u1": {ID: "u1", Email: "admin@school.id", PasswordHash: hashPassword(t, "secret123"), FullName: "Admin", Role: models.RoleAdmin, Active: true},
	}}
	svc := newAuthFixture(repo)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@school.id", Password: "secret123"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)

	_, err = svc.ValidateToken("not.a.token")
	require.Error(t, err)
}

func TestAuthServiceRefreshRotatesToken(t *testing.T) {
	repo := &mockUserRepo{users: map[string]models.User{
		"u1": {ID: "u1", Email: "admin@school.id", PasswordHash: hashPassword(t, "secret123"), FullName: "Admin", Role: models.RoleAdmin, Active: true},
	}}
	svc := newAuthFixture(repo)

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@school.id", Password: "secret123"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// The used token is revoked and cannot be replayed.
	_, err = svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
}

func TestAuthServiceLogout(t *testing.T) {
	repo := &mockUserRepo{}
	svc := newAuthFixture(repo)

	require.NoError(t, svc.Logout(context.Background(), "u1"))
	assert.Contains(t, repo.revokedAll, "u1")
}
