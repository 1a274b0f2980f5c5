package services_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"recipebox/internal/apperror"
	"recipebox/internal/models"
	"recipebox/internal/repositories"
	"recipebox/internal/services"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "test_jwt_secret"

func signed(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestAuthService_SignUp(t *testing.T) {
	r, avail := newRepos()
	authService := services.NewAuthService(avail, testJWTSecret, time.Hour)

	r.users.On("GetByEmail", ctxArg, "ada@example.com").Return(nil, repositories.ErrNotFound).Once()
	r.users.On("Create", ctxArg, mock.AnythingOfType("*models.User")).Return(nil).Once()

	user, token, err := authService.SignUp(t.Context(), services.SignupRequest{
		Name:     "  Ada ",
		Email:    " Ada@Example.com ",
		Password: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada", user.Name)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.NotEmpty(t, user.ID)
	assert.False(t, user.JoinedAt.IsZero())
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret")))

	claims, err := authService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims["userId"])
	assert.Equal(t, "ada@example.com", claims["email"])
	r.assertExpectations(t)
}

func TestAuthService_SignUpValidation(t *testing.T) {
	_, avail := newRepos()
	authService := services.NewAuthService(avail, testJWTSecret, time.Hour)

	tests := []struct {
		name string
		req  services.SignupRequest
		msg  string
	}{
		{"missing name", services.SignupRequest{Email: "a@example.com", Password: "secret"}, "Name, email, and password are required"},
		{"blank name", services.SignupRequest{Name: "  ", Email: "a@example.com", Password: "secret"}, "Name, email, and password are required"},
		{"missing password", services.SignupRequest{Name: "A", Email: "a@example.com"}, "Name, email, and password are required"},
		{"short password", services.SignupRequest{Name: "A", Email: "a@example.com", Password: "12345"}, "Password must be at least 6 characters long"},
		{"bad email", services.SignupRequest{Name: "A", Email: "not-an-email", Password: "123456"}, "Email must be a valid email address"},
		{"long name", services.SignupRequest{Name: strings.Repeat("n", 101), Email: "a@example.com", Password: "123456"}, "Name cannot exceed 100 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := authService.SignUp(t.Context(), tt.req)
			require.Error(t, err)
			assert.Equal(t, apperror.KindInvalidInput, apperror.KindOf(err))
			assert.Equal(t, tt.msg, apperror.Message(err, ""))
		})
	}
}

func TestAuthService_SignUpDuplicateEmail(t *testing.T) {
	r, avail := newRepos()
	authService := services.NewAuthService(avail, testJWTSecret, time.Hour)

	r.users.On("GetByEmail", ctxArg, "a@example.com").Return(&models.User{ID: "existing"}, nil).Once()
	_, _, err := authService.SignUp(t.Context(), services.SignupRequest{Name: "A", Email: "a@example.com", Password: "123456"})
	assert.True(t, apperror.Is(err, apperror.KindConflict))
	assert.Equal(t, "User with this email already exists", apperror.Message(err, ""))

	// Lost race: the unique index rejects the insert.
	r.users.On("GetByEmail", ctxArg, "b@example.com").Return(nil, repositories.ErrNotFound).Once()
	r.users.On("Create", ctxArg, mock.Anything).Return(repositories.ErrDuplicate).Once()
	_, _, err = authService.SignUp(t.Context(), services.SignupRequest{Name: "B", Email: "b@example.com", Password: "123456"})
	assert.True(t, apperror.Is(err, apperror.KindConflict))
	r.assertExpectations(t)
}

func TestAuthService_SignUpStoreUnavailable(t *testing.T) {
	authService := services.NewAuthService(down, testJWTSecret, time.Hour)

	_, _, err := authService.SignUp(t.Context(), services.SignupRequest{Name: "A", Email: "a@example.com", Password: "123456"})
	assert.True(t, apperror.Is(err, apperror.KindUnavailable))
	assert.Equal(t, "Database not available", apperror.Message(err, ""))
}

func TestAuthService_Login(t *testing.T) {
	r, avail := newRepos()
	authService := services.NewAuthService(avail, testJWTSecret, time.Hour)

	hashed, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	user := &models.User{ID: "user-123", Name: "Ada", Email: "ada@example.com", PasswordHash: string(hashed)}

	r.users.On("GetByEmail", ctxArg, "ada@example.com").Return(user, nil).Twice()
	got, token, err := authService.Login(t.Context(), services.LoginRequest{Email: "ADA@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "user-123", got.ID)
	assert.NotEmpty(t, token)

	_, _, err = authService.Login(t.Context(), services.LoginRequest{Email: "ada@example.com", Password: "wrongpassword"})
	assert.True(t, apperror.Is(err, apperror.KindUnauthenticated))

	r.users.On("GetByEmail", ctxArg, "nobody@example.com").Return(nil, repositories.ErrNotFound).Once()
	_, _, err = authService.Login(t.Context(), services.LoginRequest{Email: "nobody@example.com", Password: "password123"})
	assert.True(t, apperror.Is(err, apperror.KindUnauthenticated))
	assert.Equal(t, "Invalid email or password", apperror.Message(err, ""))

	_, _, err = authService.Login(t.Context(), services.LoginRequest{Email: "ada@example.com"})
	assert.True(t, apperror.Is(err, apperror.KindInvalidInput))
	r.assertExpectations(t)
}

func TestAuthService_Me(t *testing.T) {
	r, avail := newRepos()
	authService := services.NewAuthService(avail, testJWTSecret, time.Hour)
	id := "6f1c2a8e-4b1d-4c3e-9e8f-0a1b2c3d4e5f"

	r.users.On("GetByID", ctxArg, id).Return(&models.User{ID: id, Name: "Ada"}, nil).Once()
	user, err := authService.Me(t.Context(), &models.Principal{UserID: id})
	require.NoError(t, err)
	assert.Equal(t, "Ada", user.Name)

	r.users.On("GetByID", ctxArg, id).Return(nil, repositories.ErrNotFound).Once()
	_, err = authService.Me(t.Context(), &models.Principal{UserID: id})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
	assert.Equal(t, "User not found", apperror.Message(err, ""))

	_, err = authService.Me(t.Context(), &models.Principal{UserID: "not-a-uuid"})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	_, err = authService.Me(t.Context(), nil)
	assert.True(t, apperror.Is(err, apperror.KindUnauthenticated))
	r.assertExpectations(t)
}

func TestAuthService_ValidateToken(t *testing.T) {
	authService := services.NewAuthService(down, testJWTSecret, time.Hour)

	valid := signed(t, testJWTSecret, jwt.MapClaims{"userId": "user-123", "exp": time.Now().Add(time.Hour).Unix()})
	claims, err := authService.ValidateToken(valid)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims["userId"])

	_, err = authService.ValidateToken("invalid.token.string")
	assert.ErrorContains(t, err, "invalid token")

	expired := signed(t, testJWTSecret, jwt.MapClaims{"userId": "user-123", "exp": time.Now().Add(-time.Hour).Unix()})
	_, err = authService.ValidateToken(expired)
	assert.ErrorContains(t, err, "invalid token")

	forged := signed(t, "other-secret", jwt.MapClaims{"userId": "user-123"})
	_, err = authService.ValidateToken(forged)
	assert.Error(t, err)
}

func TestAuthService_IssueTokenExpiry(t *testing.T) {
	authService := services.NewAuthService(down, testJWTSecret, 7*24*time.Hour)

	token, err := authService.IssueToken(&models.User{ID: "u1", Email: "a@example.com"})
	require.NoError(t, err)
	claims, err := authService.ValidateToken(token)
	require.NoError(t, err)

	exp := time.Unix(int64(claims["exp"].(float64)), 0)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), exp, time.Minute)
}

func TestAuthService_ResolvePrincipal(t *testing.T) {
	authService := services.NewAuthService(down, testJWTSecret, time.Hour)
	exp := time.Now().Add(time.Hour).Unix()

	good := signed(t, testJWTSecret, jwt.MapClaims{"userId": "u1", "email": "a@example.com", "exp": exp})
	p, ok := authService.ResolvePrincipal("Bearer " + good)
	require.True(t, ok)
	assert.Equal(t, &models.Principal{UserID: "u1", Email: "a@example.com"}, p)

	absent := []string{
		"",
		"Bearer",
		"Bearer ",
		"Basic " + good,
		good,
		"Bearer garbage",
		"Bearer " + signed(t, "other-secret", jwt.MapClaims{"userId": "u1", "exp": exp}),
		"Bearer " + signed(t, testJWTSecret, jwt.MapClaims{"userId": "u1", "exp": time.Now().Add(-time.Minute).Unix()}),
		"Bearer " + signed(t, testJWTSecret, jwt.MapClaims{"email": "a@example.com", "exp": exp}),
		"Bearer " + signed(t, testJWTSecret, jwt.MapClaims{"userId": 42, "exp": exp}),
	}
	for i, header := range absent {
		p, ok := authService.ResolvePrincipal(header)
		assert.False(t, ok, "case %d", i)
		assert.Nil(t, p, "case %d", i)
	}
}

func TestIsOwner(t *testing.T) {
	assert.True(t, services.IsOwner(&models.Principal{UserID: "u1"}, "u1"))
	assert.False(t, services.IsOwner(&models.Principal{UserID: "u2"}, "u1"))
	assert.False(t, services.IsOwner(&models.Principal{}, ""))
	assert.False(t, services.IsOwner(nil, "u1"))
}

var errBoom = errors.New("boom")
