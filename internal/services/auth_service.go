package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"recipebox/internal/apperror"
	"recipebox/internal/logging"
	"recipebox/internal/models"
	"recipebox/internal/repositories"
	"recipebox/internal/store"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// SignupRequest is the payload of POST /auth/signup.
type SignupRequest struct {
	Name     string `json:"name" validate:"max=100"`
	Email    string `json:"email" validate:"email"`
	Password string `json:"password"`
}

// LoginRequest is the payload of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthService handles accounts, token issuance and principal resolution.
type AuthService struct {
	avail     store.Availability
	jwtSecret []byte
	tokenTTL  time.Duration
	validate  *validator.Validate
	now       func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(avail store.Availability, jwtSecret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		avail:     avail,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		validate:  newValidator(),
		now:       time.Now,
	}
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp registers a new account and returns it with a freshly issued token.
func (s *AuthService) SignUp(ctx context.Context, req SignupRequest) (*models.User, string, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = NormalizeEmail(req.Email)

	if req.Name == "" || req.Email == "" || req.Password == "" {
		return nil, "", apperror.InvalidInput("Name, email, and password are required")
	}
	if len(req.Password) < minPasswordLength {
		return nil, "", apperror.InvalidInput("Password must be at least 6 characters long")
	}
	if err := validate(s.validate, req); err != nil {
		return nil, "", err
	}

	st, err := storeOf(s.avail)
	if err != nil {
		return nil, "", err
	}

	if existing, err := st.Users.GetByEmail(ctx, req.Email); err == nil && existing != nil {
		return nil, "", apperror.Conflict("User with this email already exists")
	} else if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, "", apperror.Internal("Internal server error", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", apperror.Internal("Internal server error", fmt.Errorf("failed to hash password: %w", err))
	}

	now := s.now().UTC()
	user := &models.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hashed),
		JoinedAt:     now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := st.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, "", apperror.Conflict("User with this email already exists")
		}
		return nil, "", apperror.Internal("Internal server error", err)
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return nil, "", apperror.Internal("Internal server error", err)
	}

	logging.Info().Str("user_id", user.ID).Msg("account created")
	return user, token, nil
}

// Login authenticates by email and password.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*models.User, string, error) {
	email := NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, "", apperror.InvalidInput("Email and password are required")
	}

	st, err := storeOf(s.avail)
	if err != nil {
		return nil, "", err
	}

	user, err := st.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, "", apperror.Unauthenticated("Invalid email or password")
		}
		return nil, "", apperror.Internal("Internal server error", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, "", apperror.Unauthenticated("Invalid email or password")
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return nil, "", apperror.Internal("Internal server error", err)
	}
	return user, token, nil
}

// Me returns the account of the authenticated principal.
func (s *AuthService) Me(ctx context.Context, principal *models.Principal) (*models.User, error) {
	if principal == nil {
		return nil, apperror.Unauthenticated("Authentication required")
	}

	st, err := storeOf(s.avail)
	if err != nil {
		return nil, err
	}
	if !validID(principal.UserID) {
		return nil, apperror.NotFound("User not found")
	}

	user, err := st.Users.GetByID(ctx, principal.UserID)
	if err != nil {
		return nil, translate(err, "User not found")
	}
	return user, nil
}

// IssueToken signs a token carrying the user's id and email.
func (s *AuthService) IssueToken(user *models.User) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": user.ID,
		"email":  user.Email,
		"exp":    now.Add(s.tokenTTL).Unix(),
		"iat":    now.Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates a JWT token, returning the claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}

// ResolvePrincipal turns an Authorization header value into a principal.
// A missing header, a non-Bearer scheme, a bad signature, an expired token
// and claims without a user id all yield (nil, false).
func (s *AuthService) ResolvePrincipal(authHeader string) (*models.Principal, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(authHeader), " ")
	if !found || scheme != "Bearer" {
		return nil, false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, false
	}

	claims, err := s.ValidateToken(token)
	if err != nil {
		logging.Debug().Err(err).Msg("rejected bearer token")
		return nil, false
	}

	userID, _ := claims["userId"].(string)
	if userID == "" {
		return nil, false
	}
	email, _ := claims["email"].(string)
	return &models.Principal{UserID: userID, Email: email}, true
}
