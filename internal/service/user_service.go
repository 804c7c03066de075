package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/blobstore"
	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultTokenExpiration is the lifetime of a login token
	DefaultTokenExpiration = 7 * 24 * time.Hour
)

// bcryptCost is the cost factor for password and answer hashes
var bcryptCost = 10

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailNotRegistered = fmt.Errorf("%w: email is not registered", ErrInvalidCredentials)
	ErrInvalidPassword    = fmt.Errorf("%w: invalid password", ErrInvalidCredentials)
	ErrWrongEmailOrAnswer = errors.New("wrong email or answer")
	ErrInvalidToken       = errors.New("invalid token")
	// ErrSecretTooLong is returned for passwords and answers bcrypt cannot hash
	ErrSecretTooLong = errors.New("password and answer must be at most 72 bytes long")
)

// RegisterInput carries the fields of a new account
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Address  string
	Answer   string
	Photo    *PhotoUpload
}

// ProfileInput carries a profile update. Empty fields keep their current value.
type ProfileInput struct {
	Name     string
	Phone    string
	Address  string
	Password string
	Photo    *PhotoUpload
}

// UserService defines the interface for account business logic
type UserService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (token string, user *domain.User, err error)
	ForgotPassword(ctx context.Context, email, answer, newPassword string) error
	UpdateProfile(ctx context.Context, userID uuid.UUID, input ProfileInput) (*domain.User, error)
	ValidateToken(tokenString string) (*Claims, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	GetPhoto(ctx context.Context, userID uuid.UUID) (*blobstore.Blob, error)
}

// Claims represents the JWT claims
type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	jwt.RegisteredClaims
}

type userService struct {
	userRepo  repository.UserRepository
	photos    *PhotoStore
	jwtSecret string
	tokenTTL  time.Duration
}

// NewUserService creates a new instance of UserService. tokenTTL <= 0 selects
// DefaultTokenExpiration.
func NewUserService(
	userRepo repository.UserRepository,
	photos *PhotoStore,
	jwtSecret string,
	tokenTTL time.Duration,
) UserService {
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenExpiration
	}
	return &userService{
		userRepo:  userRepo,
		photos:    photos,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
	}
}

// Register creates a new account with hashed password and security answer
func (s *userService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	existingUser, err := s.userRepo.FindByEmail(ctx, input.Email)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existingUser != nil {
		return nil, repository.ErrUserAlreadyExists
	}

	if input.Photo != nil {
		if _, err := s.photos.Check(input.Photo); err != nil {
			return nil, err
		}
	}

	hashedPassword, err := hashSecret(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	hashedAnswer, err := hashSecret(input.Answer)
	if err != nil {
		return nil, fmt.Errorf("failed to hash answer: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New(),
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hashedPassword,
		Phone:        input.Phone,
		Address:      input.Address,
		AnswerHash:   hashedAnswer,
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if input.Photo != nil {
		user.Photo, err = s.photos.Save(ctx, PhotoKindUser, user.ID, input.Photo)
		if err != nil {
			return nil, err
		}
	}

	// The unique email constraint still decides a race between two registrations
	if err := s.userRepo.Create(ctx, user); err != nil {
		_ = s.photos.Remove(ctx, user.Photo)
		if errors.Is(err, repository.ErrUserAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Login authenticates a user and returns a signed token
func (s *userService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", nil, ErrEmailNotRegistered
		}
		return "", nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := compareSecret(user.PasswordHash, password); err != nil {
		return "", nil, ErrInvalidPassword
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return token, user, nil
}

// ForgotPassword replaces the password when email and security answer match
func (s *userService) ForgotPassword(ctx context.Context, email, answer, newPassword string) error {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrWrongEmailOrAnswer
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	if err := compareSecret(user.AnswerHash, answer); err != nil {
		return ErrWrongEmailOrAnswer
	}

	hashed, err := hashSecret(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, user.ID, hashed); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

// UpdateProfile changes the caller's own profile
func (s *userService) UpdateProfile(ctx context.Context, userID uuid.UUID, input ProfileInput) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	user.Name = keepIfEmpty(input.Name, user.Name)
	user.Phone = keepIfEmpty(input.Phone, user.Phone)
	user.Address = keepIfEmpty(input.Address, user.Address)

	if input.Password != "" {
		user.PasswordHash, err = hashSecret(input.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
	}

	previous := user.Photo
	if input.Photo != nil {
		user.Photo, err = s.photos.Save(ctx, PhotoKindUser, user.ID, input.Photo)
		if err != nil {
			return nil, err
		}
	}

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		if input.Photo != nil {
			_ = s.photos.Remove(ctx, user.Photo)
			user.Photo = previous
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	if input.Photo != nil {
		_ = s.photos.Remove(ctx, previous)
	}

	return user, nil
}

// ValidateToken validates a JWT token and returns the claims
func (s *userService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// GetUserByID retrieves a user by ID
func (s *userService) GetUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetPhoto retrieves a user's stored photo
func (s *userService) GetPhoto(ctx context.Context, userID uuid.UUID) (*blobstore.Blob, error) {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrPhotoNotFound
		}
		return nil, err
	}
	return s.photos.Load(ctx, user.Photo)
}

func (s *userService) generateToken(user *domain.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

func keepIfEmpty(value, current string) string {
	if value == "" {
		return current
	}
	return value
}

func hashSecret(secret string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(secret), bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrSecretTooLong
		}
		return "", err
	}
	return string(hashedBytes), nil
}

func compareSecret(hashed, secret string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(secret))
}
