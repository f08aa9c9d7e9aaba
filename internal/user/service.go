package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrTokenRevoked       = errors.New("token revoked")
)

// BlobStore stores a profile picture payload and returns its serving ref.
type BlobStore interface {
	Put(ctx context.Context, payload string) (string, error)
}

type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

type Service struct {
	repo     Repository
	sessions Sessions
	blobs    BlobStore
	secret   string
	tokenTTL time.Duration
	validate *validator.Validate
}

func NewService(repo Repository, sessions Sessions, blobs BlobStore, secret string, tokenTTL time.Duration) *Service {
	return &Service{
		repo:     repo,
		sessions: sessions,
		blobs:    blobs,
		secret:   secret,
		tokenTTL: tokenTTL,
		validate: validator.New(),
	}
}

func (s *Service) Signup(ctx context.Context, req *SignupRequest) (*AuthResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		ID:       uuid.NewString(),
		Email:    req.Email,
		FullName: req.FullName,
		Password: string(hashed),
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return s.authResponse(u)
}

func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	u, err := s.repo.GetByEmail(ctx, req.Email)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.authResponse(u)
}

func (s *Service) authResponse(u *User) (*AuthResponse, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: u.ID,
		Email:  u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    "dmchat",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	})

	signed, err := token.SignedString([]byte(s.secret))
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &AuthResponse{
		AccessToken: signed,
		ID:          u.ID,
		Email:       u.Email,
		FullName:    u.FullName,
	}, nil
}

// ValidateToken checks signature, expiry, and the revocation list, and
// returns the authenticated identity.
func (s *Service) ValidateToken(ctx context.Context, tokenString string) (string, string, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return "", "", err
	}

	revoked, err := s.sessions.IsRevoked(ctx, claims.ID)
	if err != nil {
		return "", "", err
	}
	if revoked {
		return "", "", ErrTokenRevoked
	}
	return claims.UserID, claims.Email, nil
}

// Logout revokes the presented token until its natural expiry.
func (s *Service) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.parse(tokenString)
	if err != nil {
		return err
	}
	ttl := s.tokenTTL
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	return s.sessions.Revoke(ctx, claims.ID, ttl)
}

func (s *Service) parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}
	return claims, nil
}

// Me returns the authenticated user's own record.
func (s *Service) Me(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateProfilePic stores the picture in the blob store and saves its ref.
func (s *Service) UpdateProfilePic(ctx context.Context, id, payload string) (*User, error) {
	ref, err := s.blobs.Put(ctx, payload)
	if err != nil {
		return nil, err
	}
	return s.repo.UpdateProfilePic(ctx, id, ref)
}

// List returns every registered user.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}
