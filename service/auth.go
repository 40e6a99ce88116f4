package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"petopia/apperror"
	"petopia/models"
	"petopia/repository"

	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 10

type RegisterInput struct {
	Name     string `json:"name" binding:"required,min=2,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Claims are the JWT claims issued at login.
type Claims struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

type AuthService struct {
	users  UserStore
	tokens TokenStore
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewAuthService(users UserStore, tokens TokenStore, secret string, ttl time.Duration) *AuthService {
	return &AuthService{users: users, tokens: tokens, secret: []byte(secret), ttl: ttl, now: utcNow}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, apperror.New(apperror.CodeDuplicateEmail)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := s.now()
	u := &models.User{
		Name:      strings.TrimSpace(in.Name),
		Email:     email,
		Password:  string(hashed),
		Role:      models.RoleCustomer,
		Addresses: []models.Address{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, storeErr(err, apperror.CodeDuplicateEmail)
	}
	return u, nil
}

// EnsureAdmin creates an admin account for email unless one exists. An
// existing customer with that email is left untouched.
func (s *AuthService) EnsureAdmin(ctx context.Context, name, email, password string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return false, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return false, err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	now := s.now()
	u := &models.User{
		Name:      name,
		Email:     email,
		Password:  string(hashed),
		Role:      models.RoleAdmin,
		Addresses: []models.Address{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	u, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.New(apperror.CodeInvalidCredentials)
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(in.Password)); err != nil {
		return nil, apperror.New(apperror.CodeInvalidCredentials)
	}
	if u.IsBlocked {
		return nil, apperror.New(apperror.CodeAccountBlocked)
	}

	token, exp, err := s.issue(u)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: exp, User: u}, nil
}

func (s *AuthService) issue(u *models.User) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	claims := Claims{
		UserID: u.ID.Hex(),
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, exp, nil
}

func (s *AuthService) parse(token string) (*Claims, error) {
	claims := &Claims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, apperror.Wrap(apperror.CodeUnauthorized, err)
	}
	return claims, nil
}

// Verify authenticates a bearer token: signature, expiry, logout blacklist
// and the account's blocked flag.
func (s *AuthService) Verify(ctx context.Context, token string) (*Claims, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}
	listed, err := s.tokens.IsBlacklisted(ctx, token)
	if err != nil {
		return nil, err
	}
	if listed {
		return nil, apperror.Newf(apperror.CodeUnauthorized, "Token has been revoked")
	}
	uid, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, apperror.Wrap(apperror.CodeUnauthorized, err)
	}
	u, err := s.users.FindByID(ctx, uid)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.New(apperror.CodeUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	if u.IsBlocked {
		return nil, apperror.New(apperror.CodeAccountBlocked)
	}
	claims.Role = u.Role
	return claims, nil
}

// Logout revokes token until its natural expiry.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return err
	}
	exp := s.now().Add(s.ttl)
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	return s.tokens.Blacklist(ctx, token, exp)
}

func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	oid, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	u, err := s.users.FindByID(ctx, oid)
	if err != nil {
		return nil, storeErr(err, apperror.CodeDuplicateEmail)
	}
	return u, nil
}
