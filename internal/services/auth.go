package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/api/option"

	"wifisub_app/internal/apperr"
	"wifisub_app/internal/config"
	"wifisub_app/internal/models"
)

// TokenVerifier turns a bearer token into the calling Actor
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (Actor, error)
}

// NewTokenVerifier picks the verifier configured by AUTH_PROVIDER
func NewTokenVerifier(ctx context.Context, cfg *config.Config) (TokenVerifier, error) {
	switch cfg.AuthProvider {
	case "firebase":
		client, err := InitFirebase(ctx, cfg.FirebaseCredentialsPath)
		if err != nil {
			return nil, err
		}
		return NewFirebaseVerifier(client), nil
	case "", "jwt":
		return NewJWTService(cfg.JWTSecret, cfg.JWTExpiry)
	}
	return nil, fmt.Errorf("unknown AUTH_PROVIDER %q", cfg.AuthProvider)
}

// Claims carried in tokens issued by JWTService
type Claims struct {
	Role  models.UserRole `json:"role"`
	Name  string          `json:"name,omitempty"`
	Email string          `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// JWTService issues and verifies HS256 access tokens
type JWTService struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

func NewJWTService(secret string, expiry time.Duration) (*JWTService, error) {
	if secret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &JWTService{secret: []byte(secret), expiry: expiry, now: time.Now}, nil
}

// Issue signs a token for the user
func (s *JWTService) Issue(userID string, role models.UserRole) (string, error) {
	return s.IssueFor(models.User{ID: userID, Role: role})
}

// IssueFor signs a token that also carries the user's name and email, so an
// unknown subject can be registered on its first request
func (s *JWTService) IssueFor(user models.User) (string, error) {
	now := s.now()
	claims := Claims{
		Role:  user.Role,
		Name:  user.Name,
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *JWTService) Verify(ctx context.Context, token string) (Actor, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return Actor{}, apperr.NewUnauthorized("invalid or expired token")
	}
	if claims.Subject == "" {
		return Actor{}, apperr.NewUnauthorized("token has no subject")
	}
	return Actor{ID: claims.Subject, Role: normalizeRole(claims.Role), Name: claims.Name, Email: claims.Email}, nil
}

// InitFirebase initializes the Firebase Admin SDK and returns an auth client
func InitFirebase(ctx context.Context, credPath string) (*auth.Client, error) {
	opt := option.WithCredentialsFile(credPath)
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, err
	}
	return app.Auth(ctx)
}

// FirebaseVerifier accepts Firebase ID tokens. The role comes from the
// "role" custom claim; tokens without it are treated as regular users.
type FirebaseVerifier struct {
	client *auth.Client
}

func NewFirebaseVerifier(client *auth.Client) *FirebaseVerifier {
	return &FirebaseVerifier{client: client}
}

func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (Actor, error) {
	decoded, err := v.client.VerifyIDToken(ctx, token)
	if err != nil {
		return Actor{}, apperr.NewUnauthorized("invalid or expired token")
	}
	actor := Actor{ID: decoded.UID}
	if role, ok := decoded.Claims["role"].(string); ok {
		actor.Role = models.UserRole(role)
	}
	actor.Role = normalizeRole(actor.Role)
	if email, ok := decoded.Claims["email"].(string); ok {
		actor.Email = email
	}
	if name, ok := decoded.Claims["name"].(string); ok {
		actor.Name = name
	}
	return actor, nil
}

func normalizeRole(r models.UserRole) models.UserRole {
	if r == models.UserRoleAdmin {
		return models.UserRoleAdmin
	}
	return models.UserRoleUser
}
