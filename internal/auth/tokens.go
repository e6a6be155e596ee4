package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"ecommerce_back_end/internal/models"
)

const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

var (
	ErrTokenInvalid   = errors.New("token invalide")
	ErrTokenExpired   = errors.New("token expiré")
	ErrWrongTokenType = errors.New("type de token inattendu")
)

// Claims porte l'identité de l'utilisateur et le jti utilisé pour la révocation.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Type   string `json:"type"`
	jwt.RegisteredClaims
}

type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL, now: time.Now}
}

func (m *TokenManager) AccessTTL() time.Duration { return m.accessTTL }

// IssuePair émet un access token (court) et un refresh token (long).
func (m *TokenManager) IssuePair(u *models.User) (*models.TokenPair, error) {
	access, err := m.issue(u, TokenAccess, m.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := m.issue(u, TokenRefresh, m.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &models.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(m.accessTTL.Seconds()),
	}, nil
}

// IssueAccess émet uniquement un access token (rafraîchissement).
func (m *TokenManager) IssueAccess(u *models.User) (*models.TokenPair, error) {
	access, err := m.issue(u, TokenAccess, m.accessTTL)
	if err != nil {
		return nil, err
	}
	return &models.TokenPair{AccessToken: access, TokenType: "Bearer", ExpiresIn: int64(m.accessTTL.Seconds())}, nil
}

func (m *TokenManager) issue(u *models.User, typ string, ttl time.Duration) (string, error) {
	now := m.now()
	claims := Claims{
		UserID: u.ID,
		Email:  u.Email,
		Role:   u.Role,
		Type:   typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Parse vérifie signature, expiration et type attendu.
func (m *TokenManager) Parse(tokenString, expectedType string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("méthode de signature inattendue: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid || claims.UserID == "" || claims.ID == "" {
		return nil, ErrTokenInvalid
	}
	if claims.Type != expectedType {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}

// Remaining retourne la durée de vie restante d'un token, pour le TTL de révocation.
func (m *TokenManager) Remaining(c *Claims) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return c.ExpiresAt.Time.Sub(m.now())
}
