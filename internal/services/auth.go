package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"ecommerce_back_end/internal/apperr"
	"ecommerce_back_end/internal/auth"
	"ecommerce_back_end/internal/models"
	"ecommerce_back_end/internal/repository"
)

type AuthService struct {
	users   repository.UserRepository
	revoked repository.TokenBlocklist
	tokens  *auth.TokenManager
	admins  map[string]bool
	now     func() time.Time
}

// NewAuthService : les emails listés dans admins reçoivent le rôle admin
// à l'inscription.
func NewAuthService(users repository.UserRepository, revoked repository.TokenBlocklist, tokens *auth.TokenManager, admins []string) *AuthService {
	s := &AuthService{
		users:   users,
		revoked: revoked,
		tokens:  tokens,
		admins:  make(map[string]bool, len(admins)),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, email := range admins {
		s.admins[normalizeEmail(email)] = true
	}
	return s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) roleFor(email string) string {
	if s.admins[email] {
		return models.RoleAdmin
	}
	return models.RoleCustomer
}

func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, *models.TokenPair, error) {
	email := normalizeEmail(req.Email)
	if email == "" {
		return nil, nil, apperr.Validation("email", "Email requis")
	}
	if len(req.Password) < 8 {
		return nil, nil, apperr.Validation("password", "Le mot de passe doit contenir au moins 8 caractères")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, nil, apperr.Internal("auth.hash", err)
	}
	now := s.now()
	u := &models.User{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(req.Name),
		Email:     email,
		Password:  hash,
		Role:      s.roleFor(email),
		Provider:  "local",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, nil, err
	}
	log.Printf("✅ Utilisateur inscrit: %s", u.Email)

	pair, err := s.tokens.IssuePair(u)
	if err != nil {
		return nil, nil, apperr.Internal("auth.token", err)
	}
	return u, pair, nil
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.User, *models.TokenPair, error) {
	invalid := apperr.Unauthorized("Email ou mot de passe incorrect")

	u, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, nil, invalid
	}
	if err != nil {
		return nil, nil, err
	}
	if u.Password == "" {
		return nil, nil, invalid
	}
	ok, err := auth.VerifyPassword(req.Password, u.Password)
	if err != nil {
		log.Printf("❌ Hash de mot de passe illisible pour %s: %v", u.Email, err)
		return nil, nil, invalid
	}
	if !ok {
		return nil, nil, invalid
	}

	pair, err := s.tokens.IssuePair(u)
	if err != nil {
		return nil, nil, apperr.Internal("auth.token", err)
	}
	return u, pair, nil
}

// Refresh émet un nouvel access token à partir d'un refresh token non révoqué.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	claims, err := s.verify(ctx, refreshToken, auth.TokenRefresh)
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, claims.UserID)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, apperr.Unauthorized("Utilisateur introuvable")
	}
	if err != nil {
		return nil, err
	}
	pair, err := s.tokens.IssueAccess(u)
	if err != nil {
		return nil, apperr.Internal("auth.token", err)
	}
	return pair, nil
}

// Authenticate valide un access token et vérifie qu'il n'a pas été révoqué.
// Authenticate valide l'access token puis relit le rôle en base : un
// changement de rôle s'applique dès la requête suivante.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*auth.Claims, error) {
	claims, err := s.verify(ctx, accessToken, auth.TokenAccess)
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, claims.UserID)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, apperr.Unauthorized("Utilisateur introuvable")
	}
	if err != nil {
		return nil, err
	}
	claims.Role = u.Role
	return claims, nil
}

func (s *AuthService) verify(ctx context.Context, token, typ string) (*auth.Claims, error) {
	claims, err := s.tokens.Parse(token, typ)
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return nil, apperr.Unauthorized("Token expiré")
	case errors.Is(err, auth.ErrWrongTokenType):
		return nil, apperr.Unauthorized("Type de token invalide")
	case err != nil:
		return nil, apperr.Unauthorized("Token invalide")
	}

	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, apperr.Unauthorized("Token révoqué")
	}
	return claims, nil
}

// Logout révoque l'access token présenté et, s'il est fourni, le refresh token.
func (s *AuthService) Logout(ctx context.Context, access *auth.Claims, refreshToken string) error {
	if err := s.revoke(ctx, access); err != nil {
		return err
	}
	if refreshToken == "" {
		return nil
	}
	refresh, err := s.tokens.Parse(refreshToken, auth.TokenRefresh)
	if err != nil || refresh.UserID != access.UserID {
		return nil
	}
	return s.revoke(ctx, refresh)
}

func (s *AuthService) revoke(ctx context.Context, c *auth.Claims) error {
	ttl := s.tokens.Remaining(c)
	if ttl <= 0 {
		return nil
	}
	return s.revoked.Revoke(ctx, c.ID, c.UserID, ttl)
}

func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *AuthService) UpdateMe(ctx context.Context, userID string, upd models.ProfileUpdate) (*models.User, error) {
	if upd.Name == nil && upd.Password == nil {
		return nil, apperr.Validation("body", "Aucun champ à mettre à jour")
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil {
		u.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.Password != nil {
		if len(*upd.Password) < 8 {
			return nil, apperr.Validation("password", "Le mot de passe doit contenir au moins 8 caractères")
		}
		if u.Password, err = auth.HashPassword(*upd.Password); err != nil {
			return nil, apperr.Internal("auth.hash", err)
		}
	}
	u.UpdatedAt = s.now()
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// OAuthLogin retrouve le compte par email ou le crée pour un premier login social.
func (s *AuthService) OAuthLogin(ctx context.Context, provider, providerID, email, name string) (*models.User, *models.TokenPair, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, nil, apperr.Validation("email", "Le fournisseur n'a pas transmis d'email")
	}

	u, err := s.users.GetByEmail(ctx, email)
	switch {
	case apperr.Is(err, apperr.KindNotFound):
		now := s.now()
		u = &models.User{
			ID:         uuid.NewString(),
			Name:       name,
			Email:      email,
			Role:       s.roleFor(email),
			Provider:   provider,
			ProviderID: providerID,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.users.Create(ctx, u); err != nil {
			return nil, nil, err
		}
		log.Printf("✅ Compte créé via %s: %s", provider, email)
	case err != nil:
		return nil, nil, err
	}

	pair, err := s.tokens.IssuePair(u)
	if err != nil {
		return nil, nil, apperr.Internal("auth.token", err)
	}
	return u, pair, nil
}
