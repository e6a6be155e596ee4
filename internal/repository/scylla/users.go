package scylla

import (
	"context"
	"strings"
	"time"

	"github.com/gocql/gocql"

	"ecommerce_back_end/internal/apperr"
	"ecommerce_back_end/internal/models"
)

type UserRepository struct {
	session *gocql.Session
}

func NewUserRepository(session *gocql.Session) *UserRepository {
	return &UserRepository{session: session}
}

// Create réserve d'abord l'email via users_by_email (LWT) puis écrit l'utilisateur.
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	id, err := gocql.ParseUUID(u.ID)
	if err != nil {
		return apperr.Validation("user_id", "Identifiant utilisateur invalide")
	}
	email := strings.ToLower(u.Email)

	applied, err := r.session.Query(stmtClaimEmail, email, id).WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return translate("users.claim_email", "Utilisateur", err)
	}
	if !applied {
		return apperr.Conflict("Email déjà utilisé")
	}

	err = r.session.Query(stmtInsertUser,
		id, email, u.Password, u.Name, u.Role, u.Provider, u.ProviderID, u.CreatedAt, u.UpdatedAt,
	).WithContext(ctx).Exec()
	return translate("users.create", "Utilisateur", err)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	uid, err := gocql.ParseUUID(id)
	if err != nil {
		return nil, apperr.NotFound("Utilisateur")
	}

	var u models.User
	var storedID gocql.UUID
	if err := r.session.Query(stmtGetUserByID, uid).WithContext(ctx).Scan(
		&storedID, &u.Email, &u.Password, &u.Name, &u.Role, &u.Provider, &u.ProviderID, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, translate("users.get", "Utilisateur", err)
	}
	u.ID = storedID.String()
	return &u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var id gocql.UUID
	if err := r.session.Query(stmtGetUserByEmail, strings.ToLower(email)).WithContext(ctx).Scan(&id); err != nil {
		return nil, translate("users.get_by_email", "Utilisateur", err)
	}
	return r.GetByID(ctx, id.String())
}

func (r *UserRepository) Update(ctx context.Context, u *models.User) error {
	uid, err := gocql.ParseUUID(u.ID)
	if err != nil {
		return apperr.NotFound("Utilisateur")
	}
	err = r.session.Query(stmtUpdateUser,
		u.Name, u.Password, u.Role, u.Provider, u.ProviderID, u.UpdatedAt, uid,
	).WithContext(ctx).Exec()
	return translate("users.update", "Utilisateur", err)
}

// TokenBlocklist s'appuie sur le TTL Scylla : une entrée disparaît quand
// le token qu'elle révoque aurait de toute façon expiré.
type TokenBlocklist struct {
	session *gocql.Session
}

func NewTokenBlocklist(session *gocql.Session) *TokenBlocklist {
	return &TokenBlocklist{session: session}
}

func (b *TokenBlocklist) Revoke(ctx context.Context, jti, userID string, ttl time.Duration) error {
	seconds := int(ttl.Seconds())
	if seconds <= 0 {
		return nil
	}
	err := b.session.Query(stmtRevokeToken, jti, userID, time.Now().UTC(), seconds).WithContext(ctx).Exec()
	return translate("tokens.revoke", "Token", err)
}

func (b *TokenBlocklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var found string
	err := b.session.Query(stmtTokenRevoked, jti).WithContext(ctx).Scan(&found)
	if err == gocql.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, translate("tokens.check", "Token", err)
	}
	return true, nil
}
