package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"ecommerce_back_end/internal/apperr"
	"ecommerce_back_end/internal/models"
)

type UserRepository struct {
	mu      sync.Mutex
	users   map[string]models.User
	byEmail map[string]string
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		users:   make(map[string]models.User),
		byEmail: make(map[string]string),
	}
}

func (r *UserRepository) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	email := strings.ToLower(u.Email)
	if _, taken := r.byEmail[email]; taken {
		return apperr.Conflict("Email déjà utilisé")
	}
	r.users[u.ID] = *u
	r.byEmail[email] = u.ID
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, apperr.NotFound("Utilisateur")
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, apperr.NotFound("Utilisateur")
	}
	u := r.users[id]
	return &u, nil
}

func (r *UserRepository) Update(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return apperr.NotFound("Utilisateur")
	}
	r.users[u.ID] = *u
	return nil
}

type TokenBlocklist struct {
	mu      sync.Mutex
	revoked map[string]time.Time // jti → expiration
}

func NewTokenBlocklist() *TokenBlocklist {
	return &TokenBlocklist{revoked: make(map[string]time.Time)}
}

func (b *TokenBlocklist) Revoke(_ context.Context, jti, _ string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.revoked[jti] = time.Now().Add(ttl)
	return nil
}

func (b *TokenBlocklist) IsRevoked(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	expires, ok := b.revoked[jti]
	if !ok {
		return false, nil
	}
	if time.Now().After(expires) {
		delete(b.revoked, jti)
		return false, nil
	}
	return true, nil
}
