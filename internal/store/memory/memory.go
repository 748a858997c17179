// Package memory implementa los repositorios del dominio en memoria, detrás
// de los mismos contratos que el driver postgres. Pensado para tests y para
// correr el servicio sin base de datos (dev).
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/damnyan/caxur/internal/domain/repository"
	"github.com/google/uuid"
)

// Store guarda todo en mapas protegidos por un mutex. La rotación usa el
// mismo "delete condicional" que postgres: bajo el lock, el primer Rotate
// consume el registro y el segundo ya no lo encuentra.
type Store struct {
	mu sync.Mutex

	principals     map[string]*repository.Principal // por ID
	roles          map[string]*repository.Role      // por ID
	assignments    map[string]map[string]time.Time  // principalID -> roleID -> assigned_at
	refreshByHash  map[string]*repository.RefreshToken
	refreshIndexID map[string]string // recordID -> hash
}

// New crea un Store vacío.
func New() *Store {
	return &Store{
		principals:     make(map[string]*repository.Principal),
		roles:          make(map[string]*repository.Role),
		assignments:    make(map[string]map[string]time.Time),
		refreshByHash:  make(map[string]*repository.RefreshToken),
		refreshIndexID: make(map[string]string),
	}
}

var (
	_ repository.PrincipalRepository    = (*Store)(nil)
	_ repository.RoleRepository         = (*Store)(nil)
	_ repository.RefreshTokenRepository = (*Store)(nil)
)

// ───────────────────────── principals ─────────────────────────

// SeedPrincipal inserta un principal (para tests y bootstrap dev).
func (s *Store) SeedPrincipal(p repository.Principal) *repository.Principal {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	cp := p
	s.principals[p.ID] = &cp
	return &cp
}

func (s *Store) GetByIdentifier(ctx context.Context, principalType, identifier string) (*repository.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.principals {
		if p.Type == principalType && p.Identifier == identifier {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) GetByID(ctx context.Context, id string) (*repository.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.principals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *Store) UpdateCredentialHash(ctx context.Context, id, newHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.principals[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.CredentialHash = newHash
	return nil
}

// ───────────────────────── roles / rbac ─────────────────────────

// SeedRole inserta un rol.
func (s *Store) SeedRole(r repository.Role) *repository.Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	cp := r
	s.roles[r.ID] = &cp
	return &cp
}

func (s *Store) GetPrincipalRoles(ctx context.Context, principalID string) ([]repository.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []repository.Role
	for roleID := range s.assignments[principalID] {
		if r, ok := s.roles[roleID]; ok {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *Store) GetPrincipalPermissions(ctx context.Context, principalID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for roleID := range s.assignments[principalID] {
		if r, ok := s.roles[roleID]; ok {
			out = append(out, r.Permissions...)
		}
	}
	return out, nil
}

func (s *Store) AssignRole(ctx context.Context, principalID, roleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[roleID]; !ok {
		return repository.ErrNotFound
	}
	m, ok := s.assignments[principalID]
	if !ok {
		m = make(map[string]time.Time)
		s.assignments[principalID] = m
	}
	if _, dup := m[roleID]; dup {
		return repository.ErrConflict
	}
	m[roleID] = time.Now().UTC()
	return nil
}

func (s *Store) RemoveRole(ctx context.Context, principalID, roleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.assignments[principalID], roleID)
	return nil
}

func (s *Store) GetRole(ctx context.Context, name, scope string, groupID *string) (*repository.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.roles {
		if r.Name != name || r.Scope != scope {
			continue
		}
		if (r.GroupID == nil) != (groupID == nil) {
			continue
		}
		if groupID != nil && *r.GroupID != *groupID {
			continue
		}
		cp := *r
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

// ───────────────────────── refresh tokens ─────────────────────────

func (s *Store) Create(ctx context.Context, input repository.CreateRefreshTokenInput) (*repository.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked(input)
}

// createLocked asume el mutex tomado.
func (s *Store) createLocked(input repository.CreateRefreshTokenInput) (*repository.RefreshToken, error) {
	if input.TokenHash == "" || input.PrincipalID == "" {
		return nil, repository.ErrInvalidInput
	}
	if _, dup := s.refreshByHash[input.TokenHash]; dup {
		return nil, repository.ErrConflict
	}
	now := time.Now().UTC()
	rec := &repository.RefreshToken{
		ID:            uuid.NewString(),
		PrincipalID:   input.PrincipalID,
		PrincipalType: input.PrincipalType,
		TokenHash:     input.TokenHash,
		ExpiresAt:     now.Add(input.TTL),
		CreatedAt:     now,
	}
	s.refreshByHash[rec.TokenHash] = rec
	s.refreshIndexID[rec.ID] = rec.TokenHash
	cp := *rec
	return &cp, nil
}

func (s *Store) ConsumeByHash(ctx context.Context, tokenHash string) (*repository.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.consumeLocked(tokenHash)
}

// consumeLocked asume el mutex tomado.
func (s *Store) consumeLocked(tokenHash string) (*repository.RefreshToken, error) {
	rec, ok := s.refreshByHash[tokenHash]
	if !ok {
		return nil, repository.ErrNotFound
	}
	delete(s.refreshByHash, tokenHash)
	delete(s.refreshIndexID, rec.ID)
	if time.Now().After(rec.ExpiresAt) {
		// El registro vencido se borra igual, pero no es válido.
		return nil, repository.ErrTokenExpired
	}
	cp := *rec
	return &cp, nil
}

func (s *Store) Rotate(ctx context.Context, presentedHash, replacementHash string, ttl time.Duration) (*repository.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	consumed, err := s.consumeLocked(presentedHash)
	if err != nil {
		return nil, err
	}
	return s.createLocked(repository.CreateRefreshTokenInput{
		PrincipalID:   consumed.PrincipalID,
		PrincipalType: consumed.PrincipalType,
		TokenHash:     replacementHash,
		TTL:           ttl,
	})
}

func (s *Store) Revoke(ctx context.Context, tokenID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if hash, ok := s.refreshIndexID[tokenID]; ok {
		delete(s.refreshByHash, hash)
		delete(s.refreshIndexID, tokenID)
	}
	return nil
}

func (s *Store) RevokeAllByPrincipal(ctx context.Context, principalID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for hash, rec := range s.refreshByHash {
		if rec.PrincipalID == principalID {
			delete(s.refreshByHash, hash)
			delete(s.refreshIndexID, rec.ID)
			n++
		}
	}
	return n, nil
}

func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	var n int64
	for hash, rec := range s.refreshByHash {
		if now.After(rec.ExpiresAt) {
			delete(s.refreshByHash, hash)
			delete(s.refreshIndexID, rec.ID)
			n++
		}
	}
	return n, nil
}
