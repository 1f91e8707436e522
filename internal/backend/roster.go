package backend

import (
	"errors"
	"fmt"
	"sync"

	"github.com/peregrine-ai/peregrine/internal/domain"
)

// Roster implements domain.BackendRoster: the role-keyed binding of backends
// assembled at startup.
type Roster struct {
	mu     sync.RWMutex
	byRole map[domain.Role]domain.Backend
}

// NewRoster creates an empty roster.
func NewRoster() *Roster {
	return &Roster{
		byRole: make(map[domain.Role]domain.Backend),
	}
}

// Assign binds a backend to a role, replacing any previous binding.
func (r *Roster) Assign(role domain.Role, backend domain.Backend) error {
	if backend == nil {
		return errors.New("backend cannot be nil")
	}
	if backend.Name() == "" {
		return errors.New("backend name cannot be empty")
	}
	switch role {
	case domain.RoleGeneration, domain.RoleValidation, domain.RoleSupervision:
	default:
		return fmt.Errorf("unknown role: %s", role)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.byRole[role] = backend
	return nil
}

// ForRole retrieves the backend bound to a role.
func (r *Roster) ForRole(role domain.Role) (domain.Backend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	backend, exists := r.byRole[role]
	if !exists {
		return nil, fmt.Errorf("no backend assigned to role %s", role)
	}
	return backend, nil
}

// Roles returns the bound roles in pipeline order.
func (r *Roster) Roles() []domain.Role {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var roles []domain.Role
	for _, role := range domain.AllRoles() {
		if _, ok := r.byRole[role]; ok {
			roles = append(roles, role)
		}
	}
	return roles
}

// Backends returns each distinct bound backend once, in pipeline order of
// first appearance.
func (r *Roster) Backends() []domain.Backend {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool, len(r.byRole))
	var backends []domain.Backend
	for _, role := range domain.AllRoles() {
		backend, ok := r.byRole[role]
		if !ok || seen[backend.Name()] {
			continue
		}
		seen[backend.Name()] = true
		backends = append(backends, backend)
	}
	return backends
}
