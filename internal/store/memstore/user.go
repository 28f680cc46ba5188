package memstore

import (
	"context"

	"github.com/landreg/apiserver/internal/store"
	"github.com/landreg/apiserver/types"
)

type UserRepository struct {
	s *Store
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (types.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	user, ok := r.s.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, user := range r.s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *UserRepository) Exists(ctx context.Context, user types.User) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.userTaken(user), nil
}

func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.userTaken(user) {
		return types.User{}, store.ErrConflict
	}
	r.s.nextUser++
	now := r.s.now()
	user.ID = r.s.nextUser
	user.CreatedAt = now
	user.UpdatedAt = now
	r.s.users[user.ID] = user
	return user, nil
}

func (s *Store) userTaken(user types.User) bool {
	for _, existing := range s.users {
		switch {
		case existing.Name == user.Name,
			existing.Username == user.Username,
			existing.Email == user.Email,
			user.AadhaarNumber != "" && existing.AadhaarNumber == user.AadhaarNumber,
			user.PanNumber != "" && existing.PanNumber == user.PanNumber:
			return true
		}
	}
	return false
}

type GovtEmployeeRepository struct {
	s *Store
}

func (r *GovtEmployeeRepository) GetByID(ctx context.Context, id int64) (types.GovtEmployee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	emp, ok := r.s.govt[id]
	if !ok {
		return types.GovtEmployee{}, store.ErrNotFound
	}
	return emp, nil
}

func (r *GovtEmployeeRepository) GetByEmail(ctx context.Context, email string) (types.GovtEmployee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, emp := range r.s.govt {
		if emp.Email == email {
			return emp, nil
		}
	}
	return types.GovtEmployee{}, store.ErrNotFound
}

func (r *GovtEmployeeRepository) Exists(ctx context.Context, empID, email string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.govtTaken(empID, email), nil
}

func (r *GovtEmployeeRepository) Create(ctx context.Context, emp types.GovtEmployee) (types.GovtEmployee, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.govtTaken(emp.EmpID, emp.Email) {
		return types.GovtEmployee{}, store.ErrConflict
	}
	r.s.nextGovt++
	emp.ID = r.s.nextGovt
	emp.Role = types.RoleGovernment
	emp.CreatedAt = r.s.now()
	r.s.govt[emp.ID] = emp
	return emp, nil
}

func (s *Store) govtTaken(empID, email string) bool {
	for _, existing := range s.govt {
		if existing.EmpID == empID || existing.Email == email {
			return true
		}
	}
	return false
}
