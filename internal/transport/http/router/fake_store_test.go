package router

import (
	"context"
	"sync"

	"ats-pipeline/internal/domain"
)

// fakeStore 只实现路由测试用到的仓储
type fakeStore struct {
	domain.Store
	users *userRepo
	apps  *appRepo
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users: &userRepo{m: map[string]domain.User{}},
		apps:  &appRepo{m: map[string]domain.Application{}},
	}
}

func (s *fakeStore) Users() domain.UserRepository               { return s.users }
func (s *fakeStore) Applications() domain.ApplicationRepository { return s.apps }
func (s *fakeStore) Capabilities() domain.Capabilities          { return domain.Capabilities{} }
func (s *fakeStore) Transaction(_ context.Context, fn func(domain.Store) error) error {
	return fn(s)
}

type userRepo struct {
	mu    sync.Mutex
	m     map[string]domain.User
	order []string
}

func (r *userRepo) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.m {
		if x.Email == u.Email {
			return domain.ErrConflict
		}
	}
	r.m[u.ID] = *u
	r.order = append(r.order, u.ID)
	return nil
}

func (r *userRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.m[id]; ok {
		return &u, nil
	}
	return nil, nil
}

func (r *userRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.m {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *userRepo) List(_ context.Context, offset, limit int) ([]domain.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.User
	for i, id := range r.order {
		if u, ok := r.m[id]; ok && i >= offset && len(out) < limit {
			out = append(out, u)
		}
	}
	return out, int64(len(r.m)), nil
}

func (r *userRepo) Update(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[u.ID] = *u
	return nil
}

func (r *userRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.m[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.m, id)
	return nil
}

type appRepo struct {
	mu sync.Mutex
	m  map[string]domain.Application
}

func (r *appRepo) Create(_ context.Context, a *domain.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[a.ID] = *a
	return nil
}

func (r *appRepo) FindByID(_ context.Context, id string) (*domain.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.m[id]; ok {
		return &a, nil
	}
	return nil, nil
}

func (r *appRepo) List(_ context.Context, _ domain.ApplicationFilter) ([]domain.Application, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Application, 0, len(r.m))
	for _, a := range r.m {
		out = append(out, a)
	}
	return out, int64(len(out)), nil
}

func (r *appRepo) Update(_ context.Context, a *domain.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[a.ID] = *a
	return nil
}

func (r *appRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.m, id)
	return nil
}
