package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"ats-pipeline/internal/domain"
	"ats-pipeline/internal/feature/user"
	"ats-pipeline/pkg/utils"
)

type UserService struct {
	store     domain.Store
	seedEmail string
	log       *zap.Logger
}

// NewUserService seedEmail 为种子管理员，不允许删除
func NewUserService(store domain.Store, seedEmail string, log *zap.Logger) *UserService {
	return &UserService{store: store, seedEmail: strings.ToLower(strings.TrimSpace(seedEmail)), log: log}
}

type CreateUserInput struct {
	Email       string      `json:"email"`
	Name        string      `json:"name"`
	Password    string      `json:"password"`
	Role        domain.Role `json:"role"`
	Permissions []string    `json:"permissions"`
}

func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, domain.Invalid("email", "a valid email is required")
	}
	if !utils.PasswordLongEnough(in.Password) {
		return nil, domain.Invalid("password", "password must have at least 8 characters")
	}
	if in.Role == "" {
		in.Role = domain.RoleInterviewer
	}
	perms, err := s.permissions(in.Role, in.Permissions)
	if err != nil {
		return nil, err
	}
	existing, err := s.store.Users().FindByEmail(ctx, email)
	if err != nil {
		return nil, domain.Persist("find user", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("user %s: %w", email, domain.ErrConflict)
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, domain.Invalid("password", err.Error())
	}
	u := &domain.User{
		ID:           utils.NewID(),
		Email:        email,
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: hash,
		Role:         in.Role,
		Permissions:  perms,
	}
	if err := s.store.Users().Create(ctx, u); err != nil {
		return nil, domain.Persist("create user", err)
	}
	return u, nil
}

// Authenticate 不区分“用户不存在”和“密码错误”
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	u, err := s.store.Users().FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, domain.Persist("find user", err)
	}
	if u == nil || !utils.CheckPassword(password, u.PasswordHash) {
		return nil, domain.ErrUnauthenticated
	}
	return u, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.store.Users().FindByID(ctx, id)
	if err != nil {
		return nil, domain.Persist("load user", err)
	}
	if u == nil {
		return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	return u, nil
}

func (s *UserService) List(ctx context.Context, offset, limit int) ([]domain.User, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	items, total, err := s.store.Users().List(ctx, offset, limit)
	if err != nil {
		return nil, 0, domain.Persist("list users", err)
	}
	return items, total, nil
}

type UpdateAccessInput struct {
	Name        *string      `json:"name"`
	Role        *domain.Role `json:"role"`
	Permissions []string     `json:"permissions"`
}

// UpdateAccess 改角色时若未显式给权限，按新角色的默认权限重置
func (s *UserService) UpdateAccess(ctx context.Context, id string, in UpdateAccessInput) (*domain.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		u.Name = strings.TrimSpace(*in.Name)
	}
	role := u.Role
	if in.Role != nil {
		role = *in.Role
	}
	if in.Role != nil || in.Permissions != nil {
		perms, err := s.permissions(role, in.Permissions)
		if err != nil {
			return nil, err
		}
		if s.isSeed(u) && (role != domain.RoleAdminHR || !contains(perms, domain.PermManageUsers)) {
			return nil, fmt.Errorf("seed admin must keep user management: %w", domain.ErrForbidden)
		}
		u.Role, u.Permissions = role, perms
	}
	if err := s.store.Users().Update(ctx, u); err != nil {
		return nil, domain.Persist("update user", err)
	}
	return u, nil
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	u, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if s.isSeed(u) {
		return fmt.Errorf("seed admin cannot be deleted: %w", domain.ErrForbidden)
	}
	if err := s.store.Users().Delete(ctx, id); err != nil {
		return domain.Persist("delete user", err)
	}
	return nil
}

// EnsureSeedAdmin 启动时保证种子管理员存在
func (s *UserService) EnsureSeedAdmin(ctx context.Context, password string) error {
	if s.seedEmail == "" {
		return nil
	}
	u, err := s.store.Users().FindByEmail(ctx, s.seedEmail)
	if err != nil {
		return domain.Persist("find seed admin", err)
	}
	if u != nil {
		return nil
	}
	_, err = s.Create(ctx, CreateUserInput{Email: s.seedEmail, Name: "Admin", Password: password, Role: domain.RoleAdminHR})
	if errors.Is(err, domain.ErrConflict) {
		return nil
	}
	if err == nil {
		s.log.Info("seed admin created", zap.String("email", s.seedEmail))
	}
	return err
}

func (s *UserService) permissions(role domain.Role, perms []string) ([]string, error) {
	if !user.ValidRole(role) {
		return nil, domain.Invalid("role", "unknown role "+string(role))
	}
	if perms == nil {
		return user.DefaultPermissions(role), nil
	}
	out, bad := user.NormalizePermissions(perms)
	if bad != "" {
		return nil, domain.Invalid("permissions", "unknown permission "+bad)
	}
	return out, nil
}

func (s *UserService) isSeed(u *domain.User) bool {
	return s.seedEmail != "" && strings.EqualFold(u.Email, s.seedEmail)
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
