package domain

import (
	"context"
	"time"

	"gorm.io/datatypes"
)

type Role string

const (
	RoleAdminHR     Role = "AdminHR"
	RoleInterviewer Role = "Interviewer"
)

// 权限字符串（写接口按权限放行）
const (
	PermCreateApplications = "create_applications"
	PermEditApplications   = "edit_applications"
	PermDeleteApplications = "delete_applications"
	PermCreateCandidates   = "create_candidates"
	PermEditCandidates     = "edit_candidates"
	PermDeleteCandidates   = "delete_candidates"
	PermMoveCandidates     = "move_candidates"
	PermManageUsers        = "manage_users"
)

var AllPermissions = []string{
	PermCreateApplications, PermEditApplications, PermDeleteApplications,
	PermCreateCandidates, PermEditCandidates, PermDeleteCandidates,
	PermMoveCandidates, PermManageUsers,
}

type User struct {
	ID           string                      `gorm:"primaryKey;size:36" json:"id"`
	Email        string                      `gorm:"uniqueIndex;size:191" json:"email"`
	Name         string                      `gorm:"size:64" json:"name"`
	PasswordHash string                      `gorm:"size:191" json:"-"`
	Role         Role                        `gorm:"size:16" json:"role"`
	Permissions  datatypes.JSONSlice[string] `json:"permissions"`
	CreatedAt    time.Time                   `json:"createdAt"`
	UpdatedAt    time.Time                   `json:"updatedAt"`
}

func (User) TableName() string { return "users" }

func (u *User) Can(perm string) bool {
	if u == nil {
		return false
	}
	for _, p := range u.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, offset, limit int) ([]User, int64, error)
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id string) error
}
