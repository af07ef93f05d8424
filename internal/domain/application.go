package domain

import (
	"context"
	"time"
)

type ApplicationStatus string

const (
	ApplicationActive ApplicationStatus = "Active"
	ApplicationPaused ApplicationStatus = "Paused"
	ApplicationClosed ApplicationStatus = "Closed"
)

func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationActive, ApplicationPaused, ApplicationClosed:
		return true
	}
	return false
}

// Application 职位（招聘需求）
type Application struct {
	ID             string            `gorm:"primaryKey;size:36" json:"id"`
	Title          string            `gorm:"size:191;not null" json:"title"`
	Department     string            `gorm:"size:128" json:"department"`
	Location       string            `gorm:"size:128" json:"location"`
	EmploymentType string            `gorm:"size:64" json:"employmentType"`
	Status         ApplicationStatus `gorm:"size:16;index;default:Active" json:"status"`
	ResponsibleID  *string           `gorm:"size:36;index" json:"responsibleId"`
	Description    string            `gorm:"type:text" json:"description"`
	CreatedBy      string            `gorm:"size:36" json:"createdBy"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

func (Application) TableName() string { return "applications" }

type ApplicationFilter struct {
	Status ApplicationStatus
	Q      string
	Offset int
	Limit  int
}

type ApplicationRepository interface {
	Create(ctx context.Context, a *Application) error
	FindByID(ctx context.Context, id string) (*Application, error)
	List(ctx context.Context, f ApplicationFilter) ([]Application, int64, error)
	Update(ctx context.Context, a *Application) error
	Delete(ctx context.Context, id string) error
}
