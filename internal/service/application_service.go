package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"ats-pipeline/internal/core/cache"
	"ats-pipeline/internal/domain"
	"ats-pipeline/pkg/utils"
)

const appCacheTTL = 5 * time.Minute

// PipelineWriter 导出候选人管道（xlsx）
type PipelineWriter interface {
	WritePipeline(w io.Writer, app *domain.Application, views []domain.CandidateView) error
}

type ApplicationService struct {
	store    domain.Store
	resolver *Resolver
	cache    cache.Loader
	export   PipelineWriter
	log      *zap.Logger
}

func NewApplicationService(store domain.Store, resolver *Resolver, c cache.Loader, export PipelineWriter, log *zap.Logger) *ApplicationService {
	if c == nil {
		c = cache.Nop{}
	}
	return &ApplicationService{store: store, resolver: resolver, cache: c, export: export, log: log}
}

type ApplicationInput struct {
	Title          string                   `json:"title"`
	Department     string                   `json:"department"`
	Location       string                   `json:"location"`
	EmploymentType string                   `json:"employmentType"`
	Status         domain.ApplicationStatus `json:"status"`
	ResponsibleID  *string                  `json:"responsibleId"`
	Description    string                   `json:"description"`
}

func (in ApplicationInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return domain.Invalid("title", "title is required")
	}
	if in.Status != "" && !in.Status.Valid() {
		return domain.Invalid("status", "unknown status "+string(in.Status))
	}
	if in.ResponsibleID != nil && *in.ResponsibleID != "" && !utils.IsID(*in.ResponsibleID) {
		return domain.Invalid("responsibleId", "invalid user id")
	}
	return nil
}

func (s *ApplicationService) Create(ctx context.Context, actor Actor, in ApplicationInput) (*domain.Application, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	a := &domain.Application{
		ID:             utils.NewID(),
		Title:          strings.TrimSpace(in.Title),
		Department:     in.Department,
		Location:       in.Location,
		EmploymentType: in.EmploymentType,
		Status:         in.Status,
		ResponsibleID:  nonEmpty(in.ResponsibleID),
		Description:    in.Description,
		CreatedBy:      actor.ID,
	}
	if a.Status == "" {
		a.Status = domain.ApplicationActive
	}
	if err := s.store.Applications().Create(ctx, a); err != nil {
		return nil, domain.Persist("create application", err)
	}
	return a, nil
}

// Get 读穿 Redis
func (s *ApplicationService) Get(ctx context.Context, id string) (*domain.Application, error) {
	return cache.GetOrLoadJSON(ctx, s.cache, appKey(id), appCacheTTL, func(ctx context.Context) (*domain.Application, error) {
		a, err := s.store.Applications().FindByID(ctx, id)
		if err != nil {
			return nil, domain.Persist("load application", err)
		}
		if a == nil {
			return nil, fmt.Errorf("application %s: %w", id, domain.ErrNotFound)
		}
		return a, nil
	})
}

func (s *ApplicationService) List(ctx context.Context, f domain.ApplicationFilter) ([]domain.Application, int64, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, domain.Invalid("status", "unknown status "+string(f.Status))
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	items, total, err := s.store.Applications().List(ctx, f)
	if err != nil {
		return nil, 0, domain.Persist("list applications", err)
	}
	return items, total, nil
}

func (s *ApplicationService) Update(ctx context.Context, id string, in ApplicationInput) (*domain.Application, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	a.Title = strings.TrimSpace(in.Title)
	a.Department = in.Department
	a.Location = in.Location
	a.EmploymentType = in.EmploymentType
	a.ResponsibleID = nonEmpty(in.ResponsibleID)
	a.Description = in.Description
	if in.Status != "" {
		a.Status = in.Status
	}
	return a, s.save(ctx, a)
}

func (s *ApplicationService) SetStatus(ctx context.Context, id string, st domain.ApplicationStatus) (*domain.Application, error) {
	if !st.Valid() {
		return nil, domain.Invalid("status", "unknown status "+string(st))
	}
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	a.Status = st
	return a, s.save(ctx, a)
}

// Delete 仍有候选人引用时拒绝
func (s *ApplicationService) Delete(ctx context.Context, id string) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	n, err := s.store.Candidates().CountByApplication(ctx, id)
	if err != nil {
		return domain.Persist("count candidates", err)
	}
	if s.store.Capabilities().Postulations {
		m, err := s.store.Postulations().CountByApplication(ctx, id)
		if err != nil && !errors.Is(err, domain.ErrUnavailable) {
			return domain.Persist("count postulations", err)
		}
		n += m
	}
	if n > 0 {
		return fmt.Errorf("application %s still has %d candidates: %w", id, n, domain.ErrConflict)
	}
	if err := s.store.Applications().Delete(ctx, id); err != nil {
		return domain.Persist("delete application", err)
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *ApplicationService) Candidates(ctx context.Context, id string) ([]domain.CandidateView, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.resolver.ListCandidatesForApplication(ctx, id)
}

// Export 写 xlsx 到 w
func (s *ApplicationService) Export(ctx context.Context, id string, w io.Writer) error {
	if s.export == nil {
		return fmt.Errorf("export: %w", domain.ErrUnsupported)
	}
	a, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	views, err := s.resolver.ListCandidatesForApplication(ctx, id)
	if err != nil {
		return err
	}
	return s.export.WritePipeline(w, a, views)
}

func (s *ApplicationService) load(ctx context.Context, id string) (*domain.Application, error) {
	a, err := s.store.Applications().FindByID(ctx, id)
	if err != nil {
		return nil, domain.Persist("load application", err)
	}
	if a == nil {
		return nil, fmt.Errorf("application %s: %w", id, domain.ErrNotFound)
	}
	return a, nil
}

func (s *ApplicationService) save(ctx context.Context, a *domain.Application) error {
	if err := s.store.Applications().Update(ctx, a); err != nil {
		return domain.Persist("update application", err)
	}
	s.invalidate(ctx, a.ID)
	return nil
}

func (s *ApplicationService) invalidate(ctx context.Context, id string) {
	if err := s.cache.Del(ctx, appKey(id)); err != nil {
		s.log.Warn("cache invalidate", zap.String("key", appKey(id)), zap.Error(err))
	}
}

func appKey(id string) string { return cache.Key("app", id) }

func nonEmpty(p *string) *string {
	if p == nil || strings.TrimSpace(*p) == "" {
		return nil
	}
	v := strings.TrimSpace(*p)
	return &v
}
