package repo

import (
	"context"

	"gorm.io/gorm"

	"ats-pipeline/internal/domain"
)

// GormStore domain.Store 的 gorm 实现；能力位只在 NewStore 时探测一次
type GormStore struct {
	db   *gorm.DB
	caps domain.Capabilities
}

func NewStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db, caps: Probe(db)}
}

// NewStoreWithCaps 跳过探测（配置强制指定布局时用）
func NewStoreWithCaps(db *gorm.DB, caps domain.Capabilities) *GormStore {
	return &GormStore{db: db, caps: caps}
}

// Probe 检查可选表是否存在
func Probe(db *gorm.DB) domain.Capabilities {
	m := db.Migrator()
	return domain.Capabilities{
		Postulations:    m.HasTable(&domain.Postulation{}),
		TimelineLog:     m.HasTable(&domain.TimelineEvent{}),
		CandidateEvents: m.HasTable(&domain.CandidateEvent{}),
	}
}

func (s *GormStore) Users() domain.UserRepository               { return NewUserRepo(s.db) }
func (s *GormStore) Applications() domain.ApplicationRepository { return NewApplicationRepo(s.db) }
func (s *GormStore) Candidates() domain.CandidateRepository     { return NewCandidateRepo(s.db) }
func (s *GormStore) Postulations() domain.PostulationRepository { return NewPostulationRepo(s.db) }
func (s *GormStore) Evaluations() domain.EvaluationRepository   { return NewEvaluationRepo(s.db) }
func (s *GormStore) Attachments() domain.AttachmentRepository   { return NewAttachmentRepo(s.db) }
func (s *GormStore) Notes() domain.NoteRepository               { return NewNoteRepo(s.db) }
func (s *GormStore) Timeline() domain.TimelineRepository        { return NewTimelineRepo(s.db) }
func (s *GormStore) CandidateEvents() domain.CandidateEventRepository {
	return NewCandidateEventRepo(s.db)
}
func (s *GormStore) Capabilities() domain.Capabilities { return s.caps }

func (s *GormStore) Transaction(ctx context.Context, fn func(tx domain.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx, caps: s.caps})
	})
}

// Schema 迁移方案
type Schema string

const (
	SchemaLegacy      Schema = "legacy"
	SchemaPostulation Schema = "postulation"
)

// AutoMigrate legacy 方案不建 postulations 表；timeline 可单独关闭以走降级表
func AutoMigrate(db *gorm.DB, schema Schema, timeline bool) error {
	models := []any{
		&domain.User{}, &domain.Application{}, &domain.Candidate{},
		&domain.Evaluation{}, &domain.Attachment{}, &domain.Note{},
		&domain.CandidateEvent{},
	}
	if schema == SchemaPostulation {
		models = append(models, &domain.Postulation{})
	}
	if timeline {
		models = append(models, &domain.TimelineEvent{})
	}
	return db.AutoMigrate(models...)
}
