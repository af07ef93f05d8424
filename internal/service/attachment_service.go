package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"ats-pipeline/internal/domain"
	"ats-pipeline/pkg/utils"
)

const maxAnalysisBytes = 10 << 20

type AttachmentService struct {
	store     domain.Store
	recorder  *Recorder
	files     FileStore
	queue     AnalysisQueue
	extractor Extractor
	log       *zap.Logger
}

func NewAttachmentService(store domain.Store, recorder *Recorder, files FileStore, queue AnalysisQueue, extractor Extractor, log *zap.Logger) *AttachmentService {
	return &AttachmentService{store: store, recorder: recorder, files: files, queue: queue, extractor: extractor, log: log}
}

type UploadInput struct {
	CandidateID string
	FileName    string
	MimeType    string
	Description string
	Analyze     bool
	Body        io.Reader
}

func (s *AttachmentService) Upload(ctx context.Context, actor Actor, in UploadInput) (*domain.Attachment, error) {
	if s.files == nil {
		return nil, fmt.Errorf("attachments: %w", domain.ErrUnsupported)
	}
	name := cleanFileName(in.FileName)
	if name == "" {
		return nil, domain.Invalid("file", "file name is required")
	}
	c, err := s.store.Candidates().FindByID(ctx, in.CandidateID)
	if err != nil {
		return nil, domain.Persist("load candidate", err)
	}
	if c == nil {
		return nil, fmt.Errorf("candidate %s: %w", in.CandidateID, domain.ErrNotFound)
	}

	a := &domain.Attachment{
		ID:             utils.NewID(),
		CandidateID:    c.ID,
		FileName:       name,
		MimeType:       in.MimeType,
		Description:    in.Description,
		UploadedBy:     actor.ID,
		AnalysisStatus: domain.AnalysisNone,
		CreatedAt:      time.Now(),
	}
	a.StoragePath = path.Join(c.ID, a.ID+"-"+name)
	if a.Size, err = s.files.Save(ctx, a.StoragePath, in.Body); err != nil {
		return nil, fmt.Errorf("store file: %w", err)
	}
	if in.Analyze && s.queue != nil {
		a.AnalysisStatus = domain.AnalysisPending
	}
	if err := s.store.Attachments().Create(ctx, a); err != nil {
		if rmErr := s.files.Remove(ctx, a.StoragePath); rmErr != nil {
			s.log.Warn("remove orphan file", zap.String("path", a.StoragePath), zap.Error(rmErr))
		}
		return nil, domain.Persist("create attachment", err)
	}

	s.recorder.Record(ctx, domain.TimelineEvent{
		EntityID:    c.ID,
		Action:      domain.ActionAttachmentCreated,
		Description: "Archivo adjunto: " + name,
		ActorID:     actor.idPtr(),
		ActorEmail:  actor.Email,
		Metadata:    datatypes.JSONMap{"attachment_id": a.ID, "size": a.Size},
	})
	if a.AnalysisStatus == domain.AnalysisPending {
		s.enqueue(ctx, a)
	}
	return a, nil
}

func (s *AttachmentService) List(ctx context.Context, candidateID string) ([]domain.Attachment, error) {
	out, err := s.store.Attachments().ListByCandidate(ctx, candidateID)
	return out, domain.Persist("list attachments", err)
}

func (s *AttachmentService) Get(ctx context.Context, id string) (*domain.Attachment, error) {
	a, err := s.store.Attachments().FindByID(ctx, id)
	if err != nil {
		return nil, domain.Persist("load attachment", err)
	}
	if a == nil {
		return nil, fmt.Errorf("attachment %s: %w", id, domain.ErrNotFound)
	}
	return a, nil
}

// Open 下载；调用方负责 Close
func (s *AttachmentService) Open(ctx context.Context, id string) (*domain.Attachment, io.ReadCloser, error) {
	if s.files == nil {
		return nil, nil, fmt.Errorf("attachments: %w", domain.ErrUnsupported)
	}
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.files.Open(ctx, a.StoragePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", a.StoragePath, err)
	}
	return a, rc, nil
}

// Delete 先删存储对象再删元数据
func (s *AttachmentService) Delete(ctx context.Context, actor Actor, id string) error {
	a, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if s.files != nil {
		if err := s.files.Remove(ctx, a.StoragePath); err != nil {
			return fmt.Errorf("remove file: %w", err)
		}
	}
	if err := s.store.Attachments().Delete(ctx, a.ID); err != nil {
		return domain.Persist("delete attachment", err)
	}
	s.recorder.Record(ctx, domain.TimelineEvent{
		EntityID:    a.CandidateID,
		Action:      domain.ActionAttachmentDeleted,
		Description: "Archivo eliminado: " + a.FileName,
		ActorID:     actor.idPtr(),
		ActorEmail:  actor.Email,
		Metadata:    datatypes.JSONMap{"attachment_id": a.ID},
	})
	return nil
}

// Analyze 重新入队分析
func (s *AttachmentService) Analyze(ctx context.Context, id string) (*domain.Attachment, error) {
	if s.queue == nil {
		return nil, fmt.Errorf("cv analysis: %w", domain.ErrUnsupported)
	}
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.store.Attachments().UpdateAnalysis(ctx, a.ID, domain.AnalysisPending, nil); err != nil {
		return nil, domain.Persist("update analysis", err)
	}
	a.AnalysisStatus = domain.AnalysisPending
	s.enqueue(ctx, a)
	return a, nil
}

func (s *AttachmentService) enqueue(ctx context.Context, a *domain.Attachment) {
	if err := s.queue.EnqueueAnalysis(ctx, a.ID); err != nil {
		bestEffortFailures.WithLabelValues("analysis_queue").Inc()
		s.log.Warn("enqueue cv analysis", zap.String("attachment_id", a.ID), zap.Error(err))
	}
}

// ProcessAnalysis worker 消费分析任务；结果写回附件
func (s *AttachmentService) ProcessAnalysis(ctx context.Context, id string) error {
	if s.extractor == nil || s.files == nil {
		return fmt.Errorf("cv analysis: %w", domain.ErrUnsupported)
	}
	a, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	profile, err := s.analyze(ctx, a)
	if err != nil {
		s.log.Warn("cv analysis failed", zap.String("attachment_id", id), zap.Error(err))
		if uerr := s.store.Attachments().UpdateAnalysis(ctx, id, domain.AnalysisFailed, nil); uerr != nil {
			return domain.Persist("update analysis", uerr)
		}
		return nil
	}
	b, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	if err := s.store.Attachments().UpdateAnalysis(ctx, id, domain.AnalysisDone, datatypes.JSON(b)); err != nil {
		return domain.Persist("update analysis", err)
	}
	s.recorder.Record(ctx, domain.TimelineEvent{
		EntityID:    a.CandidateID,
		Action:      domain.ActionAttachmentUpdated,
		Description: "Análisis de CV completado: " + a.FileName,
		Metadata:    datatypes.JSONMap{"attachment_id": a.ID, "score": profile.Score},
	})
	return nil
}

func (s *AttachmentService) analyze(ctx context.Context, a *domain.Attachment) (*domain.CandidateProfile, error) {
	rc, err := s.files.Open(ctx, a.StoragePath)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, maxAnalysisBytes))
	if err != nil {
		return nil, err
	}
	return s.extractor.ExtractProfile(ctx, a.FileName, data)
}

func cleanFileName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(strings.TrimSpace(name))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}
