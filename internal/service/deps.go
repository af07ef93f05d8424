package service

import (
	"context"
	"io"

	"go.uber.org/zap"

	"ats-pipeline/internal/domain"
)

// Notifier 通知发送（生产端一般是消息队列）
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}

// AnalysisQueue 简历异步分析任务
type AnalysisQueue interface {
	EnqueueAnalysis(ctx context.Context, attachmentID string) error
}

// Extractor 从简历文件抽取结构化资料
type Extractor interface {
	ExtractProfile(ctx context.Context, fileName string, data []byte) (*domain.CandidateProfile, error)
}

// FileStore 附件存储
type FileStore interface {
	Save(ctx context.Context, key string, r io.Reader) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
}

// Calendar 面试日程
type Calendar interface {
	CreateEvent(ctx context.Context, iv domain.Interview) (domain.CalendarResult, error)
}

// Actor 当前操作人（来自 JWT）
type Actor struct {
	ID    string
	Email string
	Role  domain.Role
}

func (a Actor) idPtr() *string {
	if a.ID == "" {
		return nil
	}
	id := a.ID
	return &id
}

// effects 尽力而为的副作用：失败只记日志
type effects struct {
	notifier Notifier
	log      *zap.Logger
}

func (e effects) notify(ctx context.Context, n domain.Notification) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.Notify(ctx, n); err != nil {
		bestEffortFailures.WithLabelValues("notify").Inc()
		e.log.Warn("notification failed",
			zap.String("kind", string(n.Kind)),
			zap.String("candidate_id", n.CandidateID),
			zap.Error(err))
	}
}
