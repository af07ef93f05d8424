package notify

import (
	"context"

	"go.uber.org/zap"

	"ats-pipeline/internal/core/mq"
	"ats-pipeline/internal/domain"
)

// Publisher 消息队列发布端（mq.Client 满足）
type Publisher interface {
	Publish(ctx context.Context, queue string, v any) error
}

// AnalysisJob 简历分析任务
type AnalysisJob struct {
	AttachmentID string `json:"attachmentId"`
}

// Dispatcher 把通知和分析任务投递到队列，由 worker 处理
type Dispatcher struct {
	pub Publisher
}

func NewDispatcher(pub Publisher) *Dispatcher { return &Dispatcher{pub: pub} }

func (d *Dispatcher) Notify(ctx context.Context, n domain.Notification) error {
	return d.pub.Publish(ctx, mq.QueueNotifications, n)
}

func (d *Dispatcher) EnqueueAnalysis(ctx context.Context, attachmentID string) error {
	return d.pub.Publish(ctx, mq.QueueCVAnalysis, AnalysisJob{AttachmentID: attachmentID})
}

// LogNotifier 未配置队列时只记日志
type LogNotifier struct {
	Log *zap.Logger
}

func (l LogNotifier) Notify(_ context.Context, n domain.Notification) error {
	l.Log.Info("notification",
		zap.String("kind", string(n.Kind)),
		zap.Strings("to", n.To),
		zap.String("candidate", n.CandidateName),
		zap.String("application", n.ApplicationTitle),
		zap.String("stage", n.Stage))
	return nil
}
