package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"ats-pipeline/internal/domain"
)

// Mailer 邮件发送端
type Mailer interface {
	Send(ctx context.Context, to []string, subject, body string) error
}

// Render 各类通知的标题和正文
func Render(n domain.Notification) (subject, body string, err error) {
	var b strings.Builder
	switch n.Kind {
	case domain.NotifyNewProcess:
		subject = fmt.Sprintf("Nuevo candidato en %s", n.ApplicationTitle)
		fmt.Fprintf(&b, "%s (%s) se ha incorporado al proceso %s.\n", n.CandidateName, n.CandidateEmail, n.ApplicationTitle)
		if n.Stage != "" {
			fmt.Fprintf(&b, "Etapa inicial: %s\n", n.Stage)
		}
	case domain.NotifyNextInterview:
		subject = fmt.Sprintf("Próxima entrevista: %s", n.CandidateName)
		fmt.Fprintf(&b, "Se te ha asignado la entrevista de %s para %s.\n", n.CandidateName, n.ApplicationTitle)
		fmt.Fprintf(&b, "Etapa: %s\n", n.Stage)
		fmt.Fprintf(&b, "Contacto del candidato: %s\n", n.CandidateEmail)
	case domain.NotifyStageChanged:
		subject = fmt.Sprintf("%s: %s", n.CandidateName, n.Stage)
		fmt.Fprintf(&b, "%s ha pasado de %s a %s en %s.\n", n.CandidateName, orDash(n.PreviousStage), n.Stage, n.ApplicationTitle)
	default:
		return "", "", fmt.Errorf("unknown notification kind %q", n.Kind)
	}
	return subject, b.String(), nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// MailHandler worker 端：消费通知并发邮件
type MailHandler struct {
	Mailer Mailer
	Log    *zap.Logger
}

func (h MailHandler) Handle(ctx context.Context, body []byte) error {
	var n domain.Notification
	if err := json.Unmarshal(body, &n); err != nil {
		return fmt.Errorf("decode notification: %w", err)
	}
	if len(n.To) == 0 {
		return errors.New("notification without recipients")
	}
	subject, text, err := Render(n)
	if err != nil {
		return err
	}
	if err := h.Mailer.Send(ctx, n.To, subject, text); err != nil {
		return fmt.Errorf("send %s: %w", n.Kind, err)
	}
	h.Log.Info("notification sent", zap.String("kind", string(n.Kind)), zap.Strings("to", n.To))
	return nil
}

// LogMailer 没有邮件通道时使用
type LogMailer struct {
	Log *zap.Logger
}

func (m LogMailer) Send(_ context.Context, to []string, subject, _ string) error {
	m.Log.Info("mail (dry run)", zap.Strings("to", to), zap.String("subject", subject))
	return nil
}
