package pipeline

import (
	"math"
	"strconv"
	"strings"

	"ats-pipeline/internal/domain"
)

// Requirement 确认弹窗需要收集的数据
type Requirement struct {
	Confirm  bool `json:"confirm"`
	Feedback bool `json:"feedback"`
	Score    bool `json:"score"`
	Assignee bool `json:"assignee"`
}

type Decision struct {
	From    Stage       `json:"from"`
	To      Stage       `json:"to"`
	Allowed bool        `json:"allowed"`
	NoOp    bool        `json:"noOp"`
	Reason  string      `json:"reason,omitempty"`
	Rule    string      `json:"rule"`
	Needs   Requirement `json:"needs"`
}

const (
	RuleReactivate = "reactivate"
	RuleHold       = "hold"
	RuleSelect     = "select"
	RuleBackward   = "backward"
	RuleAssign     = "assign"
	RuleEvaluate   = "evaluate"
	RuleDirect     = "direct"
	RuleSame       = "same"
)

const (
	msgSelectGate = "Solo se puede seleccionar a un candidato desde etapas avanzadas (Fit Cultural o posterior)"
	msgBackward   = "No se puede retroceder a una etapa anterior del proceso"
)

var fullConfirm = Requirement{Confirm: true, Feedback: true, Score: true, Assignee: true}

// Decide 按优先级依次匹配规则
func Decide(from, to Stage) Decision {
	d := Decision{From: from, To: to, Allowed: true}
	fit := byID[CulturalFit].Order

	switch {
	case from.ID == to.ID:
		d.Rule, d.NoOp = RuleSame, true
	case from.ID == OnHold || from.ID == Rejected:
		d.Rule = RuleReactivate
	case to.ID == OnHold:
		d.Rule = RuleHold
	case to.ID == Selected:
		d.Rule = RuleSelect
		if from.Order < fit {
			d.Allowed, d.Reason = false, msgSelectGate
			return d
		}
		d.Needs = fullConfirm
	case to.Order < from.Order && to.Order <= fit:
		d.Rule = RuleBackward
		d.Allowed, d.Reason = false, msgBackward
	case from.ID == PreInterview && to.ID == FirstInterview:
		d.Rule = RuleAssign
		d.Needs = Requirement{Confirm: true, Assignee: true}
	case to.ID == SecondInterview || to.ID == CulturalFit || to.ID == Rejected:
		d.Rule = RuleEvaluate
		d.Needs = fullConfirm
	default:
		d.Rule = RuleDirect
	}
	return d
}

// DecideLabels 用持久化标签做判定；未知的当前阶段按 pre-interview 处理
func DecideLabels(fromLabel, toLabel string) (Decision, error) {
	to, ok := Resolve(toLabel)
	if !ok {
		return Decision{}, domain.Invalid("stage", "unknown stage "+strconv.Quote(toLabel))
	}
	from, ok := Resolve(fromLabel)
	if !ok {
		from = byID[PreInterview]
	}
	return Decide(from, to), nil
}

// Confirmation 确认弹窗提交的数据；Score 保留原始输入，由 Validate 解析
type Confirmation struct {
	Feedback   string     `json:"feedback"`
	Score      ScoreInput `json:"score"`
	AssigneeID string     `json:"assigneeId"`
}

// Resolved 校验后的确认数据
type Resolved struct {
	Feedback   string
	Score      *float64
	AssigneeID *string
}

// Validate 校验确认数据；不需要确认的流转直接沿用当前负责人
func Validate(d Decision, c Confirmation, currentAssignee *string) (Resolved, error) {
	var r Resolved
	if !d.Allowed {
		return r, &domain.TransitionDeniedError{From: string(d.From.ID), To: string(d.To.ID), Msg: d.Reason}
	}
	r.AssigneeID = currentAssignee
	if !d.Needs.Confirm {
		return r, nil
	}

	feedback := strings.TrimSpace(c.Feedback)
	if d.Needs.Feedback && feedback == "" {
		return Resolved{}, domain.Invalid("feedback", "feedback is required")
	}
	r.Feedback = feedback

	if d.Needs.Score {
		v, err := c.Score.Float()
		if err != nil {
			return Resolved{}, domain.Invalid("score", "score must be a number between 0 and 10")
		}
		if math.IsNaN(v) || v < 0 || v > 10 {
			return Resolved{}, domain.Invalid("score", "score must be between 0 and 10")
		}
		r.Score = &v
	}

	if d.Needs.Assignee {
		if id := strings.TrimSpace(c.AssigneeID); id != "" {
			r.AssigneeID = &id
		}
		if r.AssigneeID == nil || *r.AssigneeID == "" {
			return Resolved{}, domain.Invalid("assigneeId", "an assignee is required")
		}
	}
	return r, nil
}
