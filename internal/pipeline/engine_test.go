package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ats-pipeline/internal/domain"
)

func stage(t *testing.T, id StageID) Stage {
	t.Helper()
	s, ok := Get(id)
	require.True(t, ok)
	return s
}

func TestDecideTable(t *testing.T) {
	tests := []struct {
		name    string
		from    StageID
		to      StageID
		allowed bool
		rule    string
		needs   Requirement
	}{
		{"reactivate from hold", OnHold, FirstInterview, true, RuleReactivate, Requirement{}},
		{"reactivate from rejected", Rejected, PreInterview, true, RuleReactivate, Requirement{}},
		{"hold to selected", OnHold, Selected, true, RuleReactivate, Requirement{}},
		{"put on hold", SecondInterview, OnHold, true, RuleHold, Requirement{}},
		{"select after fit", CulturalFit, Selected, true, RuleSelect, fullConfirm},
		{"select too early", PreInterview, Selected, false, RuleSelect, Requirement{}},
		{"select from second", SecondInterview, Selected, false, RuleSelect, Requirement{}},
		{"backward to pre", CulturalFit, PreInterview, false, RuleBackward, Requirement{}},
		{"backward from selected", Selected, CulturalFit, false, RuleBackward, Requirement{}},
		{"assign interviewer", PreInterview, FirstInterview, true, RuleAssign, Requirement{Confirm: true, Assignee: true}},
		{"into second", FirstInterview, SecondInterview, true, RuleEvaluate, fullConfirm},
		{"skip into fit", PreInterview, CulturalFit, true, RuleEvaluate, fullConfirm},
		{"reject", FirstInterview, Rejected, true, RuleEvaluate, fullConfirm},
		{"reject selected", Selected, Rejected, true, RuleEvaluate, fullConfirm},
		{"skip to first from nowhere", PreInterview, SecondInterview, true, RuleEvaluate, fullConfirm},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(stage(t, tt.from), stage(t, tt.to))
			assert.Equal(t, tt.allowed, d.Allowed)
			assert.Equal(t, tt.rule, d.Rule)
			assert.Equal(t, tt.needs, d.Needs)
			if !tt.allowed {
				assert.NotEmpty(t, d.Reason)
			}
		})
	}
}

func TestDecideSameStageIsNoOp(t *testing.T) {
	d := Decide(stage(t, SecondInterview), stage(t, SecondInterview))
	assert.True(t, d.Allowed)
	assert.True(t, d.NoOp)
}

// 主流程内不允许回退
func TestBackwardMovesAlwaysDenied(t *testing.T) {
	fit := stage(t, CulturalFit).Order
	for _, from := range Stages() {
		if from.ID == OnHold || from.ID == Rejected {
			continue
		}
		for _, to := range Stages() {
			if to.Order < from.Order && to.Order <= fit {
				d := Decide(from, to)
				assert.False(t, d.Allowed, "%s -> %s", from.ID, to.ID)
			}
		}
	}
}

func TestSelectedGate(t *testing.T) {
	fit := stage(t, CulturalFit).Order
	sel := stage(t, Selected)
	for _, from := range Stages() {
		if from.ID == Selected {
			continue
		}
		d := Decide(from, sel)
		assert.Equal(t, from.Order >= fit, d.Allowed, from.ID)
	}
}

func TestReactivationNeedsNothing(t *testing.T) {
	for _, from := range []StageID{OnHold, Rejected} {
		for _, to := range Stages() {
			if to.ID == from {
				continue
			}
			d := Decide(stage(t, from), to)
			require.True(t, d.Allowed)
			assert.False(t, d.Needs.Confirm)

			_, err := Validate(d, Confirmation{}, nil)
			assert.NoError(t, err)
		}
	}
}

func TestDecideLabels(t *testing.T) {
	d, err := DecideLabels("Fit Cultural", "pre-interview")
	require.NoError(t, err)
	assert.False(t, d.Allowed)

	d, err = DecideLabels("garbage", "Seleccionado")
	require.NoError(t, err)
	assert.False(t, d.Allowed, "unknown current stage counts as pre-interview")

	_, err = DecideLabels("Pre-entrevista", "offer")
	var ve *domain.ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestValidate(t *testing.T) {
	full := Decide(stage(t, CulturalFit), stage(t, Selected))
	assign := Decide(stage(t, PreInterview), stage(t, FirstInterview))
	denied := Decide(stage(t, PreInterview), stage(t, Selected))
	prev := "u-prev"

	t.Run("ok", func(t *testing.T) {
		r, err := Validate(full, Confirmation{Feedback: " Strong culture fit ", Score: "9", AssigneeID: "u-1"}, nil)
		require.NoError(t, err)
		assert.Equal(t, "Strong culture fit", r.Feedback)
		require.NotNil(t, r.Score)
		assert.Equal(t, 9.0, *r.Score)
		assert.Equal(t, "u-1", *r.AssigneeID)
	})
	t.Run("comma decimal", func(t *testing.T) {
		r, err := Validate(full, Confirmation{Feedback: "ok", Score: "7,5", AssigneeID: "u-1"}, nil)
		require.NoError(t, err)
		assert.Equal(t, 7.5, *r.Score)
	})
	t.Run("assignee carried over", func(t *testing.T) {
		r, err := Validate(full, Confirmation{Feedback: "ok", Score: "0"}, &prev)
		require.NoError(t, err)
		assert.Equal(t, prev, *r.AssigneeID)
	})
	bad := []struct {
		name  string
		c     Confirmation
		field string
	}{
		{"missing feedback", Confirmation{Score: "5", AssigneeID: "u"}, "feedback"},
		{"blank feedback", Confirmation{Feedback: "  ", Score: "5", AssigneeID: "u"}, "feedback"},
		{"missing score", Confirmation{Feedback: "x", AssigneeID: "u"}, "score"},
		{"nan score", Confirmation{Feedback: "x", Score: "NaN", AssigneeID: "u"}, "score"},
		{"text score", Confirmation{Feedback: "x", Score: "great", AssigneeID: "u"}, "score"},
		{"score too high", Confirmation{Feedback: "x", Score: "10.5", AssigneeID: "u"}, "score"},
		{"negative score", Confirmation{Feedback: "x", Score: "-1", AssigneeID: "u"}, "score"},
		{"no assignee", Confirmation{Feedback: "x", Score: "5"}, "assigneeId"},
	}
	for _, tt := range bad {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(full, tt.c, nil)
			var ve *domain.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
		})
	}
	t.Run("score bounds inclusive", func(t *testing.T) {
		for _, s := range []ScoreInput{"0", "10", "10.0"} {
			_, err := Validate(full, Confirmation{Feedback: "x", Score: s, AssigneeID: "u"}, nil)
			assert.NoError(t, err, s)
		}
	})
	t.Run("assign step skips feedback", func(t *testing.T) {
		r, err := Validate(assign, Confirmation{AssigneeID: "u-2"}, nil)
		require.NoError(t, err)
		assert.Nil(t, r.Score)
		assert.Empty(t, r.Feedback)
		assert.Equal(t, "u-2", *r.AssigneeID)

		_, err = Validate(assign, Confirmation{}, nil)
		assert.Error(t, err)
	})
	t.Run("denied", func(t *testing.T) {
		_, err := Validate(denied, Confirmation{Feedback: "x", Score: "9", AssigneeID: "u"}, nil)
		var te *domain.TransitionDeniedError
		require.True(t, errors.As(err, &te))
		assert.Equal(t, "selected", te.To)
	})
}
