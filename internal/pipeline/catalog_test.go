package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStagesOrdered(t *testing.T) {
	all := Stages()
	require.Len(t, all, 7)
	for i, s := range all {
		assert.Equal(t, i, s.Order, s.ID)
	}
	all[0].DisplayName = "mutated"
	assert.Equal(t, "Pre-entrevista", Label(PreInterview))
}

func TestResolveAliases(t *testing.T) {
	tests := []struct {
		label string
		want  StageID
	}{
		{"pre-interview", PreInterview},
		{"Primera etapa", PreInterview},
		{"  PRE-ENTREVISTA ", PreInterview},
		{"1ª Entrevista", FirstInterview},
		{"first_interview", FirstInterview},
		{"2ª Entrevista", SecondInterview},
		{"Segunda  entrevista", SecondInterview},
		{"fit-cultural", CulturalFit},
		{"Fit Cultural", CulturalFit},
		{"cultural-fit", CulturalFit},
		{"Seleccionado", Selected},
		{"Rechazado", Rejected},
		{"Stand by", OnHold},
		{"on hold", OnHold},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			s, ok := Resolve(tt.label)
			require.True(t, ok)
			assert.Equal(t, tt.want, s.ID)

			again, ok := Resolve(tt.label)
			require.True(t, ok)
			assert.Equal(t, s, again)
		})
	}
}

func TestResolveEveryDisplayName(t *testing.T) {
	for _, s := range Stages() {
		got, ok := Resolve(s.DisplayName)
		require.True(t, ok, s.DisplayName)
		assert.Equal(t, s.ID, got.ID)

		got, ok = Resolve(Label(s.ID))
		require.True(t, ok)
		assert.Equal(t, s.ID, got.ID)
	}
}

func TestResolveUnknown(t *testing.T) {
	for _, label := range []string{"", "   ", "offer", "3ª Entrevista"} {
		_, ok := Resolve(label)
		assert.False(t, ok, label)
	}
	assert.Equal(t, "offer", Label(StageID("offer")))
}
