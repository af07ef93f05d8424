package pipeline

import (
	"strings"
	"unicode"
)

type StageID string

const (
	PreInterview    StageID = "pre-interview"
	FirstInterview  StageID = "first-interview"
	SecondInterview StageID = "second-interview"
	CulturalFit     StageID = "cultural-fit"
	Selected        StageID = "selected"
	Rejected        StageID = "rejected"
	OnHold          StageID = "on-hold"
)

type Stage struct {
	ID          StageID `json:"id"`
	DisplayName string  `json:"displayName"`
	Order       int     `json:"order"`
}

// stages 顺序即 Order；rejected / on-hold 不参与主流程排序（见 engine）
var stages = []Stage{
	{ID: PreInterview, DisplayName: "Pre-entrevista", Order: 0},
	{ID: FirstInterview, DisplayName: "1ª Entrevista", Order: 1},
	{ID: SecondInterview, DisplayName: "2ª Entrevista", Order: 2},
	{ID: CulturalFit, DisplayName: "Fit Cultural", Order: 3},
	{ID: Selected, DisplayName: "Seleccionado", Order: 4},
	{ID: Rejected, DisplayName: "Rechazado", Order: 5},
	{ID: OnHold, DisplayName: "Stand by", Order: 6},
}

// 历史数据里的各种写法；key 已 normalize
var aliases = map[string]StageID{
	"pre-entrevista":     PreInterview,
	"preentrevista":      PreInterview,
	"pre entrevista":     PreInterview,
	"primera etapa":      PreInterview,
	"pre-interview":      PreInterview,
	"pre interview":      PreInterview,
	"screening":          PreInterview,
	"nuevo":              PreInterview,
	"1ª entrevista":      FirstInterview,
	"1a entrevista":      FirstInterview,
	"primera entrevista": FirstInterview,
	"first-interview":    FirstInterview,
	"first interview":    FirstInterview,
	"2ª entrevista":      SecondInterview,
	"2a entrevista":      SecondInterview,
	"segunda entrevista": SecondInterview,
	"segunda etapa":      SecondInterview,
	"second-interview":   SecondInterview,
	"second interview":   SecondInterview,
	"fit cultural":       CulturalFit,
	"fit-cultural":       CulturalFit,
	"cultural-fit":       CulturalFit,
	"cultural fit":       CulturalFit,
	"seleccionado":       Selected,
	"seleccionada":       Selected,
	"selected":           Selected,
	"rechazado":          Rejected,
	"rechazada":          Rejected,
	"descartado":         Rejected,
	"rejected":           Rejected,
	"stand by":           OnHold,
	"standby":            OnHold,
	"en espera":          OnHold,
	"on-hold":            OnHold,
	"on hold":            OnHold,
}

var byID = func() map[StageID]Stage {
	m := make(map[StageID]Stage, len(stages))
	for _, s := range stages {
		m[s.ID] = s
	}
	return m
}()

// Stages 返回目录副本
func Stages() []Stage { return append([]Stage(nil), stages...) }

func Get(id StageID) (Stage, bool) {
	s, ok := byID[id]
	return s, ok
}

// Resolve 把 id / 展示名 / 别名 统一映射到 stage
func Resolve(label string) (Stage, bool) {
	key := normalize(label)
	if key == "" {
		return Stage{}, false
	}
	if s, ok := byID[StageID(key)]; ok {
		return s, true
	}
	for _, s := range stages {
		if normalize(s.DisplayName) == key {
			return s, true
		}
	}
	if id, ok := aliases[key]; ok {
		return byID[id], true
	}
	return Stage{}, false
}

// Label 持久化时用的展示名；未知 id 原样返回
func Label(id StageID) string {
	if s, ok := byID[id]; ok {
		return s.DisplayName
	}
	return string(id)
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", "-")
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}
