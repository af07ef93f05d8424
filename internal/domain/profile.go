package domain

// CandidateProfile AI 从简历中抽取的结构化资料，只用于预填
type CandidateProfile struct {
	Name           string   `json:"name"`
	Email          string   `json:"email"`
	Phone          string   `json:"phone"`
	Location       string   `json:"location"`
	CurrentRole    string   `json:"current_position"`
	Education      []string `json:"education"`
	WorkHistory    []string `json:"work_history"`
	Skills         []string `json:"skills"`
	Score          float64  `json:"score"`
	SuggestedStage string   `json:"suggested_stage"`
	Strengths      []string `json:"strengths"`
	Concerns       []string `json:"concerns"`
	Recommendation string   `json:"recommendation"`
}
