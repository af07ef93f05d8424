package domain

import "context"

// Capabilities 启动时探测一次，决定走哪种兼容路径
type Capabilities struct {
	Postulations    bool
	TimelineLog     bool
	CandidateEvents bool
}

// Store 聚合各仓储；Transaction 内拿到的是绑定同一事务的 Store
type Store interface {
	Users() UserRepository
	Applications() ApplicationRepository
	Candidates() CandidateRepository
	Postulations() PostulationRepository
	Evaluations() EvaluationRepository
	Attachments() AttachmentRepository
	Notes() NoteRepository
	Timeline() TimelineRepository
	CandidateEvents() CandidateEventRepository
	Capabilities() Capabilities
	Transaction(ctx context.Context, fn func(tx Store) error) error
}
