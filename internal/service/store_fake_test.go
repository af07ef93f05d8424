package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"gorm.io/datatypes"

	"ats-pipeline/internal/domain"
)

// memData 内存表；值拷贝，事务靠整体快照回滚
type memData struct {
	users        map[string]domain.User
	apps         map[string]domain.Application
	cands        map[string]domain.Candidate
	posts        map[string]domain.Postulation
	evals        map[string]domain.Evaluation
	atts         map[string]domain.Attachment
	notes        map[string]domain.Note
	timeline     []domain.TimelineEvent
	candEvents   []domain.CandidateEvent
	seq          map[string]int
	nextSequence int
}

func newMemData() *memData {
	return &memData{
		users: map[string]domain.User{},
		apps:  map[string]domain.Application{},
		cands: map[string]domain.Candidate{},
		posts: map[string]domain.Postulation{},
		evals: map[string]domain.Evaluation{},
		atts:  map[string]domain.Attachment{},
		notes: map[string]domain.Note{},
		seq:   map[string]int{},
	}
}

func (d *memData) clone() *memData {
	c := newMemData()
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.apps {
		c.apps[k] = v
	}
	for k, v := range d.cands {
		c.cands[k] = v
	}
	for k, v := range d.posts {
		c.posts[k] = v
	}
	for k, v := range d.evals {
		c.evals[k] = v
	}
	for k, v := range d.atts {
		c.atts[k] = v
	}
	for k, v := range d.notes {
		c.notes[k] = v
	}
	for k, v := range d.seq {
		c.seq[k] = v
	}
	c.timeline = append(c.timeline, d.timeline...)
	c.candEvents = append(c.candEvents, d.candEvents...)
	c.nextSequence = d.nextSequence
	return c
}

func (d *memData) stamp(id string) {
	d.nextSequence++
	d.seq[id] = d.nextSequence
}

// faults 注入的故障
type faults struct {
	evalCreate     error
	postUpdate     error
	candUpdate     error
	timelineAppend error
	timelineList   error
	candEventsErr  error
}

type memStore struct {
	mu    *sync.Mutex
	data  *memData
	caps  domain.Capabilities
	fault *faults
	clock func() time.Time
}

func newMemStore(caps domain.Capabilities) *memStore {
	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	n := 0
	return &memStore{
		mu:    &sync.Mutex{},
		data:  newMemData(),
		caps:  caps,
		fault: &faults{},
		clock: func() time.Time {
			n++
			return base.Add(time.Duration(n) * time.Minute)
		},
	}
}

func (s *memStore) Users() domain.UserRepository                     { return memUsers{s} }
func (s *memStore) Applications() domain.ApplicationRepository       { return memApps{s} }
func (s *memStore) Candidates() domain.CandidateRepository           { return memCands{s} }
func (s *memStore) Postulations() domain.PostulationRepository       { return memPosts{s} }
func (s *memStore) Evaluations() domain.EvaluationRepository         { return memEvals{s} }
func (s *memStore) Attachments() domain.AttachmentRepository         { return memAtts{s} }
func (s *memStore) Notes() domain.NoteRepository                     { return memNotes{s} }
func (s *memStore) Timeline() domain.TimelineRepository              { return memTimeline{s} }
func (s *memStore) CandidateEvents() domain.CandidateEventRepository { return memCandEvents{s} }
func (s *memStore) Capabilities() domain.Capabilities                { return s.caps }

func (s *memStore) Transaction(ctx context.Context, fn func(tx domain.Store) error) error {
	s.mu.Lock()
	snapshot := s.data.clone()
	s.mu.Unlock()

	tx := &memStore{mu: s.mu, data: snapshot, caps: s.caps, fault: s.fault, clock: s.clock}
	if err := fn(tx); err != nil {
		return err
	}
	s.mu.Lock()
	s.data = tx.data
	s.mu.Unlock()
	return nil
}

// ---- users

type memUsers struct{ s *memStore }

func (r memUsers) Create(_ context.Context, u *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.data.users {
		if x.Email == u.Email {
			return domain.ErrConflict
		}
	}
	u.CreatedAt = r.s.clock()
	u.UpdatedAt = u.CreatedAt
	r.s.data.users[u.ID] = *u
	return nil
}

func (r memUsers) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.data.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r memUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.data.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (r memUsers) List(_ context.Context, offset, limit int) ([]domain.User, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.User
	for _, u := range r.s.data.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	total := int64(len(out))
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, total, nil
}

func (r memUsers) Update(_ context.Context, u *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.data.users[u.ID] = *u
	return nil
}

func (r memUsers) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.users[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.data.users, id)
	return nil
}

// ---- applications

type memApps struct{ s *memStore }

func (r memApps) Create(_ context.Context, a *domain.Application) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a.CreatedAt = r.s.clock()
	a.UpdatedAt = a.CreatedAt
	r.s.data.apps[a.ID] = *a
	return nil
}

func (r memApps) FindByID(_ context.Context, id string) (*domain.Application, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.data.apps[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (r memApps) List(_ context.Context, f domain.ApplicationFilter) ([]domain.Application, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Application
	for _, a := range r.s.data.apps {
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, int64(len(out)), nil
}

func (r memApps) Update(_ context.Context, a *domain.Application) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a.UpdatedAt = r.s.clock()
	r.s.data.apps[a.ID] = *a
	return nil
}

func (r memApps) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.apps[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.data.apps, id)
	return nil
}

// ---- candidates

type memCands struct{ s *memStore }

func (r memCands) Create(_ context.Context, c *domain.Candidate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = r.s.clock()
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	r.s.data.cands[c.ID] = *c
	r.s.data.stamp(c.ID)
	return nil
}

func (r memCands) FindByID(_ context.Context, id string) (*domain.Candidate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.data.cands[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r memCands) FindByEmail(_ context.Context, email string) ([]domain.Candidate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.filter(func(c domain.Candidate) bool { return emailKey(c.Email) == emailKey(email) }), nil
}

func (r memCands) ListByApplication(_ context.Context, appID string) ([]domain.Candidate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.filter(func(c domain.Candidate) bool { return c.ApplicationID == appID }), nil
}

// filter created_at desc，同一时间按插入顺序倒序
func (r memCands) filter(keep func(domain.Candidate) bool) []domain.Candidate {
	var out []domain.Candidate
	for _, c := range r.s.data.cands {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return r.s.data.seq[out[i].ID] > r.s.data.seq[out[j].ID]
	})
	return out
}

func (r memCands) CountByApplication(ctx context.Context, appID string) (int64, error) {
	rows, _ := r.ListByApplication(ctx, appID)
	return int64(len(rows)), nil
}

func (r memCands) Update(_ context.Context, c *domain.Candidate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.fault.candUpdate != nil {
		return r.s.fault.candUpdate
	}
	c.UpdatedAt = r.s.clock()
	r.s.data.cands[c.ID] = *c
	return nil
}

func (r memCands) UpdateStage(_ context.Context, id, stage string, assigneeID *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.fault.candUpdate != nil {
		return r.s.fault.candUpdate
	}
	c, ok := r.s.data.cands[id]
	if !ok {
		return nil
	}
	c.Stage = stage
	if assigneeID != nil {
		v := *assigneeID
		c.AssigneeID = &v
	}
	c.UpdatedAt = r.s.clock()
	r.s.data.cands[id] = c
	return nil
}

func (r memCands) DeleteByIDs(_ context.Context, ids []string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := r.s.data.cands[id]; ok {
			delete(r.s.data.cands, id)
			n++
		}
	}
	return n, nil
}

// ---- postulations

type memPosts struct{ s *memStore }

func (r memPosts) unavailable() error {
	if !r.s.caps.Postulations {
		return domain.ErrUnavailable
	}
	return nil
}

func (r memPosts) Create(_ context.Context, p *domain.Postulation) error {
	if err := r.unavailable(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.data.posts {
		if x.CandidateID == p.CandidateID && x.ApplicationID == p.ApplicationID {
			return domain.ErrConflict
		}
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = r.s.clock()
	}
	p.UpdatedAt = p.CreatedAt
	stored := *p
	stored.Candidate, stored.Application = nil, nil
	r.s.data.posts[p.ID] = stored
	r.s.data.stamp(p.ID)
	return nil
}

func (r memPosts) Find(_ context.Context, candID, appID string) (*domain.Postulation, error) {
	if err := r.unavailable(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.data.posts {
		if p.CandidateID == candID && p.ApplicationID == appID {
			return &p, nil
		}
	}
	return nil, nil
}

func (r memPosts) ListByApplication(_ context.Context, appID string) ([]domain.Postulation, error) {
	if err := r.unavailable(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := r.filter(func(p domain.Postulation) bool { return p.ApplicationID == appID })
	for i := range out {
		if c, ok := r.s.data.cands[out[i].CandidateID]; ok {
			out[i].Candidate = &c
		}
		if a, ok := r.s.data.apps[out[i].ApplicationID]; ok {
			out[i].Application = &a
		}
	}
	return out, nil
}

func (r memPosts) ListByCandidates(_ context.Context, ids []string) ([]domain.Postulation, error) {
	if err := r.unavailable(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	set := toSet(ids)
	return r.filter(func(p domain.Postulation) bool { return set[p.CandidateID] }), nil
}

func (r memPosts) filter(keep func(domain.Postulation) bool) []domain.Postulation {
	var out []domain.Postulation
	for _, p := range r.s.data.posts {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return r.s.data.seq[out[i].ID] > r.s.data.seq[out[j].ID]
	})
	return out
}

func (r memPosts) CountByApplication(ctx context.Context, appID string) (int64, error) {
	rows, err := r.ListByApplication(ctx, appID)
	return int64(len(rows)), err
}

func (r memPosts) UpdateStage(_ context.Context, id, stage string, score *float64, assigneeID *string) error {
	if err := r.unavailable(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.fault.postUpdate != nil {
		return r.s.fault.postUpdate
	}
	p, ok := r.s.data.posts[id]
	if !ok {
		return nil
	}
	p.Stage = stage
	if score != nil {
		v := *score
		p.Score = &v
	}
	if assigneeID != nil {
		v := *assigneeID
		p.AssigneeID = &v
	}
	p.UpdatedAt = r.s.clock()
	r.s.data.posts[id] = p
	return nil
}

func (r memPosts) Delete(_ context.Context, candID, appID string) (int64, error) {
	if err := r.unavailable(); err != nil {
		return 0, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, p := range r.s.data.posts {
		if p.CandidateID == candID && p.ApplicationID == appID {
			delete(r.s.data.posts, id)
			n++
		}
	}
	return n, nil
}

func (r memPosts) DeleteByCandidates(_ context.Context, ids []string) error {
	if err := r.unavailable(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	set := toSet(ids)
	for id, p := range r.s.data.posts {
		if set[p.CandidateID] {
			delete(r.s.data.posts, id)
		}
	}
	return nil
}

// ---- evaluations / attachments / notes

type memEvals struct{ s *memStore }

func (r memEvals) Create(_ context.Context, e *domain.Evaluation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.fault.evalCreate != nil {
		return r.s.fault.evalCreate
	}
	e.CreatedAt = r.s.clock()
	r.s.data.evals[e.ID] = *e
	return nil
}

func (r memEvals) ListByCandidate(_ context.Context, candID string) ([]domain.Evaluation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Evaluation
	for _, e := range r.s.data.evals {
		if e.CandidateID == candID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r memEvals) DeleteByCandidates(_ context.Context, ids []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	set := toSet(ids)
	for id, e := range r.s.data.evals {
		if set[e.CandidateID] {
			delete(r.s.data.evals, id)
		}
	}
	return nil
}

type memAtts struct{ s *memStore }

func (r memAtts) Create(_ context.Context, a *domain.Attachment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.data.atts[a.ID] = *a
	return nil
}

func (r memAtts) FindByID(_ context.Context, id string) (*domain.Attachment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.data.atts[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (r memAtts) ListByCandidate(ctx context.Context, candID string) ([]domain.Attachment, error) {
	return r.ListByCandidates(ctx, []string{candID})
}

func (r memAtts) ListByCandidates(_ context.Context, ids []string) ([]domain.Attachment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	set := toSet(ids)
	var out []domain.Attachment
	for _, a := range r.s.data.atts {
		if set[a.CandidateID] {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memAtts) UpdateAnalysis(_ context.Context, id string, st domain.AnalysisStatus, analysis datatypes.JSON) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.data.atts[id]
	if !ok {
		return nil
	}
	a.AnalysisStatus = st
	if analysis != nil {
		a.Analysis = analysis
	}
	r.s.data.atts[id] = a
	return nil
}

func (r memAtts) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.atts[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.data.atts, id)
	return nil
}

func (r memAtts) DeleteByCandidates(_ context.Context, ids []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	set := toSet(ids)
	for id, a := range r.s.data.atts {
		if set[a.CandidateID] {
			delete(r.s.data.atts, id)
		}
	}
	return nil
}

type memNotes struct{ s *memStore }

func (r memNotes) Create(_ context.Context, n *domain.Note) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.data.notes[n.ID] = *n
	return nil
}

func (r memNotes) ListByCandidate(_ context.Context, candID string) ([]domain.Note, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Note
	for _, n := range r.s.data.notes {
		if n.CandidateID == candID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r memNotes) DeleteByCandidates(_ context.Context, ids []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	set := toSet(ids)
	for id, n := range r.s.data.notes {
		if set[n.CandidateID] {
			delete(r.s.data.notes, id)
		}
	}
	return nil
}

// ---- timeline

type memTimeline struct{ s *memStore }

func (r memTimeline) Append(_ context.Context, e *domain.TimelineEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.fault.timelineAppend != nil {
		return r.s.fault.timelineAppend
	}
	r.s.data.timeline = append(r.s.data.timeline, *e)
	return nil
}

func (r memTimeline) ListByEntity(_ context.Context, typ, id string) ([]domain.TimelineEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.fault.timelineList != nil {
		return nil, r.s.fault.timelineList
	}
	var out []domain.TimelineEvent
	for _, e := range r.s.data.timeline {
		if e.EntityType == typ && e.EntityID == id {
			out = append(out, e)
		}
	}
	return out, nil
}

type memCandEvents struct{ s *memStore }

func (r memCandEvents) Append(_ context.Context, e *domain.CandidateEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.fault.candEventsErr != nil {
		return r.s.fault.candEventsErr
	}
	r.s.data.candEvents = append(r.s.data.candEvents, *e)
	return nil
}

func (r memCandEvents) ListByCandidate(_ context.Context, id string) ([]domain.CandidateEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.fault.candEventsErr != nil {
		return nil, r.s.fault.candEventsErr
	}
	var out []domain.CandidateEvent
	for _, e := range r.s.data.candEvents {
		if e.CandidateID == id {
			out = append(out, e)
		}
	}
	return out, nil
}

func toSet(ids []string) map[string]bool {
	m := make(map[string]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}

// ---- 其它协作方

type recordingNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, msg domain.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, msg)
	return nil
}

func (n *recordingNotifier) all() []domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.Notification(nil), n.sent...)
}
