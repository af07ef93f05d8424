package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ats-pipeline/internal/domain"
	"ats-pipeline/internal/pipeline"
	"ats-pipeline/internal/service"
	httpez "ats-pipeline/internal/transport/http/ez"
)

type CandidateHandler struct {
	cands      *service.CandidateService
	stages     *service.StageService
	interviews *service.InterviewService
}

func NewCandidateHandler(cands *service.CandidateService, stages *service.StageService, interviews *service.InterviewService) *CandidateHandler {
	return &CandidateHandler{cands: cands, stages: stages, interviews: interviews}
}

type linkIn struct {
	ApplicationID string `json:"applicationId" binding:"required"`
}

// moveIn 阶段流转请求；确认框里的数据放在 confirmation
type moveIn struct {
	ApplicationID string                `json:"applicationId"`
	To            string                `json:"to" binding:"required"`
	Confirmation  pipeline.Confirmation `json:"confirmation"`
}

type previewQ struct {
	ApplicationID string `form:"applicationId"`
	To            string `form:"to" binding:"required"`
}

type noteIn struct {
	Content string `json:"content" binding:"required"`
}

func (h *CandidateHandler) MountAPI(g *gin.RouterGroup) {
	ez := httpez.New(g)

	httpez.RegisterAction(ez, httpez.Action[service.CreateCandidateInput, *domain.Candidate]{
		Method: http.MethodPost,
		Path:   "/candidates",
		Binder: httpez.BindJSON,
		Perms:  []string{domain.PermCreateCandidates},
		Handler: func(c *gin.Context, in *service.CreateCandidateInput) (*domain.Candidate, error) {
			return h.cands.Create(c, actorOf(c), *in)
		},
	})

	// multipart: file=CV，返回预填资料，不落库
	httpez.RegisterAction(ez, httpez.Action[none, *domain.CandidateProfile]{
		Method: http.MethodPost,
		Path:   "/candidates/extract",
		Binder: httpez.BindNone,
		Perms:  []string{domain.PermCreateCandidates},
		Handler: func(c *gin.Context, _ *none) (*domain.CandidateProfile, error) {
			fh, err := formFile(c, "file")
			if err != nil {
				return nil, err
			}
			data, err := readFile(fh)
			if err != nil {
				return nil, err
			}
			return h.cands.ExtractProfile(c, fh.Filename, data)
		},
	})

	httpez.RegisterAction(ez, httpez.Action[none, *service.CandidateDetail]{
		Method: http.MethodGet,
		Path:   "/candidates/:id",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *none) (*service.CandidateDetail, error) {
			return h.cands.Get(c, c.Param("id"))
		},
	})

	httpez.RegisterAction(ez, httpez.Action[service.UpdateCandidateInput, *domain.Candidate]{
		Method: http.MethodPut,
		Path:   "/candidates/:id",
		Binder: httpez.BindJSON,
		Perms:  []string{domain.PermEditCandidates},
		Handler: func(c *gin.Context, in *service.UpdateCandidateInput) (*domain.Candidate, error) {
			return h.cands.Update(c, actorOf(c), c.Param("id"), *in)
		},
	})

	httpez.RegisterAction(ez, httpez.Action[none, *service.DeleteResult]{
		Method: http.MethodDelete,
		Path:   "/candidates/:id",
		Binder: httpez.BindNone,
		Perms:  []string{domain.PermDeleteCandidates},
		Handler: func(c *gin.Context, _ *none) (*service.DeleteResult, error) {
			return h.cands.Delete(c, actorOf(c), c.Param("id"))
		},
	})

	httpez.RegisterAction(ez, httpez.Action[linkIn, *domain.Postulation]{
		Method: http.MethodPost,
		Path:   "/candidates/:id/postulations",
		Binder: httpez.BindJSON,
		Perms:  []string{domain.PermEditCandidates},
		Handler: func(c *gin.Context, in *linkIn) (*domain.Postulation, error) {
			return h.cands.Link(c, actorOf(c), c.Param("id"), in.ApplicationID)
		},
	})

	httpez.RegisterAction(ez, httpez.Action[none, idOut]{
		Method: http.MethodDelete,
		Path:   "/candidates/:id/postulations/:applicationId",
		Binder: httpez.BindNone,
		Perms:  []string{domain.PermEditCandidates},
		Handler: func(c *gin.Context, _ *none) (idOut, error) {
			return idOut{ID: c.Param("applicationId")}, h.cands.Unlink(c, actorOf(c), c.Param("id"), c.Param("applicationId"))
		},
	})

	httpez.RegisterAction(ez, httpez.Action[previewQ, pipeline.Decision]{
		Method: http.MethodGet,
		Path:   "/candidates/:id/stage/preview",
		Binder: httpez.BindQuery,
		Auth:   true,
		Handler: func(c *gin.Context, in *previewQ) (pipeline.Decision, error) {
			return h.stages.Preview(c, c.Param("id"), in.ApplicationID, in.To)
		},
	})

	httpez.RegisterAction(ez, httpez.Action[moveIn, *service.MoveResult]{
		Method: http.MethodPost,
		Path:   "/candidates/:id/stage",
		Binder: httpez.BindJSON,
		Perms:  []string{domain.PermMoveCandidates},
		Handler: func(c *gin.Context, in *moveIn) (*service.MoveResult, error) {
			return h.stages.Move(c, actorOf(c), service.MoveInput{
				CandidateID:   c.Param("id"),
				ApplicationID: in.ApplicationID,
				To:            in.To,
				Confirmation:  in.Confirmation,
			})
		},
	})

	httpez.RegisterAction(ez, httpez.Action[none, []domain.TimelineEvent]{
		Method: http.MethodGet,
		Path:   "/candidates/:id/timeline",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *none) ([]domain.TimelineEvent, error) {
			return h.cands.Timeline(c, c.Param("id"))
		},
	})

	httpez.RegisterAction(ez, httpez.Action[none, []domain.Evaluation]{
		Method: http.MethodGet,
		Path:   "/candidates/:id/evaluations",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *none) ([]domain.Evaluation, error) {
			return h.cands.Evaluations(c, c.Param("id"))
		},
	})

	httpez.RegisterAction(ez, httpez.Action[service.EvaluationInput, *domain.Evaluation]{
		Method: http.MethodPost,
		Path:   "/candidates/:id/evaluations",
		Binder: httpez.BindJSON,
		Perms:  []string{domain.PermEditCandidates},
		Handler: func(c *gin.Context, in *service.EvaluationInput) (*domain.Evaluation, error) {
			return h.cands.AddEvaluation(c, actorOf(c), c.Param("id"), *in)
		},
	})

	httpez.RegisterAction(ez, httpez.Action[none, []domain.Note]{
		Method: http.MethodGet,
		Path:   "/candidates/:id/notes",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *none) ([]domain.Note, error) {
			return h.cands.Notes(c, c.Param("id"))
		},
	})

	httpez.RegisterAction(ez, httpez.Action[noteIn, *domain.Note]{
		Method: http.MethodPost,
		Path:   "/candidates/:id/notes",
		Binder: httpez.BindJSON,
		Perms:  []string{domain.PermEditCandidates},
		Handler: func(c *gin.Context, in *noteIn) (*domain.Note, error) {
			return h.cands.AddNote(c, actorOf(c), c.Param("id"), in.Content)
		},
	})

	httpez.RegisterAction(ez, httpez.Action[service.ScheduleInput, domain.CalendarResult]{
		Method: http.MethodPost,
		Path:   "/candidates/:id/interviews",
		Binder: httpez.BindJSON,
		Perms:  []string{domain.PermMoveCandidates},
		Handler: func(c *gin.Context, in *service.ScheduleInput) (domain.CalendarResult, error) {
			return h.interviews.Schedule(c, actorOf(c), c.Param("id"), *in)
		},
	})
}
