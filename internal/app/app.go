package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ats-pipeline/internal/core/auth"
	"ats-pipeline/internal/core/cache"
	"ats-pipeline/internal/core/config"
	"ats-pipeline/internal/core/database"
	"ats-pipeline/internal/core/mq"
	"ats-pipeline/internal/integration/ai"
	"ats-pipeline/internal/integration/export"
	"ats-pipeline/internal/integration/gworkspace"
	"ats-pipeline/internal/integration/notify"
	"ats-pipeline/internal/integration/storage"
	"ats-pipeline/internal/repo"
	"ats-pipeline/internal/service"
	"ats-pipeline/internal/transport/http/handler"
	"ats-pipeline/internal/transport/http/router"
)

// App 三个进程共用的依赖装配
type App struct {
	Cfg   *config.Config
	Log   *zap.Logger
	DB    *gorm.DB
	Store *repo.GormStore
	JWT   *auth.JWTer
	Cache *cache.Cache // 未启用时为 nil
	MQ    *mq.Client   // 未启用时为 nil

	Users        *service.UserService
	Applications *service.ApplicationService
	Candidates   *service.CandidateService
	Stages       *service.StageService
	Attachments  *service.AttachmentService
	Interviews   *service.InterviewService

	google  *googleClients
	closers []func()
}

type googleClients struct {
	gmail    *gworkspace.GmailSender
	calendar *gworkspace.Calendar
}

// New 连接外部依赖并组装服务；失败时已打开的资源会被关闭
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	a := &App{Cfg: cfg, Log: log}
	if err := a.wire(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) wire(ctx context.Context) (err error) {
	cfg, log := a.Cfg, a.Log

	if a.DB, err = openDB(cfg, log); err != nil {
		return err
	}
	if cfg.DB.AutoMigrate {
		schema := repo.SchemaPostulation
		if cfg.DB.Schema == "legacy" {
			schema = repo.SchemaLegacy
		}
		if err = repo.AutoMigrate(a.DB, schema, true); err != nil {
			return fmt.Errorf("automigrate: %w", err)
		}
		log.Info("automigrate done", zap.String("schema", string(schema)))
	}
	a.Store = repo.NewStore(a.DB)
	caps := a.Store.Capabilities()
	log.Info("store capabilities",
		zap.Bool("postulations", caps.Postulations),
		zap.Bool("timeline_log", caps.TimelineLog),
		zap.Bool("candidate_events", caps.CandidateEvents))

	a.JWT = &auth.JWTer{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute,
	}

	var loader cache.Loader = cache.Nop{}
	if cfg.Redis.Enabled {
		a.Cache = cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		a.closers = append(a.closers, func() { _ = a.Cache.Close() })
		loader = a.Cache
	}

	var (
		notifier service.Notifier = notify.LogNotifier{Log: log.Named("notify")}
		queue    service.AnalysisQueue
	)
	if cfg.RabbitMQ.Enabled {
		if a.MQ, err = mq.Dial(cfg.RabbitMQ.URL, log.Named("mq"), mq.QueueNotifications, mq.QueueCVAnalysis); err != nil {
			return err
		}
		a.closers = append(a.closers, func() { _ = a.MQ.Close() })
		d := notify.NewDispatcher(a.MQ)
		notifier, queue = d, d
	}

	extractor, err := a.openExtractor(ctx)
	if err != nil {
		return err
	}

	var calendar service.Calendar
	if cfg.Google.CredentialsFile != "" {
		if a.google, err = openGoogle(ctx, cfg.Google); err != nil {
			return err
		}
		calendar = a.google.calendar
	}

	files, err := storage.NewLocal(cfg.Storage.Root)
	if err != nil {
		return err
	}

	resolver := service.NewResolver(a.Store, log)
	recorder := service.NewRecorder(a.Store, log)
	a.Users = service.NewUserService(a.Store, cfg.Seed.AdminEmail, log)
	a.Applications = service.NewApplicationService(a.Store, resolver, loader, export.Excel{}, log)
	a.Candidates = service.NewCandidateService(service.CandidateDeps{
		Store:     a.Store,
		Resolver:  resolver,
		Recorder:  recorder,
		Files:     files,
		Extractor: extractor,
		Notifier:  notifier,
		Log:       log,
	})
	a.Stages = service.NewStageService(a.Store, resolver, recorder, notifier, log)
	a.Attachments = service.NewAttachmentService(a.Store, recorder, files, queue, extractor, log)
	a.Interviews = service.NewInterviewService(a.Store, recorder, calendar, notifier, log)
	return nil
}

// openExtractor 未配置 provider 时返回 nil，相关接口回 501
func (a *App) openExtractor(ctx context.Context) (service.Extractor, error) {
	cfg := a.Cfg
	if err := ai.SetPDFLicense(cfg.AI.PDFLicense); err != nil {
		return nil, fmt.Errorf("pdf license: %w", err)
	}
	var model ai.Model
	switch cfg.AI.Provider {
	case "gemini":
		g, err := ai.NewGemini(ctx, ai.GeminiConfig{
			Project:         cfg.AI.Gemini.Project,
			Location:        cfg.AI.Gemini.Location,
			Model:           cfg.AI.Model,
			CredentialsFile: cfg.Google.CredentialsFile,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = g.Close() })
		model = g
	case "openai":
		o, err := ai.NewOpenAI(ai.OpenAIConfig{
			APIKey:  cfg.AI.OpenAI.APIKey,
			BaseURL: cfg.AI.OpenAI.BaseURL,
			Model:   cfg.AI.Model,
		})
		if err != nil {
			return nil, err
		}
		model = o
	default:
		a.Log.Info("cv extraction disabled")
		return nil, nil
	}
	a.Log.Info("cv extraction enabled", zap.String("model", model.Name()))
	return ai.NewExtractor(model, a.Log.Named("ai")), nil
}

func openGoogle(ctx context.Context, cfg config.Google) (*googleClients, error) {
	hc, err := gworkspace.HTTPClient(ctx, gworkspace.Config{
		CredentialsFile: cfg.CredentialsFile,
		Subject:         cfg.Sender,
		CalendarID:      cfg.CalendarID,
	})
	if err != nil {
		return nil, err
	}
	cal, err := gworkspace.NewCalendar(ctx, hc, cfg.CalendarID)
	if err != nil {
		return nil, err
	}
	gm, err := gworkspace.NewGmailSender(ctx, hc, cfg.Sender)
	if err != nil {
		return nil, err
	}
	return &googleClients{gmail: gm, calendar: cal}, nil
}

// Mailer worker 发信：配了 Google 凭据走 Gmail，否则只记日志
func (a *App) Mailer() notify.Mailer {
	if a.google != nil && a.Cfg.Google.Sender != "" {
		return a.google.gmail
	}
	return notify.LogMailer{Log: a.Log.Named("mail")}
}

func openDB(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
		Log:                log,
	})
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))
	return db, nil
}

// Ready 健康检查：DB 必须可用，Redis 启用时也要可用
func (a *App) Ready(c *gin.Context) error {
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(c); err != nil {
		return fmt.Errorf("db: %w", err)
	}
	if a.Cache != nil {
		if err := a.Cache.Ping(c); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

// RouterOptions HTTP 限流/超时取自配置
func (a *App) RouterOptions() router.Options {
	h := a.Cfg.App.HTTP
	return router.Options{
		CORSOrigins:  a.Cfg.App.CORSOrigins,
		RatePerSec:   h.RatePerSec,
		RateBurst:    h.RateBurst,
		MaxInFlight:  h.MaxInFlight,
		MaxBodyBytes: int64(h.MaxBodyMB) << 20,
		Timeout:      time.Duration(h.RequestTimeoutSec) * time.Second,
		Ready:        a.Ready,
	}
}

// APIRegistry 用户端模块
func (a *App) APIRegistry() *router.Registry {
	return router.NewRegistry(
		handler.NewAuthHandler(a.Users, a.JWT),
		handler.NewApplicationHandler(a.Applications),
		handler.NewCandidateHandler(a.Candidates, a.Stages, a.Interviews),
		handler.NewAttachmentHandler(a.Attachments),
	)
}

// AdminRegistry 管理端模块
func (a *App) AdminRegistry() *router.Registry {
	return router.NewRegistry(
		handler.NewAuthHandler(a.Users, a.JWT),
		handler.NewUserHandler(a.Users),
	)
}

// Close 按打开的逆序释放
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
