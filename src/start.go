package quaestor

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cirello.io/oversight"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/input-output-hk/quaestor/src/application/assemble"
	"github.com/input-output-hk/quaestor/src/application/component"
	"github.com/input-output-hk/quaestor/src/application/component/web"
	"github.com/input-output-hk/quaestor/src/application/normalize"
	"github.com/input-output-hk/quaestor/src/application/retry"
	"github.com/input-output-hk/quaestor/src/application/service"
	"github.com/input-output-hk/quaestor/src/application/synthesize"
	"github.com/input-output-hk/quaestor/src/config"
	"github.com/input-output-hk/quaestor/src/domain/repository"
	"github.com/input-output-hk/quaestor/src/infrastructure/memory"
	"github.com/input-output-hk/quaestor/src/infrastructure/persistence"
)

//go:generate mockery --dir application/service --all --output application/mocks

type StartCmd struct {
	Store  string `arg:"--store,env:QUAESTOR_STORE" default:"postgres" help:"postgres or memory"`
	Config string `arg:"--config,env:QUAESTOR_CONFIG" help:"YAML file with the pipeline policy"`

	WebListen     string `arg:"--web-listen,env:QUAESTOR_WEB_LISTEN" default:":8080"`
	WebhookSecret string `arg:"--webhook-secret,env:QUAESTOR_WEBHOOK_SECRET_FILE,required" help:"file that contains the webhook HMAC secret"`

	AuthHeader string `arg:"--auth-header,env:QUAESTOR_AUTH_HEADER" help:"header generated tests authenticate with"`
	AuthScheme string `arg:"--auth-scheme,env:QUAESTOR_AUTH_SCHEME" help:"scheme prefixed to the token in the auth header"`

	LogDb bool `arg:"--log-db"`
}

type InstanceOpts interface {
	NewDB(context.Context, *zerolog.Logger) (*pgxpool.Pool, error)
	GetPipelineConfig() (config.PipelineConfig, error)
	GetWebConfig() (config.WebConfig, error)
	GetAuthContext() assemble.AuthContext
}

func (cmd StartCmd) NewDB(ctx context.Context, logger *zerolog.Logger) (*pgxpool.Pool, error) {
	switch cmd.Store {
	case "memory":
		return nil, nil
	case "postgres":
		return config.DBConnection(ctx, logger, cmd.LogDb)
	default:
		return nil, errors.Errorf("Unknown store %q", cmd.Store)
	}
}

func (cmd StartCmd) GetPipelineConfig() (config.PipelineConfig, error) {
	return config.LoadPipelineConfig(cmd.Config)
}

func (cmd StartCmd) GetWebConfig() (config.WebConfig, error) {
	return config.NewWebConfig(cmd.WebListen, cmd.WebhookSecret)
}

func (cmd StartCmd) GetAuthContext() assemble.AuthContext {
	return assemble.AuthContext{Header: cmd.AuthHeader, Scheme: cmd.AuthScheme}
}

func (cmd *StartCmd) Run(logger *zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	instance, err := NewInstance(ctx, cmd, logger)
	if err != nil {
		return err
	}
	defer instance.Close()

	return instance.Run(ctx)
}

func NewInstance(ctx context.Context, opts InstanceOpts, logger *zerolog.Logger) (*Instance, error) {
	instance := &Instance{logger: logger}

	pipelineConfig, err := opts.GetPipelineConfig()
	if err != nil {
		return nil, errors.WithMessage(err, "Invalid pipeline configuration")
	}

	webConfig, err := opts.GetWebConfig()
	if err != nil {
		return nil, err
	}

	var store repository.Store
	if db, err := opts.NewDB(ctx, logger); err != nil {
		return nil, errors.WithMessage(err, "Could not connect to the database")
	} else if db == nil {
		logger.Warn().Msg("Using the in-memory store, nothing will be persisted")
		store = memory.NewStore()
	} else {
		instance.db = db
		if err := persistence.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, errors.WithMessage(err, "Could not migrate the database")
		}
		store = persistence.NewStore(db)
	}

	metrics := config.NewMetrics()

	sinks := []service.AlertSink{service.NewLogAlertSink(logger)}
	if pipelineConfig.Alert.NatsURL != "" {
		if instance.nats, err = service.NewNatsAlertSink(pipelineConfig.Alert.NatsURL, pipelineConfig.Alert.Subject, logger); err != nil {
			instance.Close()
			return nil, err
		}
		sinks = append(sinks, instance.nats)
	}

	runner, err := retry.New(pipelineConfig.Retry, pipelineConfig.Breaker, metrics, logger)
	if err != nil {
		instance.Close()
		return nil, err
	}

	templateService, err := service.NewTemplateService(pipelineConfig.TemplateDir, logger)
	if err != nil {
		instance.Close()
		return nil, err
	}

	failureService := service.NewFailureService(store, metrics, logger, sinks...)
	specificationService := service.NewSpecificationService(normalize.New(pipelineConfig.Normalize), store, failureService, logger)
	generationService := service.NewGenerationService(
		synthesize.New(pipelineConfig.Synthesis),
		assemble.New(templateService.Registry(), opts.GetAuthContext()),
		store, failureService, metrics, logger,
	)
	vcsService := service.NewVcsService(pipelineConfig.Vcs, templateService.Registry(), logger)
	reviewService := service.NewReviewService(pipelineConfig.Review, store, generationService, vcsService, failureService, runner, metrics, logger)
	pipelineService := service.NewPipelineService(pipelineConfig.Frameworks, store, runner, specificationService, generationService, reviewService, failureService, logger)

	instance.Scheduler = component.NewScheduler(pipelineConfig.Scheduler, pipelineService, metrics, logger)
	instance.TemplateWatcher = component.NewTemplateWatcher(templateService, logger)
	instance.Web = &web.Web{
		Config:            webConfig,
		Logger:            logger.With().Str("component", "Web").Logger(),
		Ingestor:          component.NewWebhookIngestor(webConfig.WebhookSecret, store.Events, service.NewSourceService(logger), instance.Scheduler, metrics, logger),
		ReviewService:     reviewService,
		GenerationService: generationService,
		FailureService:    failureService,
		Metrics:           metrics,
	}

	return instance, nil
}

type Instance struct {
	Web             *web.Web
	Scheduler       *component.Scheduler
	TemplateWatcher *component.TemplateWatcher

	logger *zerolog.Logger
	db     *pgxpool.Pool
	nats   *service.NatsAlertSink
}

func (self Instance) Close() {
	if self.nats != nil {
		self.nats.Close()
	}
	if self.db != nil {
		self.db.Close()
	}
}

func (self Instance) Run(ctx context.Context) error {
	self.logger.Info().Msg("Starting components")

	supervisor := oversight.New(
		oversight.WithLogger(&config.SupervisorLogger{Logger: self.logger}),
		oversight.WithSpecification(
			10,                    // number of restarts
			1*time.Minute,         // within this time period
			oversight.OneForOne(), // restart every task on its own
		),
	)

	for _, start := range []func(context.Context) error{
		self.Scheduler.Start,
		self.TemplateWatcher.Start,
		self.Web.Start,
	} {
		if err := supervisor.Add(start); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := supervisor.Start(ctx); err != nil {
		return errors.WithMessage(err, "While starting supervisor")
	}

	<-ctx.Done()
	return nil
}
