package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pressly/goose/v3"
	"golang.org/x/sync/errgroup"

	"lumina/internal/audit"
	"lumina/internal/contract"
	"lumina/internal/gallery"
	"lumina/internal/link"
	"lumina/internal/notify"
	"lumina/internal/party"
	"lumina/internal/platform/config"
	"lumina/internal/platform/database"
	"lumina/internal/platform/httpserver"
	"lumina/internal/platform/logger"
	"lumina/internal/platform/metrics"
	"lumina/internal/platform/middleware"
	"lumina/internal/platform/tracer"
	"lumina/internal/portal"
	"lumina/internal/questionnaire"
	"lumina/internal/renderer"
	"lumina/internal/signature"
	"lumina/internal/storage"
	"lumina/internal/template"
	transport "lumina/internal/transport/http"
	"lumina/migrations"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.FromEnv()
	log := logger.New()

	dbCfg := database.DefaultConfig()
	dbCfg.URL = cfg.DatabaseURL
	db, err := database.New(dbCfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if db != nil {
		defer db.Close()
		goose.SetBaseFS(migrations.FS)
		if err := goose.SetDialect("postgres"); err != nil {
			return fmt.Errorf("set migration dialect: %w", err)
		}
		if err := goose.Up(db.DB(), "."); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		log.Info("database connected, migrations applied")
	} else {
		log.Warn("no database configured, using in-memory stores")
	}

	files, err := storage.NewFileStore(cfg.DocumentRoot)
	if err != nil {
		return fmt.Errorf("init document store: %w", err)
	}

	m := metrics.New()

	var (
		auditStore         audit.Store
		partyStore         party.Store
		linkStore          link.Store
		questionnaireStore questionnaire.Store
		templateStore      template.Store
		contractStore      contract.Store
		signatureStore     signature.Store
		galleryStore       gallery.Store
	)
	if db != nil {
		auditStore = audit.NewPostgres(db.DB())
		partyStore = party.NewPostgres(db.DB())
		linkStore = link.NewPostgres(db.DB())
		questionnaireStore = questionnaire.NewPostgres(db.DB())
		templateStore = template.NewPostgres(db.DB())
		contractStore = contract.NewPostgres(db.DB())
		signatureStore = signature.NewPostgres(db.DB())
		galleryStore = gallery.NewPostgres(db.DB())
	} else {
		auditStore = audit.NewMemory()
		partyStore = party.NewMemory()
		linkStore = link.NewMemory()
		questionnaireStore = questionnaire.NewMemory()
		templateStore = template.NewMemory()
		contractStore = contract.NewMemory()
		signatureStore = signature.NewMemory()
		galleryStore = gallery.NewMemory()
	}

	recorder := audit.NewRecorder(auditStore, log, m)
	notifier := notify.NewLogNotifier(log)

	links := link.NewService(linkStore, recorder, log, link.WithMetrics(m))
	questionnaires := questionnaire.NewService(questionnaireStore, recorder, log,
		questionnaire.WithMetrics(m), questionnaire.WithNotifier(notifier))
	templates := template.NewService(templateStore, log)

	var tr tracer.Tracer = tracer.NewNoop()
	if cfg.TracingEnabled {
		tr = tracer.NewOTel()
		log.Info("tracing enabled")
	}

	engine := renderer.NewEngine(renderer.WithTracer(tr))
	contracts := contract.NewService(contractStore, templates, questionnaireStore, partyStore, recorder, log,
		contract.WithMetrics(m))
	pool := renderer.NewPool(engine, contracts, linkStore, files,
		renderer.PoolConfig{
			Workers:   cfg.RenderWorkers,
			QueueCap:  cfg.RenderQueueCap,
			Retention: cfg.JobRetention,
		}, log, renderer.WithPoolMetrics(m))
	contracts = contract.NewService(contractStore, templates, questionnaireStore, partyStore, recorder, log,
		contract.WithMetrics(m), contract.WithScheduler(pool))

	signatures := signature.NewService(signatureStore, contractStore, partyStore, files, engine, recorder, log,
		signature.WithMetrics(m), signature.WithTracer(tr), signature.WithNotifier(notifier))
	galleries := gallery.NewService(galleryStore, files, recorder, log, gallery.WithNotifier(notifier))
	portalSvc := portal.NewService(links, questionnaires, contracts, signatures, galleries, recorder, files, log)

	handler := transport.NewHandler(transport.Config{
		Links:          links,
		Questionnaires: questionnaires,
		Templates:      templates,
		Contracts:      contracts,
		Signatures:     signatures,
		Galleries:      galleries,
		Portal:         portalSvc,
		Auditor:        recorder,
		Pool:           pool,
		Files:          files,
		DB:             db,
		Metrics:        m,
		Logger:         log,
	})

	auth := middleware.NewProviderAuth(cfg.JWTSigningKey, log)
	metadata := middleware.NewMetadata(middleware.MetadataConfig{})
	server := httpserver.New(cfg.Addr, handler.Router(auth, metadata))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := pool.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("render pool: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
