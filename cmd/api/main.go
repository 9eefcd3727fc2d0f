package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bryanwahyu/company-analyst/internal/application"
	appanalysis "github.com/bryanwahyu/company-analyst/internal/application/analysis"
	appsettings "github.com/bryanwahyu/company-analyst/internal/application/settings"
	appvalidation "github.com/bryanwahyu/company-analyst/internal/application/validation"
	"github.com/bryanwahyu/company-analyst/internal/config"
	domanalysis "github.com/bryanwahyu/company-analyst/internal/domain/analysis"
	"github.com/bryanwahyu/company-analyst/internal/domain/runerrors"
	domval "github.com/bryanwahyu/company-analyst/internal/domain/validation"
	aiopenai "github.com/bryanwahyu/company-analyst/internal/infra/ai/openai"
	mysqlp "github.com/bryanwahyu/company-analyst/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/company-analyst/internal/infra/db/postgres"
	"github.com/bryanwahyu/company-analyst/internal/infra/httpserver"
	infrasettings "github.com/bryanwahyu/company-analyst/internal/infra/settings"
	minioStore "github.com/bryanwahyu/company-analyst/internal/infra/storage"
	"github.com/bryanwahyu/company-analyst/internal/middleware"
	"github.com/bryanwahyu/company-analyst/internal/session"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()
	health := map[string]middleware.HealthChecker{}

	// connect database (optional: tanpa host, run history dimatikan)
	var (
		runRepo    domanalysis.Repository
		reportRepo domval.Repository
		errorRepo  runerrors.Repository
	)
	if cfg.Database.Host != "" {
		var db *sql.DB
		switch cfg.Database.Driver {
		case "postgres":
			db, err = postgresp.Connect(ctx, cfg.PostgresDSN())
			if err != nil {
				log.Fatalf("postgres connect error: %v", err)
			}
			runRepo = postgresp.NewRunRepository(db)
			reportRepo = postgresp.NewReportRepository(db)
			errorRepo = postgresp.NewRunErrorRepository(db)
		default:
			db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
			if err != nil {
				log.Fatalf("mysql connect error: %v", err)
			}
			runRepo = mysqlp.NewRunRepository(db)
			reportRepo = mysqlp.NewReportRepository(db)
			errorRepo = mysqlp.NewRunErrorRepository(db)
		}
		defer db.Close()
		health["database"] = &middleware.DatabaseHealthChecker{DB: db}
	} else {
		log.Println("database not configured, run history disabled")
	}

	// init minio (optional: tanpa endpoint, artifact upload dimatikan)
	var artifacts domanalysis.ArtifactStore
	if cfg.Minio.Endpoint != "" {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			log.Fatalf("minio init error: %v", err)
		}
		artifacts = store
	} else {
		log.Println("minio not configured, artifact upload disabled")
	}

	clock := application.SystemClock{}

	settingsSvc := &appsettings.Service{
		Secrets:     infrasettings.SecretsProvider{Path: cfg.App.SecretsFile},
		Store:       infrasettings.FileUserStore{Dir: cfg.App.SettingsDir},
		EnvFile:     infrasettings.EnvFileProvider{Path: cfg.App.EnvFile},
		EnvFilePath: cfg.App.EnvFile,
		Clock:       clock,
	}
	analysisSvc := &appanalysis.Service{
		NewCompleter: aiopenai.NewCompleter,
		Repo:         runRepo,
		Errors:       errorRepo,
		Artifacts:    artifacts,
		Clock:        clock,
	}
	validationSvc := &appvalidation.Service{
		NewCompleter: aiopenai.NewCompleter,
		Repo:         reportRepo,
		Artifacts:    artifacts,
		Clock:        clock,
	}

	mux := httpserver.NewRouter(httpserver.Deps{
		Sessions:     session.NewStore(),
		Settings:     settingsSvc,
		Analysis:     analysisSvc,
		Validation:   validationSvc,
		AllowedUsers: cfg.Auth.AllowedUsers,
		InputFile:    cfg.App.InputFile,
		ExpectedFile: cfg.App.ExpectedFile,
		Health:       health,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		log.Printf("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
