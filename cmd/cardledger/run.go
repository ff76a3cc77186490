package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/uptrace/bun"
	"gopkg.in/yaml.v3"

	"github.com/cardledger/cardledger/config"
	"github.com/cardledger/cardledger/pkg/deploy"
	"github.com/cardledger/cardledger/pkg/models"
	"github.com/cardledger/cardledger/pkg/staticfiles"
	"github.com/cardledger/cardledger/pkg/store/postgres"
)

// run is the entrypoint for the cardledger deploy pipeline
func run() {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		log.Fatalf("Error configuring cardledger: %s", err)
	}

	handleCLIOptions(cfg)

	log.Infof("Starting cardledger deploy version %s", config.VersionString)

	config.SetLogLevel(cfg)
	appState := NewAppState(cfg)

	db := &lazyDB{appState: appState}
	defer db.Close()

	runner := deploy.NewRunner(
		buildSteps(appState, db),
		time.Duration(cfg.Deploy.StepTimeoutSeconds)*time.Second,
	)

	if err := runner.Run(context.Background()); err != nil {
		log.Fatal(err)
	}

	log.Info("Deploy completed successfully")
}

// NewAppState creates an AppState struct from the config file / ENV
func NewAppState(cfg *config.Config) *models.AppState {
	return &models.AppState{
		Config: cfg,
	}
}

// handleCLIOptions handles CLI options that don't require the pipeline to run
func handleCLIOptions(cfg *config.Config) {
	if showVersion {
		fmt.Println(config.VersionString)
		os.Exit(0)
	}
	if dumpConfig {
		out, err := yaml.Marshal(cfg)
		if err != nil {
			log.Fatalf("Error dumping config: %s", err)
		}
		fmt.Println(string(out))
		os.Exit(0)
	}
}

// buildSteps assembles the deploy pipeline. Order matters: a failing step
// aborts everything after it, except createsuperuser whose failure is
// suppressed.
func buildSteps(appState *models.AppState, db *lazyDB) []deploy.Step {
	cfg := appState.Config

	var steps []deploy.Step

	if len(cfg.Deploy.InstallCommand) > 0 {
		steps = append(steps, deploy.NewCommandStep("install", cfg.Deploy.InstallCommand))
	} else {
		log.Info("deploy.install_command not set, skipping install step")
	}

	steps = append(steps, deploy.Step{
		Name: "collectstatic",
		Run: func(ctx context.Context) error {
			collector := staticfiles.NewCollector(
				cfg.Static.SourceDirs,
				cfg.Static.Root,
				cfg.Static.Clear,
			)
			_, err := collector.Collect(ctx)
			return err
		},
	})

	steps = append(steps, deploy.Step{
		Name: "migrate",
		Run: func(ctx context.Context) error {
			conn, err := db.Get()
			if err != nil {
				return err
			}
			return postgres.CreateSchema(ctx, conn)
		},
	})

	// The superuser usually already exists on redeploys. That's fine.
	steps = append(steps, deploy.Step{
		Name:     "createsuperuser",
		Optional: true,
		Run: func(ctx context.Context) error {
			conn, err := db.Get()
			if err != nil {
				return err
			}
			superuser, err := createSuperuser(ctx, appState, conn)
			if err != nil {
				return err
			}
			log.Infof("Created superuser %s", superuser.Username)
			return nil
		},
	})

	if cfg.Deploy.HealthCheckURL != "" {
		steps = append(steps, deploy.NewHealthCheckStep(
			cfg.Deploy.HealthCheckURL,
			cfg.Deploy.HealthCheckRetryMax,
		))
	}

	return steps
}

func createSuperuser(
	ctx context.Context,
	appState *models.AppState,
	db *bun.DB,
) (*models.Superuser, error) {
	superuserStore := postgres.NewSuperuserStoreDAO(db)
	appState.SuperuserStore = superuserStore

	return superuserStore.Create(ctx, &models.CreateSuperuserRequest{
		Username: appState.Config.Superuser.Username,
		Email:    appState.Config.Superuser.Email,
		Password: appState.Config.Superuser.Password,
	})
}

// lazyDB defers the postgres connection until a step needs it, so an install
// failure aborts the deploy before the database is ever touched.
type lazyDB struct {
	appState *models.AppState
	db       *bun.DB
}

func (l *lazyDB) Get() (*bun.DB, error) {
	if l.db != nil {
		return l.db, nil
	}
	db, err := postgres.NewPostgresConn(l.appState)
	if err != nil {
		return nil, err
	}
	l.db = db
	return l.db, nil
}

func (l *lazyDB) Close() {
	if l.db == nil {
		return
	}
	if err := l.db.Close(); err != nil {
		log.Errorf("Error closing database connection: %v", err)
	}
}
