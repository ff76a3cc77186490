package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cardledger/cardledger/config"
	"github.com/cardledger/cardledger/internal"
	"github.com/cardledger/cardledger/pkg/models"
	"github.com/cardledger/cardledger/pkg/staticfiles"
	"github.com/cardledger/cardledger/pkg/store/postgres"
)

var (
	log *logrus.Logger

	cfgFile     string
	showVersion bool
	dumpConfig  bool
)

var cmd = &cobra.Command{
	Use:   "cardledger",
	Short: "cardledger deploys and manages the card ledger web application",
	Run:   func(cmd *cobra.Command, args []string) { run() },
}

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Run the full deployment pipeline",
	Run:   func(cmd *cobra.Command, args []string) { run() },
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database schema migrations",
	Run: func(cmd *cobra.Command, args []string) {
		appState := newAppState()
		db, err := postgres.NewPostgresConn(appState)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := postgres.CreateSchema(context.Background(), db); err != nil {
			log.Fatalf("Failed to migrate schema: %v", err)
		}
		fmt.Println("Migrations applied successfully.")
	},
}

var collectStaticCmd = &cobra.Command{
	Use:   "collectstatic",
	Short: "Collect static assets into the configured static root",
	Run: func(cmd *cobra.Command, args []string) {
		appState := newAppState()
		collector := staticfiles.NewCollector(
			appState.Config.Static.SourceDirs,
			appState.Config.Static.Root,
			appState.Config.Static.Clear,
		)
		report, err := collector.Collect(context.Background())
		if err != nil {
			log.Fatalf("Failed to collect static assets: %v", err)
		}
		fmt.Printf("%d static files copied to %s.\n", report.Copied, appState.Config.Static.Root)
	},
}

var createSuperuserCmd = &cobra.Command{
	Use:   "createsuperuser",
	Short: "Create the administrative account non-interactively",
	Run: func(cmd *cobra.Command, args []string) {
		appState := newAppState()
		db, err := postgres.NewPostgresConn(appState)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		superuser, err := createSuperuser(context.Background(), appState, db)
		if err != nil {
			log.Fatalf("Failed to create superuser: %v", err)
		}
		fmt.Printf("Superuser %s created successfully.\n", superuser.Username)
	},
}

var dumpJsonSchemaCmd = &cobra.Command{
	Use:     "json-schema",
	Short:   "Generates JSON Schema for cardledger's configuration file",
	Example: "cardledger json-schema > cardledger_config_schema.json",
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := config.JSONSchema()
		if err != nil {
			return err
		}
		fmt.Println(string(schema))
		return nil
	},
}

func init() {
	cmd.AddCommand(deployCmd)
	cmd.AddCommand(migrateCmd)
	cmd.AddCommand(collectStaticCmd)
	cmd.AddCommand(createSuperuserCmd)
	cmd.AddCommand(dumpJsonSchemaCmd)

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default config.yaml)")
	cmd.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "print version number")
	cmd.PersistentFlags().BoolVarP(&dumpConfig, "dump-config", "d", false, "dump config")
}

// newAppState loads config for a standalone management command.
func newAppState() *models.AppState {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		log.Fatalf("Error configuring cardledger: %s", err)
	}
	config.SetLogLevel(cfg)
	return &models.AppState{
		Config: cfg,
	}
}

// Execute executes the root cobra command.
func Execute() {
	log = internal.GetLogger()
	log.SetLevel(logrus.InfoLevel)

	err := cmd.Execute()

	if err != nil {
		os.Exit(1)
	}
}
