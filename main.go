package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/adamspd/patentehub/db"
	"github.com/adamspd/patentehub/handlers"
	"github.com/adamspd/patentehub/jobs"
	"github.com/adamspd/patentehub/models"
	"github.com/adamspd/patentehub/utils"
	"github.com/urfave/cli/v2"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	app := &cli.App{
		Name:  "patentehub",
		Usage: "maintain the PatenteHub data store",
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "create or upgrade the store schema",
				Action: migrateCmd,
			},
			{
				Name:  "seed",
				Usage: "load the reference content as the superuser",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Value: models.SuperAdminEmail, Usage: "superuser email"},
					&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"ADMIN_PASSWORD"}, Usage: "superuser password"},
				},
				Action: seedCmd,
			},
			{
				Name:  "export",
				Usage: "write a collection to stdout as a JSON array",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "collection", Aliases: []string{"c"}, Required: true},
				},
				Action: exportCmd,
			},
			{
				Name:  "import",
				Usage: "upsert a JSON array of records into a collection",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "collection", Aliases: []string{"c"}, Required: true},
					&cli.PathFlag{Name: "file", Aliases: []string{"f"}, Required: true},
				},
				Action: importCmd,
			},
			{
				Name:   "stats",
				Usage:  "print collection counts",
				Action: statsCmd,
			},
			{
				Name:   "sweep-tokens",
				Usage:  "delete expired sessions",
				Action: sweepCmd,
			},
			{
				Name:   "worker",
				Usage:  "deliver queued notifications and sweep sessions on schedule",
				Action: workerCmd,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		utils.LogFatal("%v", err)
	}
}

// openStore aborts the process when the store cannot be opened.
func openStore(ctx context.Context, cfg *models.Config) *db.DB {
	utils.LogStartup("Opening store at %s...", cfg.DBPath)
	database, err := db.Open(ctx, cfg.DBPath, db.AppSchema())
	if err != nil {
		utils.LogFatal("Failed to open store: %v", err)
	}
	return database
}

// newAPI queues notifications through redis when REDIS_URL is set and
// writes them inline otherwise.
func newAPI(cfg *models.Config, database *db.DB) (*handlers.API, func(), error) {
	if cfg.RedisURL == "" {
		return handlers.NewAPI(database, cfg), func() {}, nil
	}
	jm, err := jobs.NewJobManager(cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	api := handlers.NewAPI(database, cfg, handlers.WithNotifier(jm))
	return api, func() {
		if err := jm.Close(); err != nil {
			utils.LogError("Error closing job client: %v", err)
		}
	}, nil
}

func closeStore(database *db.DB) {
	if err := database.Close(); err != nil {
		utils.LogError("Error closing store: %v", err)
		return
	}
	utils.LogShutdown("Store closed")
}

func migrateCmd(c *cli.Context) error {
	cfg := utils.LoadConfig()
	database := openStore(c.Context, cfg)
	defer closeStore(database)

	version, err := database.Version(c.Context)
	if err != nil {
		return err
	}
	utils.LogInfo("Store is at schema version %d", version)
	return nil
}

func seedCmd(c *cli.Context) error {
	cfg := utils.LoadConfig()
	database := openStore(c.Context, cfg)
	defer closeStore(database)

	api, closeAPI, err := newAPI(cfg, database)
	if err != nil {
		return err
	}
	defer closeAPI()

	token, err := adminToken(c.Context, api, c.String("email"), c.String("password"))
	if err != nil {
		return err
	}

	resp := api.Seed(c.Context, token)
	if !resp.Success {
		return fmt.Errorf("seed failed (%d): %s", resp.Code, resp.Error)
	}
	utils.LogInfo("Seeded %d reference record(s)", resp.Data)
	return nil
}

// adminToken logs the superuser in, registering the account first when it
// does not exist yet.
func adminToken(ctx context.Context, api *handlers.API, email, password string) (string, error) {
	login := api.Login(ctx, models.LoginRequest{Email: email, Password: password})
	if login.Success {
		return login.Data.Token, nil
	}
	if login.Code != http.StatusUnauthorized {
		return "", fmt.Errorf("login failed (%d): %s", login.Code, login.Error)
	}

	reg := api.Register(ctx, models.RegisterRequest{Email: email, Password: password, Name: "Admin"})
	if !reg.Success {
		return "", fmt.Errorf("register failed (%d): %s", reg.Code, reg.Error)
	}
	utils.LogInfo("Registered superuser %s", email)
	return reg.Data.Token, nil
}

func exportCmd(c *cli.Context) error {
	cfg := utils.LoadConfig()
	database := openStore(c.Context, cfg)
	defer closeStore(database)

	records, err := database.Export(c.Context, c.String("collection"))
	if err != nil {
		return err
	}

	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func importCmd(c *cli.Context) error {
	cfg := utils.LoadConfig()
	database := openStore(c.Context, cfg)
	defer closeStore(database)

	data, err := os.ReadFile(c.Path("file"))
	if err != nil {
		return fmt.Errorf("failed to read import file: %w", err)
	}
	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("import file must hold a JSON array: %w", err)
	}

	if err := handlers.CheckRecords(c.String("collection"), records); err != nil {
		return err
	}
	n, err := database.Import(c.Context, c.String("collection"), records)
	if err != nil {
		return err
	}
	utils.LogInfo("Imported %d record(s) into %s", n, c.String("collection"))
	return nil
}

func statsCmd(c *cli.Context) error {
	cfg := utils.LoadConfig()
	database := openStore(c.Context, cfg)
	defer closeStore(database)

	for _, name := range database.Collections() {
		n, err := database.Count(c.Context, name)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "%-20s %d\n", name, n)
	}
	return nil
}

func sweepCmd(c *cli.Context) error {
	cfg := utils.LoadConfig()
	database := openStore(c.Context, cfg)
	defer closeStore(database)

	api := handlers.NewAPI(database, cfg)
	n, err := api.Sessions().SweepExpired(c.Context)
	if err != nil {
		return err
	}
	utils.LogInfo("Removed %d expired session(s)", n)
	return nil
}

func workerCmd(c *cli.Context) error {
	cfg := utils.LoadConfig()
	if cfg.RedisURL == "" && cfg.TokenSweepSchedule == "" {
		return errors.New("worker needs REDIS_URL or TOKEN_SWEEP_SCHEDULE")
	}

	database := openStore(c.Context, cfg)
	defer closeStore(database)

	api := handlers.NewAPI(database, cfg)

	if cfg.RedisURL != "" {
		jm, err := jobs.NewJobManager(cfg.RedisURL)
		if err != nil {
			return err
		}
		store := handlers.NewStoreNotifier(database)
		jm.RegisterHandlers(store.Notify)
		if err := jm.Start(); err != nil {
			return fmt.Errorf("failed to start job worker: %w", err)
		}
		defer jm.Stop()
	}

	if cfg.TokenSweepSchedule != "" {
		sweeper, err := jobs.NewSweeper(cfg.TokenSweepSchedule, api.Sessions().SweepExpired)
		if err != nil {
			return err
		}
		sweeper.Start()
		defer sweeper.Stop()
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	utils.LogStartup("Worker running, waiting for signal...")
	<-sig
	utils.LogShutdown("Received shutdown signal")
	return nil
}
