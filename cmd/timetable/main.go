package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v2"

	"github.com/leocassarani/timetable/internal/cache"
	"github.com/leocassarani/timetable/internal/calendar"
	"github.com/leocassarani/timetable/internal/config"
	"github.com/leocassarani/timetable/internal/fetch"
	appLog "github.com/leocassarani/timetable/internal/log"
	"github.com/leocassarani/timetable/internal/preset"
	"github.com/leocassarani/timetable/internal/web"
)

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "timetable",
		Usage: "Serve department class timetables as iCalendar feeds.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Value:   "timetable.yml",
				Usage:   "path to the YAML config file",
				EnvVars: []string{"TIMETABLE_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			dumpCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		appLog.Error("timetable failed", err)
		os.Exit(1)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP server.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "listen",
				Usage:   "listen address, overrides the config file",
				EnvVars: []string{"TIMETABLE_LISTEN"},
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if listen := c.String("listen"); listen != "" {
				cfg.Listen = listen
			}
			appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))

			store, err := cache.New()
			if err != nil {
				return fmt.Errorf("init cache: %w", err)
			}

			assembler := calendar.NewAssembler(cfg, fetch.NewDownloader(cfg.BaseURL), store)
			presets := preset.NewStore(cfg.DataDir)
			server := web.NewServer(cfg, assembler, presets)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if cfg.RefreshCron != "" {
				jobs := cron.New()
				if _, err := jobs.AddFunc(cfg.RefreshCron, func() {
					appLog.Info("cache warm starting", "schedule", cfg.RefreshCron)
					assembler.Warm(ctx)
				}); err != nil {
					return fmt.Errorf("refresh schedule %q: %w", cfg.RefreshCron, err)
				}
				jobs.Start()
				defer jobs.Stop()
			}

			srv := &http.Server{
				Addr:              cfg.Listen,
				Handler:           server.Handler(),
				ReadHeaderTimeout: 5 * time.Second,
			}

			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					appLog.Error("http shutdown error", err)
				}
			}()

			appLog.Info("timetable listening", "listen", cfg.Listen)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		},
	}
}

func dumpCommand() *cli.Command {
	return &cli.Command{
		Name:      "dump",
		Usage:     "Write one course's calendar to stdout.",
		ArgsUsage: "<course> <year of entry>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return fmt.Errorf("usage: timetable dump <course> <year of entry>")
			}
			course := c.Args().Get(0)
			yoe, err := strconv.Atoi(c.Args().Get(1))
			if err != nil {
				return fmt.Errorf("invalid year of entry %q", c.Args().Get(1))
			}

			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))

			assembler := calendar.NewAssembler(cfg, fetch.NewDownloader(cfg.BaseURL), nil)
			feed, err := assembler.Calendar(c.Context, course, yoe, nil)
			if err != nil {
				return err
			}

			fmt.Print(feed)
			return nil
		},
	}
}
