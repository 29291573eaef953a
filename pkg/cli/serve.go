package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/cli/config"
	httpctrl "github.com/DubeyAkshat/ms-teams-obo-bot/pkg/controller/http"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/service/graph"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/service/msbot"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/service/worker"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/usecase"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/utils/logging"
)

func cmdServe() *cli.Command {
	var addr string
	var configPath string
	var botCfg config.Bot
	var repoCfg config.Repository

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("OBOBOT_ADDR"),
			Destination: &addr,
		},
		&cli.StringFlag{
			Name:        "config",
			Usage:       "Path to TOML configuration file",
			Sources:     cli.EnvVars("OBOBOT_CONFIG"),
			Destination: &configPath,
		},
	}

	flags = append(flags, botCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			appCfg, err := config.LoadAppConfig(configPath)
			if err != nil {
				return goerr.Wrap(err, "failed to load configuration file")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			creds, err := botCfg.Credentials()
			if err != nil {
				return goerr.Wrap(err, "failed to configure bot credentials")
			}
			logging.Default().Info("Bot channel configured", "bot", botCfg)

			connector, err := msbot.New(creds)
			if err != nil {
				return goerr.Wrap(err, "failed to create connector client")
			}
			strategies := botCfg.Strategies(creds)
			directoryFactory := graph.NewFactory()

			uc := usecase.New(repo,
				usecase.WithConnector(connector),
				usecase.WithStrategies(strategies),
				usecase.WithDirectoryFactory(directoryFactory),
				usecase.WithConnectionName(botCfg.ConnectionName()),
				usecase.WithTaskDelay(appCfg.TaskDelay(5*time.Minute)),
			)

			// Scheduler wires back into the command surface so "schedule
			// task" can enqueue work
			sched := worker.New(repo, uc.Token, uc.Proactive, directoryFactory,
				worker.WithInterval(appCfg.Interval(worker.DefaultInterval)))
			uc.SetScheduler(sched)

			if err := sched.Start(ctx); err != nil {
				return goerr.Wrap(err, "failed to start task scheduler")
			}

			httpOpts := []httpctrl.Options{}
			if v := botCfg.Verifier(); v != nil {
				httpOpts = append(httpOpts, httpctrl.WithVerifier(v))
			} else {
				logging.Default().Warn("Webhook JWT verification is disabled")
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(uc, httpOpts...),
				ReadHeaderTimeout: 30 * time.Second,
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				sched.Stop()
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				sched.Stop()

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
