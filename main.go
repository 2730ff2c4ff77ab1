package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lrstanley/go-ytdlp"
	"github.com/urfave/cli/v3"

	"github.com/xeptore/musicflow/bot"
	"github.com/xeptore/musicflow/config"
	"github.com/xeptore/musicflow/constant"
	"github.com/xeptore/musicflow/health"
	"github.com/xeptore/musicflow/log"
	"github.com/xeptore/musicflow/pipeline"
	"github.com/xeptore/musicflow/spotify"
)

func main() {
	logger := log.NewDefault()

	//nolint:exhaustruct
	app := &cli.Command{
		Name:    "musicflow",
		Version: constant.Version,
		Metadata: map[string]any{
			"compiled_at": constant.CompileTime,
		},
		Suggest:                    true,
		Usage:                      "Telegram Spotify Downloader",
		EnableShellCompletion:      true,
		ShellCompletionCommandName: "shell-completion",
		AllowExtFlags:              false,
		Flags: []cli.Flag{
			//nolint:exhaustruct
			&cli.StringFlag{
				Name:     "config",
				Usage:    "Config file path",
				Required: false,
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "bot",
				Usage: "Bot commands",
				Commands: []*cli.Command{
					//nolint:exhaustruct
					{
						Name:   "run",
						Usage:  "Run the bot",
						Action: botRun,
					},
					{
						Name:  "logout",
						Usage: "Logout the bot",
						Description: strings.Join(
							[]string{
								"Execute before you want to move the bot from the cloud Bot API server.",
								"Otherwise there is no guarantee that the bot will receive updates.",
								"After a successful call, you can immediately log in on a local server,",
								"but will not be able to log in back to the cloud Bot API server for 10 minutes.",
							},
							"\n",
						),
						Action: botLogout,
					},
					{
						Name:  "close",
						Usage: "Closes the bot",
						Description: strings.Join(
							[]string{
								"Execute before you want to move the bot from one local server to another.",
								"Errors if execute in the first 10 minutes of the bot being launched.",
							},
							"\n",
						),
						Action: botClose,
					},
				},
			},
		},
	}

	if err := app.Run(context.Background(), os.Args); nil != err {
		if errors.Is(err, context.Canceled) {
			logger.Trace().Msg("Application was canceled")
			os.Exit(1)
		}

		var exitCode exitCodeError
		if errors.As(err, &exitCode) {
			os.Exit(int(exitCode))
		}

		logger.Error().Err(err).Msg("Application exited with error")
		os.Exit(10)
	}
}

type exitCodeError int

func (e exitCodeError) Error() string {
	return "error with exit code: " + strconv.Itoa(int(e))
}

func botRun(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := log.NewDefault()

	if err := godotenv.Load(); nil != err {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load .env file: %v", err)
		}
		logger.Info().Msg(".env file was not found")
	} else {
		logger.Debug().Msg(".env file was loaded")
	}

	conf, err := config.Load(cmd.String("config"))
	if nil != err {
		return fmt.Errorf("load config: %v", err)
	}

	logger = log.FromConfig(conf.Log)

	logger.Debug().Dict("config", conf.ToDict()).Msg("Config loaded")

	if _, err := ytdlp.Install(ctx, nil); nil != err {
		return fmt.Errorf("install download backend: %w", err)
	}
	logger.Debug().Msg("Download backend is available")

	catalog := spotify.NewClient(conf.Spotify)
	logger.Debug().Msg("Spotify catalog client created")

	orch := pipeline.NewOrchestrator(
		pipeline.NewSearchResolver(),
		pipeline.NewWorker(conf.Bot.DownloadsDir),
		pipeline.OptionsFromConfig(conf.Pipeline),
	)

	b, err := bot.New(ctx, logger, conf.Bot)
	if nil != err {
		return fmt.Errorf("create musicflow bot: %w", err)
	}
	logger.Info().Dict("account", b.Account.ToDict()).Msg("Bot instance created")

	healthSrv := health.NewServer(logger, conf.Health)
	go func() {
		if err := healthSrv.Start(); nil != err {
			logger.Error().Err(err).Msg("Health server failed")
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := healthSrv.Shutdown(shutdownCtx); nil != err {
			logger.Error().Err(err).Msg("Failed to shut down health server")
		}
	}()

	deps := &bot.Deps{
		Catalog:  catalog,
		Orch:     orch,
		Worker:   bot.NewWorker(),
		Sessions: bot.NewSessions(),
	}
	b.RegisterHandlers(ctx, logger, deps)

	logger.Debug().Msg("Starting Musicflow bot")
	if err := b.Start(); nil != err {
		return fmt.Errorf("start musicflow bot: %w", err)
	}
	logger.Info().Msg("Musicflow bot started and listening for updates")

	<-ctx.Done()
	logger.Warn().Msg("Stopping Musicflow application")

	if err := b.Stop(); nil != err {
		return fmt.Errorf("stop musicflow bot: %v", err)
	}
	logger.Info().Msg("Musicflow bot stopped successfully")

	return nil
}

func botLogout(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := log.NewDefault()

	if err := godotenv.Load(); nil != err {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load .env file: %v", err)
		}
		logger.Info().Msg(".env file was not found")
	} else {
		logger.Debug().Msg(".env file was loaded")
	}

	conf, err := config.Load(cmd.String("config"))
	if nil != err {
		return fmt.Errorf("load config: %v", err)
	}

	logger = log.FromConfig(conf.Log)

	logger.Debug().Dict("config", conf.ToDict()).Msg("Config loaded")

	b, err := bot.NewAPI(ctx, logger, conf.Bot)
	if nil != err {
		return fmt.Errorf("create musicflow API bot: %w", err)
	}
	logger.Info().Dict("account", b.Account.ToDict()).Msg("Bot instance created")

	if err := b.Logout(ctx); nil != err {
		return fmt.Errorf("logout musicflow API bot: %w", err)
	}
	logger.Info().Msg("Bot instance logged out successfully. You can now run the bot locally.")

	return nil
}

func botClose(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := log.NewDefault()

	if err := godotenv.Load(); nil != err {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load .env file: %v", err)
		}
		logger.Info().Msg(".env file was not found")
	} else {
		logger.Info().Msg(".env file was loaded")
	}

	conf, err := config.Load(cmd.String("config"))
	if nil != err {
		return fmt.Errorf("load config: %v", err)
	}

	logger = log.FromConfig(conf.Log)

	logger.Debug().Dict("config", conf.ToDict()).Msg("Config loaded")

	b, err := bot.NewAPI(ctx, logger, conf.Bot)
	if nil != err {
		return fmt.Errorf("create musicflow API bot: %w", err)
	}
	logger.Info().Dict("account", b.Account.ToDict()).Msg("Bot instance created")

	if err := b.Close(ctx); nil != err {
		return fmt.Errorf("close musicflow API bot: %w", err)
	}
	logger.
		Info().
		Msg("Bot instance closed successfully. You can now move the bot to another local server.")

	return nil
}
