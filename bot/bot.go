package bot

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers/filters/callbackquery"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers/filters/message"
	"github.com/rs/zerolog"

	"github.com/xeptore/musicflow/config"
	"github.com/xeptore/musicflow/constant"
	"github.com/xeptore/musicflow/pipeline"
	"github.com/xeptore/musicflow/spotify"
)

type Bot struct {
	bot        *gotgbot.Bot
	updater    *ext.Updater
	dispatcher *ext.Dispatcher
	logger     zerolog.Logger
	Account    Account
}

type Account struct {
	ID        int64
	Username  string
	IsBot     bool
	FirstName string
	LastName  string
}

func (a *Account) ToDict() *zerolog.Event {
	return zerolog.
		Dict().
		Int64("id", a.ID).
		Str("username", a.Username).
		Bool("is_bot", a.IsBot).
		Str("first_name", a.FirstName).
		Str("last_name", a.LastName)
}

func New(ctx context.Context, logger zerolog.Logger, conf config.Bot) (*Bot, error) {
	b, err := gotgbot.NewBot(conf.Token, &gotgbot.BotOpts{ //nolint:exhaustruct
		BotClient: &gotgbot.BaseBotClient{ //nolint:exhaustruct
			UseTestEnvironment: false,
			DefaultRequestOpts: &gotgbot.RequestOpts{
				Timeout: 10 * time.Minute,
				APIURL:  conf.APIURL,
			},
		},
	})
	if nil != err {
		return nil, fmt.Errorf("failed to create bot: %v", err)
	}

	dispatcher := ext.NewDispatcher(&ext.DispatcherOpts{ //nolint:exhaustruct
		Error: func(_ *gotgbot.Bot, _ *ext.Context, err error) ext.DispatcherAction {
			if ctxErr := ctx.Err(); nil != ctxErr && errors.Is(ctxErr, context.Canceled) && errors.Is(err, context.Canceled) {
				logger.Warn().Msg("Context cancelled while handling update")
				return ext.DispatcherActionEndGroups
			}

			logger.Error().Err(err).Msg("An error occurred while handling update")

			return ext.DispatcherActionNoop
		},
		Panic: func(_ *gotgbot.Bot, _ *ext.Context, r any) {
			logger.Error().Any("panic", r).Msg("Panic occurred while handling update")
		},
		MaxRoutines: 10,
	})
	updater := ext.NewUpdater(dispatcher, nil)

	return &Bot{
		bot:        b,
		updater:    updater,
		dispatcher: dispatcher,
		logger:     logger,
		Account:    fillAccount(b),
	}, nil
}

func fillAccount(b *gotgbot.Bot) Account {
	return Account{
		ID:        b.Id,
		Username:  b.Username,
		IsBot:     b.IsBot,
		FirstName: b.FirstName,
		LastName:  b.LastName,
	}
}

func (b *Bot) Start() error {
	pollOpts := ext.PollingOpts{
		DropPendingUpdates: true,
		GetUpdatesOpts: &gotgbot.GetUpdatesOpts{ //nolint:exhaustruct
			Timeout: 9,
			RequestOpts: &gotgbot.RequestOpts{ //nolint:exhaustruct
				Timeout: time.Second * 10,
			},
			AllowedUpdates: []string{"message", "callback_query"},
		},
		EnableWebhookDeletion: true,
	}
	if err := b.updater.StartPolling(b.bot, &pollOpts); nil != err {
		return fmt.Errorf("failed to start polling: %v", err)
	}

	b.logger.Info().
		Str("version", constant.Version).
		Dict("account", b.Account.ToDict()).
		Msg("Bot is online")

	return nil
}

func (b *Bot) Stop() error {
	if err := b.updater.Stop(); nil != err {
		return fmt.Errorf("failed to stop bot updater: %v", err)
	}

	return nil
}

type APIBot struct {
	bot     *gotgbot.Bot
	Account Account
}

func NewAPI(ctx context.Context, logger zerolog.Logger, conf config.Bot) (*APIBot, error) {
	b, err := gotgbot.NewBot(conf.Token, &gotgbot.BotOpts{}) //nolint:exhaustruct
	if nil != err {
		return nil, fmt.Errorf("failed to create bot: %v", err)
	}

	return &APIBot{
		bot:     b,
		Account: fillAccount(b),
	}, nil
}

// Logout logs out from the cloud Bot API server before launching the bot locally.
// You must log out the bot before running it locally,
// otherwise there is no guarantee that the bot will receive updates.
// After a successful call, you can immediately log in on a local server,
// but will not be able to log in back to the cloud Bot API server for 10 minutes.
func (b *APIBot) Logout(ctx context.Context) error {
	if _, err := b.bot.LogOutWithContext(ctx, nil); nil != err {
		return fmt.Errorf("failed to log out: %w", err)
	}

	return nil
}

// Close closes the bot instance before moving it from one local server to another.
// The method will return error 429 in the first 10 minutes after the bot is launched.
func (b *APIBot) Close(ctx context.Context) error {
	if _, err := b.bot.DeleteWebhookWithContext(ctx, nil); nil != err {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}

	if _, err := b.bot.CloseWithContext(ctx, nil); nil != err {
		return fmt.Errorf("failed to close bot: %w", err)
	}

	return nil
}

// Deps carries everything update handlers need to serve a download request.
type Deps struct {
	Catalog  *spotify.Client
	Orch     *pipeline.Orchestrator
	Worker   *Worker
	Sessions *Sessions
}

func (b *Bot) RegisterHandlers(ctx context.Context, logger zerolog.Logger, deps *Deps) {
	b.dispatcher.AddHandler(
		handlers.
			NewMessage(
				spotifyURLFilter,
				NewSpotifyLinkHandler(ctx, logger, deps.Sessions),
			).
			SetAllowChannel(false).
			SetAllowEdited(false),
	)

	b.dispatcher.AddHandler(
		handlers.NewCallback(
			callbackquery.Prefix(qualityCallbackPrefix),
			NewQualityCallbackHandler(ctx, logger, deps),
		),
	)

	b.dispatcher.AddHandler(
		handlers.
			NewCommand("start", NewStartCommandHandler(ctx)).
			SetAllowChannel(false).
			SetAllowEdited(false),
	)

	b.dispatcher.AddHandler(
		handlers.
			NewCommand("help", NewHelpCommandHandler(ctx)).
			SetAllowChannel(false).
			SetAllowEdited(false),
	)

	b.dispatcher.AddHandler(
		handlers.
			NewCommand("demo", NewDemoCommandHandler(ctx, logger, deps.Sessions)).
			SetAllowChannel(false).
			SetAllowEdited(false),
	)

	b.dispatcher.AddHandler(
		handlers.
			NewCommand("cancel", NewCancelCommandHandler(ctx, deps.Worker)).
			SetAllowChannel(false).
			SetAllowEdited(false),
	)
}

func spotifyURLFilter(msg *gotgbot.Message) bool {
	return message.Text(msg) && !message.Command(msg) && message.Entity("url")(msg) && IsSpotifyURL(msg.Text)
}

// IsSpotifyURL reports whether the message text is a Spotify catalog link the
// bot can act on.
func IsSpotifyURL(msg string) bool {
	u, err := url.Parse(msg)
	if nil != err {
		return false
	}

	switch u.Scheme {
	case "https":
	default:
		return false
	}

	switch u.Host {
	case "open.spotify.com", "www.open.spotify.com", "play.spotify.com", "spotify.link":
	default:
		return false
	}

	_, err = spotify.ParseLink(msg)

	return nil == err
}

func getMessageURL(msg *gotgbot.Message) string {
	for _, ent := range msg.Entities {
		if ent.Type != "url" {
			continue
		}

		return gotgbot.ParseEntity(msg.Text, ent).Text
	}
	panic("expected message to contain URL at this point")
}
