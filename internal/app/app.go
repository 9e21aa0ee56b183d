package app

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap/zapcore"

	"github.com/nguyentranbao-ct/hds-chat/internal/config"
	"github.com/nguyentranbao-ct/hds-chat/internal/usecase"
	"github.com/nguyentranbao-ct/hds-chat/pkg/logger"
	log "github.com/nguyentranbao-ct/hds-chat/pkg/logger/log_context"
)

// Providers builds the whole object graph from a *config.Config.
var Providers = fx.Provide(
	newLocalStore,
	newHDSConnector,
	newFeedFactory,
	newTranslations,
	newPublisher,
	newResponder,

	usecase.NewEventValidator,
	newSyncUsecase,
	newNotifier,
	newTokenIssuer,
	newAuthUsecase,
	newChatUsecase,
	newDiaryUsecase,

	newHandler,
)

func Invoke(funcs ...any) *fx.App {
	conf := config.MustLoad()
	if err := logger.Setup(conf.Log.Level, conf.Log.Development); err != nil {
		panic(err)
	}
	l := logger.MustNamed("app")
	l.Debugw("config loaded", l.Reflect("config", redacted(conf)))

	return fx.New(
		fx.WithLogger(func() fxevent.Logger {
			fl := &fxevent.ZapLogger{
				Logger: l.Unwrap().Desugar(),
			}
			fl.UseLogLevel(zapcore.DebugLevel)
			return fl
		}),
		Providers,
		fx.Supply(conf),
		fx.Invoke(RestoreSession),
		fx.Invoke(funcs...),
	)
}

// RestoreSession revalidates the persisted session once the app starts and
// drops every cached state on stop.
func RestoreSession(
	lc fx.Lifecycle,
	auth *usecase.AuthUsecase,
	chat *usecase.ChatUsecase,
	sync *usecase.SyncUsecase,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				ctx := context.Background()
				user, err := auth.RestoreSession(ctx)
				switch {
				case err != nil:
					log.Warnw(ctx, "restore session", "error", err)
				case user != nil:
					log.Infow(ctx, "session restored", "user_id", user.ID)
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			chat.Reset()
			sync.Reset()
			return nil
		},
	})
}

// redacted hides secrets from the startup log.
func redacted(conf *config.Config) config.Config {
	c := *conf
	const mask = "***"
	if c.Server.JWTSecret != "" {
		c.Server.JWTSecret = mask
	}
	if c.Database.Password != "" {
		c.Database.Password = mask
	}
	if c.Store.EncryptionKey != "" {
		c.Store.EncryptionKey = mask
	}
	if c.LLM.GoogleAIAPIKey != "" {
		c.LLM.GoogleAIAPIKey = mask
	}
	return c
}
