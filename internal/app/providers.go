package app

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/fx"

	"github.com/nguyentranbao-ct/hds-chat/internal/config"
	"github.com/nguyentranbao-ct/hds-chat/internal/i18n"
	"github.com/nguyentranbao-ct/hds-chat/internal/kafka"
	"github.com/nguyentranbao-ct/hds-chat/internal/llm"
	"github.com/nguyentranbao-ct/hds-chat/internal/repo/changefeed"
	"github.com/nguyentranbao-ct/hds-chat/internal/repo/hds"
	"github.com/nguyentranbao-ct/hds-chat/internal/repo/localstore"
	"github.com/nguyentranbao-ct/hds-chat/internal/repo/mongodb"
	"github.com/nguyentranbao-ct/hds-chat/internal/server"
	"github.com/nguyentranbao-ct/hds-chat/internal/usecase"
	"github.com/nguyentranbao-ct/hds-chat/pkg/crypto"
)

func newLocalStore(lc fx.Lifecycle, cfg *config.Config) (localstore.Store, error) {
	var store localstore.Store
	switch localstore.Driver(cfg.Store.Driver) {
	case localstore.DriverFile, "":
		fs, err := localstore.NewFileStore(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("open file store: %w", err)
		}
		store = fs
	case localstore.DriverSQLite:
		ss, err := localstore.NewSQLiteStore(context.Background(), cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		lc.Append(fx.StopHook(ss.Close))
		store = ss
	case localstore.DriverMongo:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		db, err := mongodb.NewConnection(ctx, mongodb.ConnectOptions{
			AppName:  "hds-chat",
			Hosts:    cfg.Database.Hosts,
			Username: cfg.Database.Username,
			Password: cfg.Database.Password,
			Database: cfg.Database.Database,
		})
		if err != nil {
			return nil, err
		}
		lc.Append(fx.StopHook(db.Close))
		store = mongodb.NewLocalStateRepository(db)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	if cfg.Store.EncryptionKey == "" {
		return store, nil
	}
	sealer, err := crypto.NewSealer(cfg.Store.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("init store encryption: %w", err)
	}
	return localstore.Encrypted(store, sealer), nil
}

func newHDSConnector(cfg *config.Config) usecase.HDSConnector {
	return usecase.NewHDSConnector(hds.NewClient(hds.Options{
		ServiceInfoURL: cfg.HDS.ServiceInfoURL,
		AppID:          cfg.HDS.AppID,
		Origin:         cfg.HDS.Origin,
		Language:       cfg.HDS.Language,
		Timeout:        cfg.HDS.RequestTimeout,
		RetryCount:     cfg.HDS.RetryCount,
	}))
}

func newFeedFactory(cfg *config.Config) (changefeed.Factory, error) {
	return changefeed.NewFactory(changefeed.Options{
		Mode:         changefeed.Mode(cfg.HDS.FeedMode),
		PollInterval: cfg.HDS.PollInterval,
	})
}

func newTranslations(lc fx.Lifecycle, store localstore.Store, cfg *config.Config) *i18n.Store {
	tr := i18n.NewStore(store, cfg.HDS.Language)
	lc.Append(fx.StartHook(tr.Load))
	return tr
}

func newPublisher(lc fx.Lifecycle, cfg *config.Config) (kafka.Publisher, error) {
	p, err := kafka.NewPublisher(&cfg.Kafka)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(p.Close))
	return p, nil
}

func newResponder(cfg *config.Config, tr *i18n.Store) (llm.Responder, error) {
	return llm.NewResponder(&cfg.LLM, tr)
}

func newSyncUsecase(
	connector usecase.HDSConnector,
	feeds changefeed.Factory,
	validate *validator.Validate,
	cfg *config.Config,
) *usecase.SyncUsecase {
	return usecase.NewSyncUsecase(connector, feeds, validate, usecase.SyncOptions{
		SeedLimit: cfg.HDS.SeedEventsLimit,
	})
}

func newNotifier(tr *i18n.Store) *usecase.Notifier {
	return usecase.NewNotifier(tr)
}

func newTokenIssuer(cfg *config.Config) *usecase.TokenIssuer {
	return usecase.NewTokenIssuer(cfg.Server.JWTSecret, cfg.Server.TokenTTL)
}

func newAuthUsecase(
	sync *usecase.SyncUsecase,
	store localstore.Store,
	notifier *usecase.Notifier,
	tokens *usecase.TokenIssuer,
	publisher kafka.Publisher,
) *usecase.AuthUsecase {
	return usecase.NewAuthUsecase(sync, store, notifier, tokens, publisher)
}

// newChatUsecase builds the conversation manager and makes it follow the
// session holder.
func newChatUsecase(
	sync *usecase.SyncUsecase,
	auth *usecase.AuthUsecase,
	responder llm.Responder,
	notifier *usecase.Notifier,
	tr *i18n.Store,
	publisher kafka.Publisher,
	cfg *config.Config,
) *usecase.ChatUsecase {
	chat := usecase.NewChatUsecase(sync, responder, notifier, tr, publisher, usecase.ChatOptions{
		Source:           cfg.Chat.Source,
		DemoReplies:      cfg.Chat.DemoReplies,
		ReplyProbability: cfg.Chat.ReplyProbability,
		FormProbability:  cfg.Chat.FormProbability,
		ReplyMinDelay:    cfg.Chat.ReplyMinDelay,
		ReplyMaxDelay:    cfg.Chat.ReplyMaxDelay,
		LoadDelay:        cfg.Chat.LoadDelay,
		SendDelay:        cfg.Chat.SendDelay,
	})
	auth.OnSessionChange(chat.HandleSession)
	return chat
}

func newDiaryUsecase(sync *usecase.SyncUsecase, tr *i18n.Store) *usecase.DiaryUsecase {
	return usecase.NewDiaryUsecase(sync, tr)
}

func newHandler(
	auth *usecase.AuthUsecase,
	chat *usecase.ChatUsecase,
	diary *usecase.DiaryUsecase,
	notifier *usecase.Notifier,
	tr *i18n.Store,
	sync *usecase.SyncUsecase,
) *server.Handler {
	return server.NewHandler(auth, chat, diary, notifier, tr, sync)
}
