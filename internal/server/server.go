package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/fx"

	"github.com/nguyentranbao-ct/hds-chat/internal/config"
	pkgmdw "github.com/nguyentranbao-ct/hds-chat/internal/server/middleware"
	"github.com/nguyentranbao-ct/hds-chat/pkg/logger"
	log "github.com/nguyentranbao-ct/hds-chat/pkg/logger/log_context"
)

// NewRouter builds the echo instance serving the chat API.
func NewRouter(conf *config.Config, handler *Handler, httpLog pkgmdw.Logger) (*echo.Echo, error) {
	origins, err := pkgmdw.OriginPattern(conf.Server.AllowedOrigins)
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = pkgmdw.NewValidator()
	e.HTTPErrorHandler = pkgmdw.ErrorHandler(httpLog)

	e.Use(pkgmdw.Metrics())
	e.Use(pkgmdw.RequestID())
	e.Use(pkgmdw.CORS(origins))
	e.Use(pkgmdw.LogRequest(logRequestConfig(httpLog)))
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			log.Errorw(c.Request().Context(), "PANIC RECOVER", "error", err, "stack", string(stack))
			return nil
		},
	}))

	e.GET("/health", handler.Health)
	if conf.Server.Pprof {
		pkgmdw.Pprof(e.Group("/debug/pprof"))
	}

	api := e.Group(apiPrefix)
	api.GET("/i18n", pkgmdw.Wrap(handler.Translations))
	api.PUT("/i18n/language", pkgmdw.Wrap(handler.ChangeLanguage))

	authGroup := api.Group("/auth")
	authGroup.POST("/login", pkgmdw.Wrap(handler.Login))
	authGroup.POST("/register", pkgmdw.Wrap(handler.Register))
	authGroup.POST("/restore", pkgmdw.Wrap(handler.Restore))

	sockets := NewSocketHandler(handler.session, handler.changes, func(r *http.Request) bool {
		origin := r.Header.Get(echo.HeaderOrigin)
		return origin == "" || origins.MatchString(origin)
	})
	api.GET("/stream", sockets.Stream)

	protected := api.Group("", pkgmdw.JWTAuth(handler.session))
	protected.POST("/auth/logout", pkgmdw.WrapNoContent(handler.Logout))
	protected.GET("/me", pkgmdw.Wrap(handler.Me))
	protected.GET("/contacts", pkgmdw.Wrap(handler.Contacts))
	protected.GET("/conversations", pkgmdw.Wrap(handler.Conversations))
	protected.POST("/conversations", pkgmdw.Wrap(handler.StartConversation))
	protected.DELETE("/conversations/current", pkgmdw.WrapNoContent(handler.Deselect))
	protected.POST("/conversations/:id/select", pkgmdw.Wrap(handler.SelectConversation))
	protected.GET("/messages", pkgmdw.Wrap(handler.Messages))
	protected.POST("/messages", pkgmdw.Wrap(handler.SendMessage))
	protected.POST("/messages/:id/complete-form", pkgmdw.WrapNoContent(handler.CompleteForm))
	protected.GET("/diary", pkgmdw.Wrap(handler.Diary))
	protected.GET("/notifications", pkgmdw.Wrap(handler.Notifications))

	return e, nil
}

func StartServer(
	lc fx.Lifecycle,
	sd fx.Shutdowner,
	conf *config.Config,
	handler *Handler,
) error {
	e, err := NewRouter(conf, handler, logger.MustNamed("http"))
	if err != nil {
		return err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				addr := conf.Server.Addr()
				log.Infow(context.Background(), "starting HTTP server", "addr", addr)
				if err := e.Start(addr); !errors.Is(err, http.ErrServerClosed) {
					log.Errorw(context.Background(), "HTTP server stopped", "error", err)
					_ = sd.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return e.Shutdown(ctx)
		},
	})
	return nil
}
