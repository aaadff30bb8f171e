package app

import (
	"net/http"

	"latergram-go/internal/auth"
	"latergram-go/internal/config"
	"latergram-go/internal/db"
	albumdomain "latergram-go/internal/domain/album"
	userdomain "latergram-go/internal/domain/user"
	"latergram-go/internal/repository/inmemory"
	albumrepo "latergram-go/internal/repository/postgres/album"
	userrepo "latergram-go/internal/repository/postgres/user"
	"latergram-go/internal/transport/httpserver"
	"latergram-go/internal/transport/httpserver/handler"
	authmw "latergram-go/internal/transport/httpserver/middleware"
	"latergram-go/pkg/logger"
	"gorm.io/gorm"
)

type App struct {
	cfg        config.Config
	httpServer *http.Server
	db         *gorm.DB
}

func New(log logger.Logger) (*App, error) {
	log.Info("app: loading config")
	cfg, err := config.Load(log)
	if err != nil {
		return nil, err
	}

	log.Info("app: initializing database")
	dbConn, err := db.NewPostgres(cfg.DB, log)
	if err != nil {
		return nil, err
	}

	log.Info("app: applying migrations")
	if err := db.Migrate(dbConn); err != nil {
		return nil, err
	}

	albumService := albumdomain.NewService(albumrepo.NewPostgres(dbConn))
	if cfg.Albums.OverviewCacheEnabled {
		albumService = albumService.WithOverviewCache(inmemory.NewInMemoryOverviewCache(), cfg.Albums.OverviewCacheTTL)
	}
	userService := userdomain.NewService(userrepo.NewPostgres(dbConn))

	authClient := auth.NewClient(cfg.Auth.ProviderURL, cfg.Auth.APIKey, cfg.Auth.Timeout)
	authn := authmw.NewAuthenticator(cfg.Auth, authClient, userService, log)

	log.Info("app: initializing router")
	handlers := handler.New(albumService, userService, authClient, log)
	router := httpserver.NewRouter(handlers, authn)

	return &App{
		cfg:        cfg,
		httpServer: httpserver.New(cfg, router),
		db:         dbConn,
	}, nil
}

func (a *App) HTTPServer() *http.Server {
	return a.httpServer
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
