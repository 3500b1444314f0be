package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	googleauth "learning-backend/internal/auth"
	"learning-backend/internal/preferences"
	"learning-backend/internal/profileimages"
	"learning-backend/internal/shared/config"
	"learning-backend/internal/shared/server"
	"learning-backend/internal/shared/storage/db"
	"learning-backend/internal/shared/storage/object"
	localstore "learning-backend/internal/shared/storage/object/local"
	miniostore "learning-backend/internal/shared/storage/object/minio"
	s3store "learning-backend/internal/shared/storage/object/s3"
	"learning-backend/internal/users"
)

// App holds shared dependencies. Repos and services are exposed so tests can
// seed state behind the HTTP surface.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore

	UsersRepo       users.Repo
	PreferencesRepo preferences.Repo

	UsersService        *users.Service
	PreferencesService  *preferences.Service
	ProfileImageService *profileimages.Service

	UsersHandler        *users.Handler
	PreferencesHandler  *preferences.Handler
	ProfileImageHandler *profileimages.Handler
	GoogleAuth          *googleauth.GoogleService
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
	}
	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:              app.Config,
		UsersHandler:        app.UsersHandler,
		PreferencesHandler:  app.PreferencesHandler,
		ProfileImageHandler: app.ProfileImageHandler,
		GoogleAuth:          app.GoogleAuth,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: migrations failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	case "minio":
		return miniostore.New(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildServices(app *App) {
	var userRepo users.Repo
	var prefRepo preferences.Repo
	if app.DB != nil {
		userRepo = &users.PGRepo{DB: app.DB}
		prefRepo = &preferences.PGRepo{DB: app.DB}
	} else {
		userRepo = users.NewMemoryRepo()
		prefRepo = preferences.NewMemoryRepo()
	}

	userSvc := users.NewService(userRepo)
	prefSvc := preferences.NewService(prefRepo)
	imageSvc := &profileimages.Service{Store: app.Store}

	app.UsersRepo = userRepo
	app.PreferencesRepo = prefRepo
	app.UsersService = userSvc
	app.PreferencesService = prefSvc
	app.ProfileImageService = imageSvc
	app.UsersHandler = users.NewHandler(userSvc)
	app.PreferencesHandler = preferences.NewHandler(prefSvc, userSvc)
	app.ProfileImageHandler = profileimages.NewHandler(imageSvc, userSvc)
	app.GoogleAuth = googleauth.NewGoogleService(
		app.Config.GoogleClientID,
		app.Config.GoogleClientSecret,
		app.Config.GoogleRedirectURL,
		app.Config.UIRedirectURL,
		userSvc,
	)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
