package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/upb/studio-auth/auth"
	"github.com/upb/studio-auth/config"
	"github.com/upb/studio-auth/middleware"
	"github.com/upb/studio-auth/repositories"
	"github.com/upb/studio-auth/repositories/postgres"
	"github.com/upb/studio-auth/services"
	"github.com/upb/studio-auth/token"
	"go.uber.org/zap"
)

// Dependencies is the central wiring point for dependency injection
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Users     repositories.UserRepository
	TxManager repositories.TransactionManager

	// Auth
	Codec          *token.Codec
	Verifier       *services.BcryptVerifier
	Resolver       *services.PrincipalResolver
	Authenticator  *services.CredentialAuthenticator
	Accounts       *services.AccountService
	AuthMiddleware *middleware.AuthMiddleware
	authHandler    *auth.Handler
}

// AuthHandler returns the auth handler for route wiring (implements handlers.AuthDeps)
func (d *Dependencies) AuthHandler() *auth.Handler {
	return d.authHandler
}

// NewDependencies opens the identity store and wires every component on top of it
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	factory, err := postgres.NewRepositoryFactory(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps, err := newDependencies(ctx, cfg, factory, logger)
	if err != nil {
		_ = factory.Close()
		return nil, err
	}
	return deps, nil
}

// NewDependenciesFromDB wires the components over an already opened pool
func NewDependenciesFromDB(ctx context.Context, cfg *config.Config, db *postgres.DB, logger *zap.Logger) (*Dependencies, error) {
	return newDependencies(ctx, cfg, postgres.NewRepositoryFactoryFromDB(db, logger), logger)
}

func newDependencies(ctx context.Context, cfg *config.Config, factory *postgres.RepositoryFactory, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:      cfg,
		Logger:      logger,
		RepoFactory: factory,
		DB:          factory.GetDB(),
	}

	if err := deps.DB.InitSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps.initRepositories()

	if err := deps.initAuth(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize auth: %w", err)
	}

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initRepositories initializes all repository instances
func (d *Dependencies) initRepositories() {
	repos := d.RepoFactory.NewRepositories()

	d.Users = repos.Users
	d.TxManager = d.RepoFactory.GetTransactionManager()

	d.Logger.Info("repositories initialized")
}

func (d *Dependencies) initAuth(cfg *config.Config) error {
	codec, err := token.NewCodec([]byte(cfg.JWT.Secret), cfg.JWT.TTL(), d.Logger.Named("token"))
	if err != nil {
		return err
	}

	d.Codec = codec
	d.Verifier = services.NewBcryptVerifier(0)
	d.Resolver = services.NewPrincipalResolver(d.Users, d.Logger)
	d.Authenticator = services.NewCredentialAuthenticator(d.Users, d.Verifier, d.Logger)
	d.Accounts = services.NewAccountService(d.Users, d.TxManager, d.Verifier, d.Logger)
	d.AuthMiddleware = middleware.NewAuthMiddleware(d.Codec, d.Resolver, d.Logger.Named("auth"))
	d.authHandler = auth.NewHandler(d.Authenticator, d.Accounts, d.Codec, d.Logger)

	d.Logger.Info("auth initialized", zap.Duration("token_ttl", codec.TTL()))
	return nil
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
		d.RepoFactory = nil
	}

	_ = d.Logger.Sync()

	return errors.Join(errs...)
}
