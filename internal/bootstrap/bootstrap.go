// Package bootstrap assembles repositories and services from configuration
// for the server and pollctl.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/vncsmyrnk/pollsite/internal/adapters/cache"
	handler "github.com/vncsmyrnk/pollsite/internal/adapters/handler/http"
	"github.com/vncsmyrnk/pollsite/internal/adapters/oauth/google"
	"github.com/vncsmyrnk/pollsite/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/pollsite/internal/adapters/repository/sqlrepo"
	"github.com/vncsmyrnk/pollsite/internal/config"
	"github.com/vncsmyrnk/pollsite/internal/core/ports"
	"github.com/vncsmyrnk/pollsite/internal/core/services"
	"github.com/vncsmyrnk/pollsite/internal/logger"
)

type Repositories struct {
	Questions ports.QuestionRepository
	Votes     ports.VoteRepository
	Users     ports.UserRepository
	Auth      ports.AuthRepository

	// DB is nil for the memory database type.
	DB *sql.DB
}

func (r *Repositories) Close() error {
	if r.DB == nil {
		return nil
	}
	return r.DB.Close()
}

// OpenRepositories connects to the configured database. When migrate is set
// pending migrations are applied first.
func OpenRepositories(ctx context.Context, cfg *config.Config, migrate bool) (*Repositories, error) {
	if cfg.DatabaseType == config.DatabaseMemory {
		questions := memory.NewQuestionRepository()
		return &Repositories{
			Questions: questions,
			Votes:     questions,
			Users:     memory.NewUserRepository(),
			Auth:      memory.NewAuthRepository(),
		}, nil
	}

	dialect, err := sqlrepo.ParseDialect(cfg.DatabaseType)
	if err != nil {
		return nil, err
	}

	db, err := sqlrepo.Open(ctx, dialect, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	if migrate {
		applied, err := sqlrepo.Migrate(ctx, db, dialect)
		if err != nil {
			db.Close()
			return nil, err
		}
		if len(applied) > 0 {
			logger.Named("bootstrap").Info().Strs("versions", applied).Msg("migrations applied")
		}
	}

	return &Repositories{
		Questions: sqlrepo.NewQuestionRepository(db, dialect),
		Votes:     sqlrepo.NewVoteRepository(db, dialect),
		Users:     sqlrepo.NewUserRepository(db, dialect),
		Auth:      sqlrepo.NewAuthRepository(db, dialect),
		DB:        db,
	}, nil
}

type Services struct {
	Query     ports.QueryService
	Questions ports.QuestionService
	Votes     ports.VoteService
	Users     ports.UserService
	Auth      ports.AuthService
}

func NewServices(cfg *config.Config, repos *Repositories) *Services {
	var verifier ports.TokenVerifier
	if cfg.GoogleClientID != "" {
		verifier = google.NewVerifier()
	}

	return &Services{
		Query: services.NewQueryService(repos.Questions, services.QueryOptions{
			DefaultLimit: cfg.ListLimit,
			MaxLimit:     cfg.MaxListLimit,
		}),
		Questions: services.NewQuestionService(repos.Questions, cfg.Now),
		Votes:     services.NewVoteService(repos.Questions, repos.Votes),
		Users:     services.NewUserService(repos.Users, 0),
		Auth: services.NewAuthService(repos.Users, repos.Auth, verifier, services.AuthOptions{
			JWTSecret:      cfg.JWTSecret,
			GoogleClientID: cfg.GoogleClientID,
		}),
	}
}

// NewVoteGuard returns nil when no Redis address is configured. The returned
// close function is always safe to call.
func NewVoteGuard(ctx context.Context, cfg *config.Config) (ports.VoteGuard, func() error, error) {
	if cfg.RedisAddr == "" {
		return nil, func() error { return nil }, nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return cache.NewVoteGuard(client, cfg.VoteGuardTTL), client.Close, nil
}

// NewRouter builds the HTTP handler tree. guard may be nil.
func NewRouter(cfg *config.Config, svc *Services, guard ports.VoteGuard) http.Handler {
	return handler.NewHandler(handler.Handlers{
		Questions:   handler.NewQuestionHandler(svc.Query, svc.Questions, cfg.Now),
		Votes:       handler.NewVoteHandler(svc.Votes, svc.Questions, guard, cfg.Now),
		Users:       handler.NewUserHandler(svc.Users),
		Auth:        handler.NewAuthHandler(svc.Auth, cfg.AuthRedirectURL, cfg.CookieDomain, cfg.CookieSameSite),
		AuthService: svc.Auth,
	}, handler.RouterOptions{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		SlowRequest:        cfg.SlowRequest,
	})
}
