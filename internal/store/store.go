// Package store opens the persistence backend once at startup and carries
// the outcome to every component that needs it.
package store

import (
	"context"
	"errors"
	"fmt"

	"recipebox/internal/config"
	"recipebox/internal/logging"
	"recipebox/internal/repositories"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNotConfigured is the reason recorded when no connection string is set.
var ErrNotConfigured = errors.New("store connection string not configured")

// Store bundles the repositories of one connected backend.
type Store struct {
	Users   repositories.UserRepository
	Recipes repositories.RecipeRepository
	Reviews repositories.ReviewRepository

	driver  string
	migrate func(ctx context.Context) error
	ping    func(ctx context.Context) error
	close   func(ctx context.Context) error
}

// Driver names the backend, e.g. "mongo" or "sqlite".
func (s *Store) Driver() string { return s.driver }

// Migrate creates the schema or indexes for the backend.
func (s *Store) Migrate(ctx context.Context) error {
	if s.migrate == nil {
		return nil
	}
	return s.migrate(ctx)
}

// Ping checks the backend is still reachable.
func (s *Store) Ping(ctx context.Context) error {
	if s.ping == nil {
		return nil
	}
	return s.ping(ctx)
}

// Close releases the backend connection.
func (s *Store) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// Availability is either Connected (holding a *Store) or Unavailable
// (holding the reason). It is decided once at startup.
type Availability struct {
	store  *Store
	reason error
}

// Connected reports a usable store.
func Connected(s *Store) Availability {
	return Availability{store: s}
}

// Unavailable reports that no store could be opened.
func Unavailable(reason error) Availability {
	if reason == nil {
		reason = ErrNotConfigured
	}
	return Availability{reason: reason}
}

// Store returns the connected store, or the reason it is unavailable.
func (a Availability) Store() (*Store, error) {
	if a.store == nil {
		return nil, a.reason
	}
	return a.store, nil
}

// Available reports whether the store is connected.
func (a Availability) Available() bool { return a.store != nil }

// Reason is nil when connected.
func (a Availability) Reason() error { return a.reason }

// Close closes the underlying store if connected.
func (a Availability) Close(ctx context.Context) error {
	if a.store == nil {
		return nil
	}
	return a.store.Close(ctx)
}

// Open connects to the configured backend. Failures never abort startup;
// they yield Unavailable so read endpoints can degrade.
func Open(ctx context.Context, cfg config.StoreConfig) Availability {
	var (
		s   *Store
		err error
	)
	switch cfg.Driver {
	case config.DriverMongo:
		s, err = openMongo(ctx, cfg)
	case config.DriverPostgres:
		s, err = openGORM(cfg.DSN, postgres.Open, config.DriverPostgres)
	case config.DriverSQLite:
		s, err = openGORM(cfg.DSN, sqlite.Open, config.DriverSQLite)
	default:
		err = fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
	if err != nil {
		logging.Warn().Err(err).Str("driver", cfg.Driver).Msg("store unavailable, serving fallback data")
		return Unavailable(err)
	}

	if cfg.AutoMigrate {
		if err := s.Migrate(ctx); err != nil {
			_ = s.Close(ctx)
			logging.Warn().Err(err).Str("driver", cfg.Driver).Msg("store migration failed, serving fallback data")
			return Unavailable(err)
		}
	}

	logging.Info().Str("driver", s.driver).Msg("store connected")
	return Connected(s)
}

func openMongo(ctx context.Context, cfg config.StoreConfig) (*Store, error) {
	if cfg.MongoURI == "" {
		return nil, ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(cfg.MongoDatabase)
	return &Store{
		Users:   repositories.NewMongoUserRepository(db),
		Recipes: repositories.NewMongoRecipeRepository(db),
		Reviews: repositories.NewMongoReviewRepository(db),
		driver:  config.DriverMongo,
		migrate: func(ctx context.Context) error { return repositories.EnsureMongoIndexes(ctx, db) },
		ping:    func(ctx context.Context) error { return client.Ping(ctx, nil) },
		close:   client.Disconnect,
	}, nil
}

func openGORM(dsn string, dialector func(string) gorm.Dialector, driver string) (*Store, error) {
	if dsn == "" {
		return nil, ErrNotConfigured
	}

	db, err := gorm.Open(dialector(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", driver, err)
	}
	return NewGORM(db, driver), nil
}

// NewGORM wraps an open *gorm.DB as a Store.
func NewGORM(db *gorm.DB, driver string) *Store {
	return &Store{
		Users:   repositories.NewGORMUserRepository(db),
		Recipes: repositories.NewGORMRecipeRepository(db),
		Reviews: repositories.NewGORMReviewRepository(db),
		driver:  driver,
		migrate: func(context.Context) error { return repositories.AutoMigrate(db) },
		ping: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		close: func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	}
}

// NewWithRepositories builds a Store around arbitrary repositories.
func NewWithRepositories(users repositories.UserRepository, recipes repositories.RecipeRepository, reviews repositories.ReviewRepository) *Store {
	return &Store{Users: users, Recipes: recipes, Reviews: reviews, driver: "custom"}
}
