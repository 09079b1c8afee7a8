package data

import (
	"context"
	"fmt"
	"time"

	"moviecatalog/internal/biz"
	"moviecatalog/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// ProviderSet is data providers.
var ProviderSet = wire.NewSet(
	NewDB,
	NewRedis,
	NewData,
	NewTransaction,
	NewMovieRepo,
	NewGenreRepo,
	NewPersonRepo,
	NewUserRepo,
	NewCommentRepo,
	NewRankingRepo,
	NewCatalogClient,
)

const (
	defaultMovieTTL  = 15 * time.Minute
	defaultSearchTTL = 10 * time.Minute
)

// Data encapsulates database and cache connections
type Data struct {
	db        *gorm.DB
	rdb       *redis.Client
	movieTTL  time.Duration
	searchTTL time.Duration
	log       *log.Helper
}

// NewDB opens the configured database and tunes its connection pool.
func NewDB(c *conf.Data, logger log.Logger) (*gorm.DB, func(), error) {
	l := log.NewHelper(logger)

	var dialector gorm.Dialector
	switch c.Database.Driver {
	case "", "postgres":
		dialector = postgres.Open(c.Database.Source)
	case "sqlite":
		dialector = sqlite.Open(c.Database.Source)
	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		l.Errorf("failed to connect to database: %v", err)
		return nil, nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		l.Errorf("failed to get database instance: %v", err)
		return nil, nil, err
	}

	// Configure connection pool
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	l.Info("database connected successfully")

	if c.Database.AutoMigrate {
		if err := Migrate(db); err != nil {
			_ = sqlDB.Close()
			return nil, nil, err
		}
		l.Info("database schema migrated")
	}

	cleanup := func() {
		l.Info("closing database")
		if err := sqlDB.Close(); err != nil {
			l.Errorf("failed to close database: %v", err)
		}
	}
	return db, cleanup, nil
}

// NewRedis connects to redis. Redis is optional: an unreachable server
// yields a nil client and the repositories skip caching.
func NewRedis(c *conf.Data, logger log.Logger) (*redis.Client, func()) {
	l := log.NewHelper(logger)
	if c.Redis == nil || c.Redis.Addr == "" {
		l.Info("redis not configured, caching disabled")
		return nil, func() {}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         c.Redis.Addr,
		ReadTimeout:  c.Redis.ReadTimeout.AsDuration(),
		WriteTimeout: c.Redis.WriteTimeout.AsDuration(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		l.Warnf("failed to connect to redis: %v", err)
		_ = rdb.Close()
		return nil, func() {}
	}
	l.Info("redis connected successfully")

	return rdb, func() {
		l.Info("closing redis")
		if err := rdb.Close(); err != nil {
			l.Errorf("failed to close redis: %v", err)
		}
	}
}

// NewData creates Data instance with database and Redis connections
func NewData(c *conf.Data, db *gorm.DB, rdb *redis.Client, logger log.Logger) *Data {
	d := &Data{
		db:        db,
		rdb:       rdb,
		movieTTL:  defaultMovieTTL,
		searchTTL: defaultSearchTTL,
		log:       log.NewHelper(logger),
	}
	if c != nil && c.Redis != nil {
		if ttl := c.Redis.MovieTtl.AsDuration(); ttl > 0 {
			d.movieTTL = ttl
		}
		if ttl := c.Redis.SearchTtl.AsDuration(); ttl > 0 {
			d.searchTTL = ttl
		}
	}
	return d
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&Movie{},
		&Genre{},
		&Person{},
		&User{},
		&MovieGenre{},
		&MovieDirector{},
		&CastCredit{},
		&UserFavorite{},
		&Comment{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

type txKey struct{}

type txState struct {
	db          *gorm.DB
	afterCommit []func()
}

// DB returns the transaction carried by ctx, or the root handle.
func (d *Data) DB(ctx context.Context) *gorm.DB {
	if st, ok := ctx.Value(txKey{}).(*txState); ok {
		return st.db.WithContext(ctx)
	}
	return d.db.WithContext(ctx)
}

// afterCommit defers fn until the surrounding transaction commits, or runs
// it immediately outside of one.
func (d *Data) afterCommit(ctx context.Context, fn func()) {
	if st, ok := ctx.Value(txKey{}).(*txState); ok {
		st.afterCommit = append(st.afterCommit, fn)
		return
	}
	fn()
}

type transaction struct {
	data *Data
}

// NewTransaction creates the store's transaction manager
func NewTransaction(d *Data) biz.Transaction {
	return &transaction{data: d}
}

// InTx joins an open transaction when ctx already carries one.
func (t *transaction) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*txState); ok {
		return fn(ctx)
	}

	st := &txState{}
	err := t.data.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		st.db = tx
		return fn(context.WithValue(ctx, txKey{}, st))
	})
	if err != nil {
		return err
	}
	for _, f := range st.afterCommit {
		f()
	}
	return nil
}
