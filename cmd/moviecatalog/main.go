package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"moviecatalog/internal/conf"
	"moviecatalog/internal/data"
	"moviecatalog/internal/server"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/config/env"
	"github.com/go-kratos/kratos/v2/config/file"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/grpc"
	"github.com/go-kratos/kratos/v2/transport/http"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	_ "go.uber.org/automaxprocs"
)

// go build -ldflags "-X main.Version=x.y.z"
var (
	// Name is the name of the compiled software.
	Name = "moviecatalog"
	// Version is the version of the compiled software.
	Version string
	// flagconf is the config flag.
	flagconf string

	id, _ = os.Hostname()
)

func newApp(logger log.Logger, gs *grpc.Server, hs *http.Server) *kratos.App {
	return kratos.New(
		kratos.ID(id),
		kratos.Name(Name),
		kratos.Version(Version),
		kratos.Metadata(map[string]string{}),
		kratos.Logger(logger),
		kratos.Server(
			gs,
			hs,
		),
	)
}

func newLogger() log.Logger {
	return log.With(log.NewStdLogger(os.Stdout),
		"ts", log.DefaultTimestamp,
		"caller", log.DefaultCaller,
		"service.id", id,
		"service.name", Name,
		"service.version", Version,
		"request.id", server.RequestID(),
	)
}

// loadConfig reads an optional .env file, then the YAML config with
// ${VAR:default} placeholders resolved from the environment.
func loadConfig() (*conf.Bootstrap, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	c := config.New(
		config.WithSource(
			file.NewSource(flagconf),
			env.NewSource(),
		),
	)
	defer c.Close()

	if err := c.Load(); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	var bc conf.Bootstrap
	if err := c.Scan(&bc); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if bc.Server == nil {
		bc.Server = &conf.Server{}
	}
	if bc.Data == nil || bc.Data.Database == nil {
		return nil, errors.New("config: data.database is required")
	}
	if bc.TMDb == nil {
		return nil, errors.New("config: tmdb is required")
	}
	if bc.Auth == nil || bc.Auth.JwtSecret == "" {
		return nil, errors.New("config: auth.jwt_secret is required")
	}
	return &bc, nil
}

var rootCmd = &cobra.Command{
	Use:           "moviecatalog",
	Short:         "Movie catalog service backed by TMDb",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and gRPC servers",
	RunE: func(cmd *cobra.Command, args []string) error {
		bc, err := loadConfig()
		if err != nil {
			return err
		}

		app, cleanup, err := wireApp(bc.Server, bc.Data, bc.TMDb, bc.Auth, newLogger())
		if err != nil {
			return err
		}
		defer cleanup()

		// start and wait for stop signal
		return app.Run()
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		bc, err := loadConfig()
		if err != nil {
			return err
		}

		logger := newLogger()
		db, cleanup, err := data.NewDB(bc.Data, logger)
		if err != nil {
			return err
		}
		defer cleanup()

		if err := data.Migrate(db); err != nil {
			return err
		}
		log.NewHelper(logger).Info("schema is up to date")
		return nil
	},
}

var recalculateCmd = &cobra.Command{
	Use:   "recalculate <movie-id>",
	Short: "Recompute a stored movie's rating from its vote counters",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		movieID, err := parseMovieID(args[0])
		if err != nil {
			return err
		}

		m, cleanup, err := newMaintenance()
		if err != nil {
			return err
		}
		defer cleanup()

		movie, err := m.ratings.RecalculateRating(cmd.Context(), movieID)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "movie %d: %d votes, rating %.2f\n", movie.ID, movie.VoteCount(), movie.Rating())
		return nil
	},
}

var evictCmd = &cobra.Command{
	Use:   "evict <movie-id>",
	Short: "Remove a materialized movie so it is fetched again on next access",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		movieID, err := parseMovieID(args[0])
		if err != nil {
			return err
		}

		m, cleanup, err := newMaintenance()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := m.movies.DeleteMovie(cmd.Context(), movieID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "movie %d evicted\n", movieID)
		return nil
	},
}

func newMaintenance() (*maintenance, func(), error) {
	bc, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	return wireMaintenance(bc.Data, bc.TMDb, newLogger())
}

func parseMovieID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid movie id %q", s)
	}
	return id, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagconf, "conf", "configs/config.yaml", "config path, eg: --conf config.yaml")
	rootCmd.AddCommand(serveCmd, migrateCmd, recalculateCmd, evictCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
