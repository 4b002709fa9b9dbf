package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mtrack/internal/auth"
	"github.com/desertthunder/mtrack/internal/repositories"
	"github.com/desertthunder/mtrack/internal/services"
	"github.com/desertthunder/mtrack/internal/shared"
	"github.com/desertthunder/mtrack/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer

	catalog *services.CatalogClient
	tokens  *auth.Cache
	spotify *services.SpotifyService

	db      *sql.DB
	library *repositories.Library
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	r := &Runner{
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
	r.setConfig(opts.Config)
	return r
}

// setConfig installs config and rebuilds the clients that depend on it.
func (r *Runner) setConfig(config *shared.Config) {
	r.config = config
	shared.SetLogLevel(r.logger, config.Server.LogLevel)

	catalogOpts := []services.CatalogOption{services.WithCatalogLogger(shared.WithLogger(r.logger, "component", "catalog"))}
	cacheOpts := []auth.Option{auth.WithLogger(shared.WithLogger(r.logger, "component", "auth"))}
	spotifyOpts := []services.SpotifyOption{services.WithSpotifyLogger(shared.WithLogger(r.logger, "component", "spotify"))}
	if r.httpClient != nil {
		catalogOpts = append(catalogOpts, services.WithCatalogHTTPClient(r.httpClient))
		cacheOpts = append(cacheOpts, auth.WithHTTPClient(r.httpClient))
		spotifyOpts = append(spotifyOpts, services.WithSpotifyHTTPClient(r.httpClient))
	}

	spotifyCfg := config.Credentials.Spotify
	r.catalog = services.NewCatalogClient(config.Catalog, catalogOpts...)
	r.tokens = auth.NewCache(spotifyCfg.TokenPath, auth.SpotifyOAuthConfig(spotifyCfg), cacheOpts...)
	r.spotify = services.NewSpotifyServiceFromConfig(config.Streaming, r.tokens, spotifyOpts...)
}

// LoadConfig reads path (falling back to defaults when it does not exist) and rebuilds the clients.
func (r *Runner) LoadConfig(path string) error {
	config, err := shared.LoadConfigOrDefault(path)
	if err != nil {
		return err
	}
	r.configPath = path
	r.setConfig(config)
	return nil
}

// SetLogger replaces the logger, e.g. to keep log lines out of the TUI.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
	r.setConfig(r.config)
}

// openLibrary opens the configured database, migrating it on first use.
func (r *Runner) openLibrary() (*repositories.Library, error) {
	if r.library != nil {
		return r.library, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	r.db = db
	r.library = repositories.NewLibrary(db)
	return r.library, nil
}

// Close releases the database, if one was opened.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db, r.library = nil, nil
	return err
}

func (r *Runner) aggregator() *tasks.Aggregator {
	return tasks.NewAggregator(r.spotify,
		tasks.WithWorkers(r.config.Streaming.ReleaseWorkers),
		tasks.WithLogger(shared.WithLogger(r.logger, "component", "aggregator")),
	)
}

// printProgress writes each update's message until the returned stop function is called.
//
// stop closes the channel and waits for pending lines so they never interleave with the summary.
func (r *Runner) printProgress(quiet bool) (chan<- tasks.ProgressUpdate, func()) {
	ch := make(chan tasks.ProgressUpdate, 50)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range ch {
			if !quiet {
				r.writePlain("  %s\n", update.Message)
			}
		}
	}()
	return ch, func() {
		close(ch)
		wg.Wait()
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, setupCommand, spotifyCommand, catalogCommand, libraryCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// closeLibrary is an After hook for commands that open the database.
func (r *Runner) closeLibrary(ctx context.Context, cmd *cli.Command) error {
	if err := r.Close(); err != nil {
		r.logger.Warn("failed to close database", "error", err)
	}
	return nil
}
