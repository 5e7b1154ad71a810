// Package cli implements the orgchart command-line interface.
//
// Commands cover the full lifecycle: serving the web API, refreshing the
// directory snapshot, exporting charts and spreadsheets, browsing the
// tree in the terminal, and managing the artifact cache. All commands
// support --verbose (-v) for debug-level logging.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/dbauto/orgchart/pkg/buildinfo"
	"github.com/dbauto/orgchart/pkg/cache"
	"github.com/dbauto/orgchart/pkg/config"
	"github.com/dbauto/orgchart/pkg/directory"
	"github.com/dbauto/orgchart/pkg/pipeline"
	"github.com/dbauto/orgchart/pkg/store"
)

const appName = "orgchart"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger     *log.Logger
	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Orgchart mirrors a company directory as an interactive chart",
		Long:         `Orgchart pulls the employee directory from the identity provider, builds the reporting hierarchy, and serves it as an interactive chart with exports and staffing reports.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to config file (TOML)")

	root.AddCommand(c.serveCommand())
	root.AddCommand(c.refreshCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.reportCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the config file named by --config (or the default
// location) and applies environment overrides.
func (c *CLI) loadConfig() (config.Config, error) {
	path := c.configPath
	if path == "" {
		path = defaultConfigPath()
	}
	return config.Load(path)
}

// newRunner wires a pipeline runner from the config: snapshot store,
// artifact cache, and directory client. The directory client is optional;
// commands that only read the stored snapshot work without credentials.
func (c *CLI) newRunner(ctx context.Context, cfg config.Config, noCache bool) (*pipeline.Runner, error) {
	st, err := newStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	backend, err := newCache(ctx, cfg, noCache)
	if err != nil {
		return nil, err
	}

	var fetcher pipeline.Fetcher
	if cfg.Directory.ClientID != "" {
		client, err := directory.NewClient(ctx, directory.Config{
			TenantID:     cfg.Directory.TenantID,
			ClientID:     cfg.Directory.ClientID,
			ClientSecret: cfg.Directory.ClientSecret,
			BaseURL:      cfg.Directory.BaseURL,
		})
		if err != nil {
			return nil, err
		}
		fetcher = client
	}

	return pipeline.NewRunner(fetcher, st, backend, nil, c.Logger), nil
}

func newStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	switch cfg.Store {
	case "mongo":
		return store.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
	default:
		return store.NewFileStore(cfg.DataDir)
	}
}

func newCache(ctx context.Context, cfg config.Config, noCache bool) (cache.Cache, error) {
	if noCache || cfg.Cache == "none" {
		return cache.NewNullCache(), nil
	}
	if cfg.Cache == "redis" {
		return cache.NewRedisCache(ctx, cfg.RedisURL)
	}
	dir := cfg.CacheDir
	if dir == "" {
		d, err := cacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		dir = d
	}
	return cache.NewFileCache(dir)
}

// newSettingsStore opens the persisted chart settings next to the snapshot.
func newSettingsStore(cfg config.Config) (*config.SettingsStore, error) {
	return config.NewSettingsStore(cfg.DataDir)
}

// cacheDir returns the cache directory using XDG standard (~/.cache/orgchart/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// defaultConfigPath returns the config file location used when --config
// is not given (~/.config/orgchart/config.toml, or XDG equivalent).
func defaultConfigPath() string {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName, "config.toml")
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// outputPath picks the artifact file name for a format. An explicit output
// wins for a single format; with several formats it becomes the base path.
func outputPath(output, format string, formats []string) string {
	if output == "" {
		return fmt.Sprintf("%s.%s", appName, format)
	}
	if len(formats) == 1 {
		return output
	}
	base := strings.TrimSuffix(output, filepath.Ext(output))
	return fmt.Sprintf("%s.%s", base, format)
}
