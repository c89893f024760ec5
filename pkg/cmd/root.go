package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/compkit/compkit/pkg/config"
	"github.com/compkit/compkit/pkg/policy"
	"github.com/compkit/compkit/pkg/source"
	"github.com/compkit/compkit/pkg/versionmap"
	"github.com/compkit/compkit/pkg/workspace"
)

// globalOptions holds persistent flags and the state resolved from them
// before any subcommand runs.
type globalOptions struct {
	configPath       string
	cwd              string
	logLevel         string
	logFormat        string
	noComponentsJSON bool
	quiet            bool

	dev    *config.DevConfig
	logger *slog.Logger
}

func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "compkit",
		Short: "Copy versioned components from a GitHub repository",
		Long: `compkit copies named components out of a tagged upstream GitHub repository
into your project, records installed versions in components.json and shows
what would change before you upgrade.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "project config file (default: compkit.toml in the project directory)")
	flags.StringVar(&opts.cwd, "cwd", "", "project directory (default: current directory)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&opts.logFormat, "log-format", "", "log format: text or json")
	flags.BoolVar(&opts.noComponentsJSON, "no-components-json", false, "do not read or write components.json")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "only print errors")

	root.AddCommand(newInitCmd(opts))
	root.AddCommand(newAddCmd(opts))
	root.AddCommand(newDiffCmd(opts))
	root.AddCommand(newRemoveCmd(opts))
	root.AddCommand(newTagsCmd(opts))

	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func (o *globalOptions) resolve(cmd *cobra.Command) error {
	if o.cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting working directory: %w", err)
		}
		o.cwd = wd
	}
	abs, err := filepath.Abs(o.cwd)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", o.cwd, err)
	}
	o.cwd = abs

	dev, err := config.LoadDevConfig(o.cwd, config.Flags{LogLevel: o.logLevel, LogFormat: o.logFormat})
	if err != nil {
		return err
	}
	o.dev = dev
	o.logger = newLogger(cmd.ErrOrStderr(), dev.LogLevel, dev.LogFormat, o.quiet)
	return nil
}

func newLogger(w io.Writer, level, format string, quiet bool) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	if quiet && l < slog.LevelError {
		l = slog.LevelError
	}

	handlerOpts := &slog.HandlerOptions{Level: l}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

// println writes a status line unless --quiet is set.
func (o *globalOptions) println(cmd *cobra.Command, format string, args ...any) {
	if o.quiet {
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), format+"\n", args...)
}

// session is everything a command needs to talk to the upstream and the
// local project.
type session struct {
	cfg       *config.Config
	policy    *policy.Policy
	upstream  source.Upstream
	workspace workspace.Workspace
	// versions is nil when components.json is disabled.
	versions versionmap.Store
}

func (o *globalOptions) configFile() (string, error) {
	if o.configPath != "" {
		if filepath.IsAbs(o.configPath) {
			return o.configPath, nil
		}
		return filepath.Join(o.cwd, o.configPath), nil
	}
	return config.Find(o.cwd)
}

func (o *globalOptions) openSession() (*session, error) {
	path, err := o.configFile()
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := policy.FromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	gh := source.NewGitHub(source.NewHTTPClient(o.dev.Token, o.dev.Timeout), cfg.Repo.Owner, cfg.Repo.Name)
	if o.dev.APIURL != "" {
		gh.APIURL = o.dev.APIURL
	}
	if o.dev.RawURL != "" {
		gh.RawURL = o.dev.RawURL
	}

	s := &session{
		cfg:       cfg,
		policy:    p,
		upstream:  gh,
		workspace: workspace.New(o.cwd),
		versions:  o.versionStore(cfg),
	}
	o.logger.Debug("session", "config", path, "repo", cfg.Repo.Owner+"/"+cfg.Repo.Name, "components_json", s.versions != nil)
	return s, nil
}

// versionsFile returns the components.json path, or false when it is turned
// off by flag or config.
func (o *globalOptions) versionsFile(cfg *config.Config) (string, bool) {
	if o.noComponentsJSON || cfg.DisableComponentsJSON {
		return "", false
	}
	return versionmap.NewFileStore(o.cwd, cfg.ComponentsJSON).Path, true
}

func (o *globalOptions) versionStore(cfg *config.Config) versionmap.Store {
	path, ok := o.versionsFile(cfg)
	if !ok {
		return nil
	}
	return &versionmap.FileStore{Path: path}
}
