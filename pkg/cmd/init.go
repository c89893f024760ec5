package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/compkit/compkit/pkg/config"
	"github.com/compkit/compkit/pkg/project"
	"github.com/compkit/compkit/pkg/source"
	"github.com/compkit/compkit/pkg/versionmap"
)

type initOptions struct {
	owner string
	repo  string
	dir   string
	extra []string
}

func newInitCmd(g *globalOptions) *cobra.Command {
	opts := &initOptions{}
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize compkit in a project",
		Long: `Creates compkit.toml (when missing) and writes an empty components.json.

An existing components.json is replaced. Use --extra key=value to add
top-level fields; values that are valid JSON are stored as JSON.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, g, opts)
		},
	}

	cmd.Flags().StringVar(&opts.owner, "owner", "", "upstream repository owner")
	cmd.Flags().StringVar(&opts.repo, "repo", "", "upstream repository name, or owner/repo")
	cmd.Flags().StringVar(&opts.dir, "dir", config.DefaultDir, "directory components are written to")
	cmd.Flags().StringArrayVar(&opts.extra, "extra", nil, "extra components.json field as key=value (repeatable)")
	return cmd
}

func runInit(cmd *cobra.Command, g *globalOptions, opts *initOptions) error {
	extra, err := project.ParseExtra(opts.extra)
	if err != nil {
		return err
	}

	cfg, err := initConfig(cmd, g, opts)
	if err != nil {
		return err
	}

	if path, ok := g.versionsFile(cfg); ok {
		if err := project.InitVersions(&versionmap.FileStore{Path: path}, extra); err != nil {
			return err
		}
		g.println(cmd, "Created %s", filepath.Base(path))
	}

	added, err := project.EnsureGitignore(g.cwd, project.GitignoreEntries)
	if err != nil {
		return err
	}
	for _, entry := range added {
		g.println(cmd, "Added %s to .gitignore", entry)
	}

	g.println(cmd, "Success!")
	return nil
}

// initConfig loads the existing project config, or creates one from flags
// and prompts.
func initConfig(cmd *cobra.Command, g *globalOptions, opts *initOptions) (*config.Config, error) {
	if path, err := g.configFile(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return config.LoadFile(path)
		}
	}

	owner, repo := opts.owner, opts.repo
	if owner == "" && strings.Contains(repo, "/") {
		var err error
		if owner, repo, err = source.ParseRepo(repo); err != nil {
			return nil, err
		}
	}
	if owner == "" || repo == "" {
		if repo == "" {
			repo = project.InferRepo(g.cwd)
		}
		if err := promptRepo(&owner, &repo); err != nil {
			return nil, err
		}
	}
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("both --owner and --repo are required")
	}

	cfg := config.Default(owner, repo)
	cfg.Dir = opts.dir
	path, err := project.InitConfig(g.cwd, cfg)
	if err != nil {
		return nil, err
	}
	g.println(cmd, "Created %s", filepath.Base(path))
	return cfg, nil
}

// promptRepo uses huh to ask for the upstream repository.
func promptRepo(owner, repo *string) error {
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Upstream repository owner").
				Value(owner),
			huh.NewInput().
				Title("Upstream repository name").
				Value(repo),
		),
	).Run()
	if err != nil {
		return fmt.Errorf("prompt failed: %w", err)
	}
	return nil
}
