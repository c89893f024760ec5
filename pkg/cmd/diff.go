package cmd

import (
	"github.com/spf13/cobra"

	"github.com/compkit/compkit/pkg/component"
	"github.com/compkit/compkit/pkg/differ"
	"github.com/compkit/compkit/pkg/render"
)

type diffOptions struct {
	oldVersion string
	unified    bool
}

func newDiffCmd(g *globalOptions) *cobra.Command {
	opts := &diffOptions{}
	cmd := &cobra.Command{
		Use:   "diff component[@version]",
		Short: "Show how a component differs from an upstream version",
		Long: `Compares the installed files of a component with a new upstream version
(latest by default). Files the new version no longer has are shown as
removed.

The installed version is read from components.json unless --old-version is
given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd, g, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.oldVersion, "old-version", "", "installed version to compare against")
	cmd.Flags().BoolVar(&opts.unified, "unified", false, "print a unified diff instead of colored output")
	return cmd
}

func runDiff(cmd *cobra.Command, g *globalOptions, opts *diffOptions, request string) error {
	s, err := g.openSession()
	if err != nil {
		return err
	}

	e := &differ.Engine{
		Upstream:  s.upstream,
		Policy:    s.policy,
		Workspace: s.workspace,
		Versions:  s.versions,
		Logger:    g.logger,
	}

	diffs, err := e.Diff(cmd.Context(), differ.DiffOptions{
		Component:  request,
		OldVersion: component.Version(opts.oldVersion),
	})
	if err != nil {
		return err
	}

	if opts.unified {
		return render.Unified(cmd.OutOrStdout(), diffs)
	}
	return render.Colored(cmd.OutOrStdout(), diffs)
}
