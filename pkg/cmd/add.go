package cmd

import (
	"github.com/spf13/cobra"

	"github.com/compkit/compkit/pkg/component"
	"github.com/compkit/compkit/pkg/installer"
)

type addOptions struct {
	version   string
	overwrite bool
}

func newAddCmd(g *globalOptions) *cobra.Command {
	opts := &addOptions{}
	cmd := &cobra.Command{
		Use:   "add [component[@version]...]",
		Short: "Add components to the project",
		Long: `Downloads the files of each component into the project and records the
requested version in components.json.

Without arguments every component listed in components.json is installed
again at its recorded version. Existing files are kept unless --overwrite
is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(cmd, g, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.version, "version", string(component.Latest), "version for components given without @version")
	cmd.Flags().BoolVar(&opts.overwrite, "overwrite", false, "replace files that already exist")
	return cmd
}

func runAdd(cmd *cobra.Command, g *globalOptions, opts *addOptions, args []string) error {
	s, err := g.openSession()
	if err != nil {
		return err
	}

	inst := &installer.Installer{
		Upstream:  s.upstream,
		Policy:    s.policy,
		Workspace: s.workspace,
		Versions:  s.versions,
		Logger:    g.logger,
	}

	res, err := inst.Add(cmd.Context(), installer.AddOptions{
		Components: args,
		Version:    component.Version(opts.version),
		Overwrite:  opts.overwrite,
	})
	if err != nil {
		return err
	}

	for _, f := range res.Written {
		g.println(cmd, "Wrote %s", f.Dest)
	}
	for _, dest := range res.Skipped {
		g.println(cmd, "Skipped %s (exists, use --overwrite to replace)", dest)
	}
	g.println(cmd, "Success!")
	return nil
}
