package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/compkit/compkit/pkg/installer"
)

func newRemoveCmd(g *globalOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "remove component...",
		Short: "Remove installed components",
		Long:  "Deletes the local files of each component and drops it from components.json.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(cmd, g, args, yes)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "remove without asking for confirmation")
	return cmd
}

func runRemove(cmd *cobra.Command, g *globalOptions, names []string, yes bool) error {
	s, err := g.openSession()
	if err != nil {
		return err
	}

	if !yes {
		confirmed := false
		err := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Remove %s?", strings.Join(names, ", "))).
					Value(&confirmed),
			),
		).Run()
		if err != nil {
			return fmt.Errorf("confirmation prompt failed: %w", err)
		}
		if !confirmed {
			g.println(cmd, "Nothing removed")
			return nil
		}
	}

	inst := &installer.Installer{
		Upstream:  s.upstream,
		Policy:    s.policy,
		Workspace: s.workspace,
		Versions:  s.versions,
		Logger:    g.logger,
	}

	res, err := inst.Remove(cmd.Context(), names)
	if err != nil {
		return err
	}
	for _, dest := range res.Removed {
		g.println(cmd, "Removed %s", dest)
	}
	g.println(cmd, "Removed %d component(s)", len(names))
	return nil
}
