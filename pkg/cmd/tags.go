package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/compkit/compkit/pkg/resolver"
)

func newTagsCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List upstream tags",
		Long:  "Lists upstream tags in the order GitHub reports them and marks the tag \"latest\" resolves to.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.openSession()
			if err != nil {
				return err
			}

			tags, err := s.upstream.ListTags(cmd.Context())
			if err != nil {
				return err
			}
			latest, err := resolver.SelectLatest(tags, s.policy.IsValidTag)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, tag := range tags {
				switch {
				case tag == latest:
					fmt.Fprintf(out, "%s (latest)\n", tag)
				case !s.policy.ValidTag(tag):
					fmt.Fprintf(out, "%s (ignored)\n", tag)
				default:
					fmt.Fprintln(out, tag)
				}
			}
			return nil
		},
	}
}
