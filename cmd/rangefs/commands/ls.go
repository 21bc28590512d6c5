package commands

import (
	"fmt"
	"text/tabwriter"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func newLsCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "ls [container...]",
		Short: "List containers and their objects",
		Long: `Enumerate every container in the store, or only the named ones, with the
key and size of each object. Enumeration is all-or-nothing: any listing
failure aborts the command without partial output.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := a.enumerate(cmd.Context(), args)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(catalog)
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
			for _, c := range catalog.Containers {
				if _, err := fmt.Fprintf(tw, "%s/\t%d objects\t\n", c.Name, len(c.Objects)); err != nil {
					return err
				}
				for _, obj := range c.Objects {
					if _, err := fmt.Fprintf(tw, "%s\t%d\t\n", obj.Key, obj.Size); err != nil {
						return err
					}
				}
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the catalog as JSON")
	return cmd
}
