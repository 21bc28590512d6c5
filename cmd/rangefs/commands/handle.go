package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/justapithecus/rangefs/rangefs"
)

func newHandleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "handle <container> <key>",
		Short: "Print the serialized handle of an object",
		Long: `Stat an object and print its handle as JSON. Handles can be passed to other
processes and opened there without enumerating the store again.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, _, err := a.stat(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			data, err := rangefs.MarshalHandle(h)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}
}
