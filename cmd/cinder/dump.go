package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cinder/internal/ir"
)

var dumpCmd = &cobra.Command{
	Use:   "dump <module.irpack>",
	Short: "Print the IR listing of a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, typesIn, err := readSnapshotFile(args[0])
		if err != nil {
			return err
		}
		if err := ir.Validate(m, typesIn); err != nil {
			return fmt.Errorf("%s: malformed module: %w", args[0], err)
		}
		return ir.DumpModule(cmd.OutOrStdout(), m, typesIn)
	},
}
