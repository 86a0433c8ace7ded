package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"cinder/internal/driver"
	"cinder/internal/ir"
	"cinder/internal/observ"
	"cinder/internal/project"
	"cinder/internal/types"
)

var (
	optOutput  string
	optJobs    int
	optTimings bool
	optPrint   bool
	optConfig  string
)

func init() {
	optCmd.Flags().StringVarP(&optOutput, "output", "o", "", "write the optimized snapshot to this path")
	optCmd.Flags().IntVar(&optJobs, "jobs", 0, "functions to process in parallel (0 = all cores)")
	optCmd.Flags().BoolVar(&optTimings, "timings", false, "show timing information")
	optCmd.Flags().BoolVar(&optPrint, "print", false, "print the optimized IR to stdout")
	optCmd.Flags().StringVar(&optConfig, "config", "", "path to cinder.toml (default: next to the input)")
}

var optCmd = &cobra.Command{
	Use:   "opt <module.irpack>",
	Short: "Run dead-code elimination over an IR snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := args[0]

		cfgPath := optConfig
		if cfgPath == "" {
			cfgPath = filepath.Join(filepath.Dir(input), project.DefaultConfigName)
		}
		cfg, err := project.LoadConfig(cfgPath)
		if err != nil {
			return err
		}

		jobs := optJobs
		if jobs == 0 {
			jobs = cfg.Optimize.Jobs
		}
		timings := optTimings || cfg.Optimize.Timings

		m, typesIn, err := readSnapshotFile(input)
		if err != nil {
			return err
		}
		if err := ir.Validate(m, typesIn); err != nil {
			return fmt.Errorf("%s: malformed input module: %w", input, err)
		}

		timer := observ.NewTimer()
		stats, err := driver.Optimize(cmd.Context(), m, typesIn, driver.Options{
			Jobs:  jobs,
			Timer: timer,
		})
		if err != nil {
			return err
		}
		if err := ir.Validate(m, typesIn); err != nil {
			return fmt.Errorf("pass broke module invariants: %w", err)
		}

		quiet, _ := cmd.Flags().GetBool("quiet")
		if !quiet {
			removed := color.New(color.FgGreen, color.Bold)
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s blocks, %s instructions\n",
				removed.Sprintf("%d", stats.BlocksRemoved),
				removed.Sprintf("%d", stats.InstrsRemoved))
		}
		if timings {
			fmt.Fprint(cmd.OutOrStdout(), timer.Summary())
		}
		if optPrint {
			if err := ir.DumpModule(cmd.OutOrStdout(), m, typesIn); err != nil {
				return err
			}
		}
		if optOutput != "" {
			if err := writeSnapshotFile(optOutput, m, typesIn); err != nil {
				return err
			}
		}
		return nil
	},
}

func readSnapshotFile(path string) (*ir.Module, *types.Interner, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return ir.ReadSnapshot(f)
}

// writeSnapshotFile writes atomically: snapshot to a temp file first,
// then rename over the target.
func writeSnapshotFile(path string, m *ir.Module, typesIn *types.Interner) error {
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, "tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	if err := ir.WriteSnapshot(f, m, typesIn); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}
