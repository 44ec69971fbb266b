package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Swind/go-task-pool/config"
)

var rootCmd = &cobra.Command{
	Use:   "taskpool-bench",
	Short: "Load driver for the work-stealing task pool",
	Long: `taskpool-bench builds a pool from a YAML file, TASKPOOL_* environment
variables and flags (flags win), then runs a workload against it.`,
	SilenceUsage: true,
}

// v holds the merged flag, env and file configuration of this invocation.
var v = viper.New()

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringP("config", "c", "", "pool config file (YAML)")
	pf.Int("workers", 0, "worker count (0 = number of CPUs)")
	pf.String("mode", "", "scheduling mode: stealing or shared")
	pf.Int("idle-spins", 0, "yields before an idle worker parks (-1 never parks)")
	pf.Bool("pin-workers", false, "pin each worker to one CPU")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.String("log-format", "", "log format (console or json)")

	if err := bindFlags(v, pf, flagKeys); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(runCmd, configCmd)
}

// flagKeys maps flag names onto config keys. An unchanged flag falls through
// to env, file and defaults.
var flagKeys = map[string]string{
	"workers":     "workers",
	"mode":        "mode",
	"idle-spins":  "idle_spins",
	"pin-workers": "pin_workers",
	"log-level":   "log.level",
	"log-format":  "log.format",
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet, keys map[string]string) error {
	for name, key := range keys {
		f := fs.Lookup(name)
		if f == nil {
			return fmt.Errorf("unknown flag %q", name)
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %q: %w", name, err)
		}
	}
	return nil
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Config{}, err
	}
	return config.LoadWith(v, path)
}
