package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/vendo-org/vendo/cmd/flags"
)

var RootCmd = &cobra.Command{
	Use:   "vendo",
	Short: "Coin-operated network access core",
	Long: `vendo turns coin-slot pulses into time-limited network access grants
under the control of a hardware-bound license gate.`,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().StringVar(&flags.DataDir, "data", "data", "data folder")
	RootCmd.PersistentFlags().StringVar(&flags.Config, "config", "", "config file")
	RootCmd.PersistentFlags().BoolVar(&flags.Debug, "debug", false, "start with debug mode")
	RootCmd.PersistentFlags().BoolVar(&flags.LogStd, "log-std", false, "force to log to std")
}
