// Package cli provides the command-line interface for the simulator.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "wsnsim",
	Short: "A discrete-event wireless sensor network routing simulator",
	Long: `wsnsim replays a wireless sensor network's sensing and routing
traffic as a discrete-event simulation: nodes exchange hello,
measurement, and routing-control packets over a shared medium with
per-link delay, and the sink's received log is reduced into a
per-source performance report (deadline miss ratio, mean/median
delay, and a delay histogram).

Supports min-hop, ETX, and DAP routing protocols, each pluggable via
the routing_protocol setting in the run configuration.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "simulation config file (YAML, TOML, or JSON)")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (json, text)")

	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// initConfig reads environment variables (the run config file itself
// is loaded explicitly by each subcommand via simconfig.Load, since it
// has its own schema distinct from viper's ambient settings).
func initConfig() {
	viper.SetEnvPrefix("WSNSIM")
	viper.AutomaticEnv()
}
