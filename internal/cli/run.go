package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/kprusa/wsnsim/internal/logging"
	"github.com/kprusa/wsnsim/internal/simconfig"
	"github.com/kprusa/wsnsim/internal/simulation"
	"github.com/kprusa/wsnsim/internal/stats"
	"github.com/kprusa/wsnsim/internal/topology"
)

var dryRun bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulation from a config file and print its performance report",
	Long: `Load a simulation config, run it to completion, and print the
sink's per-source performance report: deadline miss ratio, mean and
median end-to-end delay, and a delay histogram.

Use --dry-run to validate the configuration without running it.`,
	RunE: runSimulation,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate configuration without running the simulation")
}

func runSimulation(_ *cobra.Command, _ []string) error {
	logCfg := logging.Config{
		Level:  viper.GetString("logging.level"),
		Format: viper.GetString("logging.format"),
	}
	if err := logging.Initialize(logCfg); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if dryRun {
		fmt.Println("Configuration is valid!")
		fmt.Printf("  Nodes:    %d\n", len(cfg.Network.Nodes))
		fmt.Printf("  Links:    %d\n", len(cfg.Network.Links))
		fmt.Printf("  Protocol: %s\n", cfg.RoutingProtocol)
		fmt.Printf("  Run time: %.0fs (seed %d)\n", cfg.Run.Time, cfg.Run.Seed)
		return nil
	}

	sim, err := simulation.New(cfg, logging.With(zap.String("component", "simulation")))
	if err != nil {
		return fmt.Errorf("failed to construct simulation: %w", err)
	}

	sim.Run(cfg.Run.Time)
	printReports(sim.Reports())
	return nil
}

func loadConfig() (*simconfig.Config, error) {
	if cfgFile == "" {
		return nil, fmt.Errorf("a config file is required (-c/--config)")
	}
	cfg, err := simconfig.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func printReports(reports map[topology.Address]*stats.SourceReport) {
	sources := make([]topology.Address, 0, len(reports))
	for src := range reports {
		sources = append(sources, src)
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i] < sources[j] })

	for _, src := range sources {
		r := reports[src]
		fmt.Printf("%s: n=%d missed=%.2f%% mean=%.2fs median=%.2fs\n",
			src, len(r.Delays), r.DeadlineMissRatio*100, r.Mean, r.Median)
	}
}
