package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a simulation config file without running it",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		fmt.Printf("OK: %d nodes, %d links, %s routing\n", len(cfg.Network.Nodes), len(cfg.Network.Links), cfg.RoutingProtocol)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
