package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "entropyd",
	Short: "Entropy variables: string values that decay over time",
	Long:  "entropyd manages decaying string values, backed by the entropy_mem kernel device when available and by a deterministic simulation otherwise.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(demoCmd)
}
