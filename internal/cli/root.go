package cli

import (
	"github.com/spf13/cobra"
)

var (
	configPath string
	useMemory  bool
)

var rootCmd = &cobra.Command{
	Use:   "ecan",
	Short: "Attention-economy maintenance for a hypergraph store",
	Long: "ecan charges every element of the graph rent in short- and long-term importance,\n" +
		"steering the bank's funds toward their targets, and forgets low-value elements\n" +
		"once the graph grows past its capacity.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.ecan/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&useMemory, "memory", false, "use an empty throwaway in-memory graph (smoke testing only)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(cycleCmd)
}
