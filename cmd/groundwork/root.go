package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "groundwork",
	Short: "Validated LLM pipelines for grounded content generation",
	Long: "Groundwork runs staged language-model pipelines whose outputs are\n" +
		"validated before acceptance: grounded mind maps from web pages,\n" +
		"tailored job applications, and technical market analyses.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.AddCommand(mindmapCmd)
	rootCmd.AddCommand(jobappCmd)
	rootCmd.AddCommand(marketCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
