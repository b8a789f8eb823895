package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/GTAManRCRX/wrapper-offline-fixed/logger"
	"github.com/GTAManRCRX/wrapper-offline-fixed/version"
)

var rootCmd = &cobra.Command{
	Use:           "ttsgate",
	Short:         "Text-to-speech gateway over third-party voice providers",
	Version:       version.GetVersion(),
	SilenceUsage:  true,
	SilenceErrors: false,
	Long: `ttsgate resolves a catalog voice to the provider that serves it, speaks
the text through that provider's web protocol and returns MP3 audio.

It can list the voice catalog, synthesize a single line to a file, or serve
synthesis over HTTP with Prometheus metrics.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("verbose") {
			verbose, err := cmd.Flags().GetBool("verbose")
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error getting verbose flag: %v\n", err)
				return
			}
			logger.SetVerbose(verbose)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	rootCmd.SetVersionTemplate(version.GetVersionInfo() + "\n")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}
