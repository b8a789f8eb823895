package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GTAManRCRX/wrapper-offline-fixed/config"
)

var voicesCmd = &cobra.Command{
	Use:   "voices",
	Short: "Print the voice catalog as XML",
	Long: `Print the voice catalog grouped by language, in the XML shape served by
GET /voices. Use --header to replace the configured XML prolog.`,
	RunE: runVoices,
}

func init() {
	rootCmd.AddCommand(voicesCmd)
	voicesCmd.Flags().String("header", config.DefaultXMLHeader, "XML prolog written before <voices>")
}

func runVoices(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, map[string]string{config.KeyXMLHeader: "header"})
	if err != nil {
		return err
	}
	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), cat.VoicesXML(cfg.XMLHeader))
	return err
}
