package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/GTAManRCRX/wrapper-offline-fixed/api"
	"github.com/GTAManRCRX/wrapper-offline-fixed/config"
	"github.com/GTAManRCRX/wrapper-offline-fixed/logger"
)

var sayCmd = &cobra.Command{
	Use:   "say",
	Short: "Synthesize one line of text to MP3",
	Long: `Synthesize text with a catalog voice and write the MP3 audio to a file,
or to stdout when --output is "-".

Text longer than max_text_length runes is truncated before it is sent.`,
	Example: `  ttsgate say --voice ryan --text "Hello there" -o hello.mp3`,
	RunE:    runSay,
}

func init() {
	rootCmd.AddCommand(sayCmd)
	sayCmd.Flags().String("voice", "", "Catalog voice id (required)")
	sayCmd.Flags().String("text", "", "Text to speak (required)")
	sayCmd.Flags().StringP("output", "o", "-", "Output file, - for stdout")
	sayCmd.Flags().Int("max-length", 0, "Override max_text_length")
	_ = sayCmd.MarkFlagRequired("voice")
	_ = sayCmd.MarkFlagRequired("text")
}

func runSay(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, map[string]string{config.KeyMaxTextLength: "max-length"})
	if err != nil {
		return err
	}
	voice, _ := cmd.Flags().GetString("voice")
	text, _ := cmd.Flags().GetString("text")
	output, _ := cmd.Flags().GetString("output")
	if voice == "" || text == "" {
		return errors.New("both --voice and --text are required")
	}

	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	d := newDispatcher(cfg, cat, nil, nil)

	res, err := d.ProcessVoice(cmd.Context(), voice, api.TruncateText(text, cfg.MaxTextLength))
	if err != nil {
		return err
	}
	defer res.Close()

	var w io.Writer = cmd.OutOrStdout()
	if output != "-" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", output, err)
		}
		defer f.Close()
		w = f
	}

	n, err := io.Copy(w, res.Reader())
	if err != nil {
		return fmt.Errorf("failed to write audio: %w", err)
	}
	logger.InfoContext(cmd.Context(), "audio written", "voice", voice, "bytes", n, "output", output)
	return nil
}
