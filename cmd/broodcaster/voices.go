package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrWong99/broodcaster/internal/config"
	"github.com/MrWong99/broodcaster/pkg/provider/tts"
)

const voiceListTimeout = 10 * time.Second

// errUnknownVoice is returned by checkVoice when the server does not offer
// the configured voice.
var errUnknownVoice = errors.New("voice not offered by the speech server")

func voicesCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "voices",
		Short: "List the voices of the configured speech synthesisers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			reg := config.NewRegistry()
			registerBuiltinProviders(reg)
			return listVoices(cmd.Context(), cmd.OutOrStdout(), cfg.TTS, reg)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "config.yaml", "path to the YAML configuration file")
	return cmd
}

// listVoices prints the voices of every configured synthesiser. A provider
// that cannot be reached gets an error row instead of failing the listing.
func listVoices(ctx context.Context, w io.Writer, cfg config.TTSConfig, reg *config.Registry) error {
	if len(cfg.Providers) == 0 {
		return errors.New("no tts providers configured")
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PROVIDER\tID\tNAME\tCONFIGURED")
	for _, entry := range cfg.Providers {
		s, err := reg.CreateTTS(entry)
		if err != nil {
			fmt.Fprintf(tw, "%s\t-\terror: %v\t\n", entry.Name, err)
			continue
		}
		lctx, cancel := context.WithTimeout(ctx, voiceListTimeout)
		voices, err := s.ListVoices(lctx)
		cancel()
		if err != nil {
			fmt.Fprintf(tw, "%s\t-\terror: %v\t\n", entry.Name, err)
			continue
		}
		for _, v := range voices {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", entry.Name, v.ID, v.Name, v.ID == entry.Voice)
		}
	}
	return tw.Flush()
}

// checkVoice asks s whether it offers voice. An empty voice id selects the
// server's default speaker and always passes.
func checkVoice(ctx context.Context, s tts.Synthesizer, voice tts.Voice) error {
	if voice.ID == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, voiceListTimeout)
	defer cancel()
	voices, err := s.ListVoices(ctx)
	if err != nil {
		return fmt.Errorf("list voices: %w", err)
	}
	for _, v := range voices {
		if v.ID == voice.ID {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", errUnknownVoice, voice.ID)
}
