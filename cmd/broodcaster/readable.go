package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MrWong99/broodcaster/internal/config"
)

func readableCmd() *cobra.Command {
	var cfg config.ReadabilityConfig
	var fallback string
	cmd := &cobra.Command{
		Use:   "readable NAME...",
		Short: "Score bot names and show how they would be spoken",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scorer, err := newScorer(cfg)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSCORE\tREADABLE\tSPOKEN")
			for _, name := range args {
				fmt.Fprintf(tw, "%s\t%.3f\t%t\t%s\n",
					name, scorer.Score(name), scorer.Readable(name), scorer.ReadableName(name, fallback))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().Float64Var(&cfg.Threshold, "threshold", 0, "readability threshold (default built-in)")
	cmd.Flags().StringVar(&cfg.DictionaryPath, "dictionary", "", "newline-separated word list replacing the built-in one")
	cmd.Flags().StringVar(&fallback, "fallback", "-", "label printed for unreadable names")
	return cmd
}
