package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/helixml/factual"
	"github.com/helixml/factual/domain/match"
	"github.com/helixml/factual/internal/log"
)

func checkCmd() *cobra.Command {
	var (
		envFile string
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "check <claim or URL>",
		Short: "Rank articles related to a claim and print them",
		Long: `Search for articles related to a claim or article URL, rank them by
similarity and sentiment agreement and print the result as a table.

Configuration is read the same way as for serve.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), cmd.OutOrStdout(), envFile, strings.Join(args, " "), limit)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum rows to print, 0 for all")

	return cmd
}

func runCheck(ctx context.Context, out io.Writer, envFile, query string, limit int) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}
	slogger := log.NewLogger(cfg).Slog()

	opts, err := clientOptions(cfg, slogger)
	if err != nil {
		return err
	}
	client, err := factual.New(opts...)
	if err != nil {
		return fmt.Errorf("create factual client: %w", err)
	}
	defer func() { _ = client.Close() }()

	ranked, err := client.Match.Check(ctx, query)
	if err != nil {
		return fmt.Errorf("check: %w", err)
	}
	return printRanked(out, ranked, limit)
}

// printRanked writes one row per record in ranked order.
func printRanked(out io.Writer, ranked match.Ranked, limit int) error {
	if ranked.Empty() {
		_, err := fmt.Fprintln(out, "no matching articles")
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "RANK\tMATCH\tSIMILARITY\tAGREEMENT\tTITLE\tURL")
	for i, r := range ranked.Records() {
		if limit > 0 && i >= limit {
			break
		}
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%.3f\t%.3f\t%s\t%s\n",
			i+1, match.Percent(r.Score()), r.Similarity(), r.Agreement(), truncate(r.Title(), 60), r.URL())
	}
	return tw.Flush()
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
