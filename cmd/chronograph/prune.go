package chronograph

import (
	"context"
	"fmt"
	"time"

	"github.com/soundprediction/chronograph/pkg/config"
	"github.com/soundprediction/chronograph/pkg/types"
	"github.com/spf13/cobra"
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Prune history older than the retention window",
	Long: `Prune sweeps checkpoints, closed edges, and versions older than the
retention cutoff. Versions whose entity belongs to any checkpoint are pinned
and never pruned.

Use --dry-run to preview what a sweep would remove without mutating the graph.`,
	RunE: runPrune,
}

var (
	pruneDays   int
	pruneDryRun bool
)

func init() {
	rootCmd.AddCommand(pruneCmd)

	pruneCmd.Flags().IntVar(&pruneDays, "days", 0, "Retention window in days (0 uses the configured default)")
	pruneCmd.Flags().BoolVar(&pruneDryRun, "dry-run", false, "Count prunable rows without deleting anything")
}

func runPrune(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	client, log, err := newHistoryClient(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	defer client.Close(context.Background())

	result, err := client.PruneHistory(ctx, pruneDays, &types.PruneOptions{DryRun: pruneDryRun})
	if err != nil {
		return fmt.Errorf("prune failed: %w", err)
	}

	verb := "deleted"
	if result.DryRun {
		verb = "would delete"
	}
	log.Info("prune finished",
		"dry_run", result.DryRun,
		"cutoff", result.Cutoff.Format(time.RFC3339),
	)
	fmt.Printf("Cutoff: %s\n", result.Cutoff.Format(time.RFC3339))
	fmt.Printf("Checkpoints %s: %d\n", verb, result.CheckpointsDeleted)
	fmt.Printf("Closed edges %s: %d\n", verb, result.EdgesClosed)
	fmt.Printf("Versions %s: %d\n", verb, result.VersionsDeleted)

	return nil
}
