package chronograph

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/soundprediction/chronograph/pkg/config"
	"github.com/soundprediction/chronograph/pkg/types"
	"github.com/spf13/cobra"
)

var checkpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "Manage checkpoint snapshots",
}

var checkpointCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a checkpoint from seed entities",
	RunE:  runCheckpointCreate,
}

var checkpointListCmd = &cobra.Command{
	Use:   "list",
	Short: "List checkpoints, newest first",
	RunE:  runCheckpointList,
}

var checkpointExportCmd = &cobra.Command{
	Use:   "export <checkpoint-id>",
	Short: "Export a checkpoint to the on-disk archive",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheckpointExport,
}

var checkpointImportCmd = &cobra.Command{
	Use:   "import <checkpoint-id>",
	Short: "Import a checkpoint from the on-disk archive",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheckpointImport,
}

var checkpointDeleteCmd = &cobra.Command{
	Use:   "delete <checkpoint-id>",
	Short: "Delete a checkpoint record and its membership edges",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheckpointDelete,
}

var (
	checkpointSeeds      string
	checkpointReason     string
	checkpointHops       int
	checkpointListLimit  int
	checkpointListOffset int
	checkpointOriginalID bool
)

func init() {
	rootCmd.AddCommand(checkpointCmd)
	checkpointCmd.AddCommand(checkpointCreateCmd)
	checkpointCmd.AddCommand(checkpointListCmd)
	checkpointCmd.AddCommand(checkpointExportCmd)
	checkpointCmd.AddCommand(checkpointImportCmd)
	checkpointCmd.AddCommand(checkpointDeleteCmd)

	checkpointCreateCmd.Flags().StringVar(&checkpointSeeds, "seeds", "", "Comma-separated seed entity ids")
	checkpointCreateCmd.Flags().StringVar(&checkpointReason, "reason", "", "Human-readable reason for the snapshot")
	checkpointCreateCmd.Flags().IntVar(&checkpointHops, "hops", 0, "Expansion hops from the seeds (0 uses the default)")

	checkpointListCmd.Flags().IntVar(&checkpointListLimit, "limit", 20, "Page size")
	checkpointListCmd.Flags().IntVar(&checkpointListOffset, "offset", 0, "Page offset")

	checkpointImportCmd.Flags().BoolVar(&checkpointOriginalID, "use-original-id", false, "Reuse the exported checkpoint id")
}

func checkpointContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Minute)
}

func runCheckpointCreate(cmd *cobra.Command, args []string) error {
	seeds := strings.Split(checkpointSeeds, ",")
	var cleaned []string
	for _, s := range seeds {
		if s = strings.TrimSpace(s); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	if len(cleaned) == 0 {
		return fmt.Errorf("at least one seed entity is required (--seeds)")
	}
	if strings.TrimSpace(checkpointReason) == "" {
		return fmt.Errorf("a reason is required (--reason)")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	client, _, err := newHistoryClient(cfg)
	if err != nil {
		return err
	}
	defer client.Close(context.Background())

	ctx, cancel := checkpointContext()
	defer cancel()

	result, err := client.CreateCheckpoint(ctx, cleaned, &types.CreateCheckpointOptions{
		Reason: checkpointReason,
		Hops:   checkpointHops,
	})
	if err != nil {
		return fmt.Errorf("checkpoint creation failed: %w", err)
	}

	fmt.Printf("Created checkpoint %s with %d members\n", result.CheckpointID, result.MemberCount)
	return nil
}

func runCheckpointList(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	client, _, err := newHistoryClient(cfg)
	if err != nil {
		return err
	}
	defer client.Close(context.Background())

	ctx, cancel := checkpointContext()
	defer cancel()

	page, err := client.ListCheckpoints(ctx, &types.ListCheckpointsOptions{
		Limit:  checkpointListLimit,
		Offset: checkpointListOffset,
	})
	if err != nil {
		return fmt.Errorf("checkpoint listing failed: %w", err)
	}

	fmt.Printf("%d checkpoints total\n", page.Total)
	for _, cp := range page.Items {
		fmt.Printf("%s  %s  members=%d  %s\n",
			cp.ID, cp.Timestamp.Format(time.RFC3339), cp.MemberCount, cp.Reason)
	}
	return nil
}

func runCheckpointExport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	client, _, err := newHistoryClient(cfg)
	if err != nil {
		return err
	}
	defer client.Close(context.Background())

	ctx, cancel := checkpointContext()
	defer cancel()

	export, err := client.ExportCheckpointToFile(ctx, args[0])
	if err != nil {
		return fmt.Errorf("checkpoint export failed: %w", err)
	}
	if export == nil {
		return fmt.Errorf("checkpoint not found: %s", args[0])
	}

	fmt.Printf("Exported checkpoint %s: %d entities, %d relationships -> %s\n",
		args[0], len(export.Entities), len(export.Relationships), client.Archive().Dir())
	return nil
}

func runCheckpointImport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	client, _, err := newHistoryClient(cfg)
	if err != nil {
		return err
	}
	defer client.Close(context.Background())

	ctx, cancel := checkpointContext()
	defer cancel()

	checkpointID, err := client.ImportCheckpointFromFile(ctx, args[0], &types.ImportOptions{
		UseOriginalID: checkpointOriginalID,
	})
	if err != nil {
		return fmt.Errorf("checkpoint import failed: %w", err)
	}

	fmt.Printf("Imported checkpoint %s\n", checkpointID)
	return nil
}

func runCheckpointDelete(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	client, _, err := newHistoryClient(cfg)
	if err != nil {
		return err
	}
	defer client.Close(context.Background())

	ctx, cancel := checkpointContext()
	defer cancel()

	if err := client.DeleteCheckpoint(ctx, args[0]); err != nil {
		return fmt.Errorf("checkpoint deletion failed: %w", err)
	}

	fmt.Printf("Deleted checkpoint %s\n", args[0])
	return nil
}
