package chronograph

import (
	"context"
	"log/slog"
	"time"

	"github.com/soundprediction/chronograph/pkg/checkpoint"
	"github.com/soundprediction/chronograph/pkg/driver"
	"github.com/soundprediction/chronograph/pkg/temporal"
	"github.com/soundprediction/chronograph/pkg/types"
	"github.com/soundprediction/chronograph/pkg/version"
)

// History is the facade contract consumed by API and administration layers.
// It composes version recording, the bitemporal edge lifecycle, checkpoint
// snapshotting, retention pruning, and session-scoped analytics into one
// surface. All inputs and outputs are JSON-serializable.
type History interface {
	// AppendVersion records an immutable content fact for the entity and
	// returns the new version id.
	AppendVersion(ctx context.Context, entity *types.Entity, opts *types.AppendOptions) (string, error)

	// GetVersion retrieves one version fact; nil when missing.
	GetVersion(ctx context.Context, id string) (*types.Version, error)

	// GetEntityVersions returns an entity's version history, newest first.
	GetEntityVersions(ctx context.Context, entityID string, opts *types.TimelineOptions) ([]*types.Version, error)

	// OpenEdge opens a new edge instance for (fromID, toID, edgeType),
	// closing any currently open instance at the same timestamp first.
	OpenEdge(ctx context.Context, fromID, toID, edgeType string, timestamp time.Time, changeSetID string) error

	// CloseEdge closes the open edge instance for the identity. A missing or
	// already-closed edge is a no-op.
	CloseEdge(ctx context.Context, fromID, toID, edgeType string, timestamp time.Time) error

	// TimeTravelTraversal walks the graph from startID keeping only edges
	// valid at the requested instant.
	TimeTravelTraversal(ctx context.Context, startID string, opts *types.TraversalOptions) (*types.Subgraph, error)

	// PruneHistory sweeps checkpoints, closed edges, and unpinned versions
	// older than the retention cutoff. Dry runs count without mutating.
	PruneHistory(ctx context.Context, retentionDays int, opts *types.PruneOptions) (*types.PruneResult, error)

	// Checkpoint lifecycle.
	CreateCheckpoint(ctx context.Context, seedEntities []string, opts *types.CreateCheckpointOptions) (*types.CreateCheckpointResult, error)
	ListCheckpoints(ctx context.Context, opts *types.ListCheckpointsOptions) (*types.CheckpointPage, error)
	GetCheckpoint(ctx context.Context, id string) (*types.Checkpoint, error)
	GetCheckpointMembers(ctx context.Context, id string) ([]*types.Entity, error)
	GetCheckpointSummary(ctx context.Context, id string) (*types.CheckpointSummary, error)
	ExportCheckpoint(ctx context.Context, id string) (*types.CheckpointExport, error)
	ImportCheckpoint(ctx context.Context, payload *types.CheckpointExport, opts *types.ImportOptions) (string, error)
	DeleteCheckpoint(ctx context.Context, id string) error

	// GetHistoryMetrics aggregates counts across the temporal stores.
	GetHistoryMetrics(ctx context.Context) (*types.HistoryMetrics, error)

	// CreateIndices creates the store indexes the engine's queries rely on.
	CreateIndices(ctx context.Context) error

	// Session analytics, joining versions and edges on change-set and entity
	// identifiers. Pure reads.
	GetEntityTimeline(ctx context.Context, entityID string, opts *types.TimelineOptions) ([]*types.TimelineEntry, error)
	GetRelationshipTimeline(ctx context.Context, fromID, toID, edgeType string) ([]*types.TemporalEdge, error)
	GetSessionTimeline(ctx context.Context, changeSetID string, opts *types.TimelineOptions) ([]*types.TimelineEntry, error)
	GetSessionImpacts(ctx context.Context, changeSetID string) (*types.SessionImpacts, error)
	GetSessionsAffectingEntity(ctx context.Context, entityID string, opts *types.TimelineOptions) ([]string, error)
	GetChangesForSession(ctx context.Context, changeSetID string, opts *types.TimelineOptions) (*types.SessionChanges, error)

	// Close releases the underlying store connection.
	Close(ctx context.Context) error
}

// Config holds configuration for the history client.
type Config struct {
	// RetentionDays is the default retention window for PruneHistory calls
	// that pass a non-positive value.
	RetentionDays int
	// ArchiveDir is where checkpoint exports are written on disk. Empty
	// falls back to the system temp directory.
	ArchiveDir string
}

// Client is the main implementation of the History interface. It holds no
// persistent in-process state beyond per-identity edge locks and is safe to
// instantiate once and share across concurrent callers.
type Client struct {
	driver      driver.GraphDriver
	versions    *version.Manager
	temporal    *temporal.Service
	checkpoints *checkpoint.Service
	archive     *checkpoint.Archive
	config      *Config
	logger      *slog.Logger
}

// compile-time check that Client satisfies the facade contract.
var _ History = (*Client)(nil)

// NewClient creates a new history client over the given graph store driver.
func NewClient(d driver.GraphDriver, config *Config, logger *slog.Logger) (*Client, error) {
	if config == nil {
		config = &Config{RetentionDays: 90}
	}
	if config.RetentionDays <= 0 {
		config.RetentionDays = 90
	}
	if logger == nil {
		logger = slog.Default()
	}

	archive, err := checkpoint.NewArchive(config.ArchiveDir)
	if err != nil {
		return nil, err
	}

	return &Client{
		driver:      d,
		versions:    version.NewManager(d, logger),
		temporal:    temporal.NewService(d, logger),
		checkpoints: checkpoint.NewService(d, logger),
		archive:     archive,
		config:      config,
		logger:      logger,
	}, nil
}

// GetDriver returns the underlying graph store driver.
func (c *Client) GetDriver() driver.GraphDriver {
	return c.driver
}

// CreateIndices creates the store indexes the engine's queries rely on.
func (c *Client) CreateIndices(ctx context.Context) error {
	return driver.CreateIndices(ctx, c.driver)
}

// Close releases the underlying store connection.
func (c *Client) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

// AppendVersion implements History.
func (c *Client) AppendVersion(ctx context.Context, entity *types.Entity, opts *types.AppendOptions) (string, error) {
	return c.versions.AppendVersion(ctx, entity, opts)
}

// GetVersion retrieves one version fact; nil when missing.
func (c *Client) GetVersion(ctx context.Context, id string) (*types.Version, error) {
	return c.versions.GetVersion(ctx, id)
}

// GetEntityVersions returns an entity's version history, newest first.
func (c *Client) GetEntityVersions(ctx context.Context, entityID string, opts *types.TimelineOptions) ([]*types.Version, error) {
	return c.versions.GetEntityVersions(ctx, entityID, opts)
}

// OpenEdge implements History.
func (c *Client) OpenEdge(ctx context.Context, fromID, toID, edgeType string, timestamp time.Time, changeSetID string) error {
	return c.temporal.OpenEdge(ctx, fromID, toID, edgeType, timestamp, changeSetID)
}

// CloseEdge implements History.
func (c *Client) CloseEdge(ctx context.Context, fromID, toID, edgeType string, timestamp time.Time) error {
	return c.temporal.CloseEdge(ctx, fromID, toID, edgeType, timestamp)
}

// TimeTravelTraversal implements History.
func (c *Client) TimeTravelTraversal(ctx context.Context, startID string, opts *types.TraversalOptions) (*types.Subgraph, error) {
	return c.temporal.TraverseAt(ctx, startID, opts)
}

// CreateCheckpoint implements History.
func (c *Client) CreateCheckpoint(ctx context.Context, seedEntities []string, opts *types.CreateCheckpointOptions) (*types.CreateCheckpointResult, error) {
	return c.checkpoints.Create(ctx, seedEntities, opts)
}

// ListCheckpoints implements History.
func (c *Client) ListCheckpoints(ctx context.Context, opts *types.ListCheckpointsOptions) (*types.CheckpointPage, error) {
	return c.checkpoints.List(ctx, opts)
}

// GetCheckpoint implements History.
func (c *Client) GetCheckpoint(ctx context.Context, id string) (*types.Checkpoint, error) {
	return c.checkpoints.Get(ctx, id)
}

// GetCheckpointMembers implements History.
func (c *Client) GetCheckpointMembers(ctx context.Context, id string) ([]*types.Entity, error) {
	return c.checkpoints.GetMembers(ctx, id)
}

// GetCheckpointSummary implements History.
func (c *Client) GetCheckpointSummary(ctx context.Context, id string) (*types.CheckpointSummary, error) {
	return c.checkpoints.GetSummary(ctx, id)
}

// ExportCheckpoint implements History.
func (c *Client) ExportCheckpoint(ctx context.Context, id string) (*types.CheckpointExport, error) {
	return c.checkpoints.Export(ctx, id)
}

// ImportCheckpoint implements History.
func (c *Client) ImportCheckpoint(ctx context.Context, payload *types.CheckpointExport, opts *types.ImportOptions) (string, error) {
	return c.checkpoints.Import(ctx, payload, opts)
}

// DeleteCheckpoint implements History.
func (c *Client) DeleteCheckpoint(ctx context.Context, id string) error {
	return c.checkpoints.Delete(ctx, id)
}

// ExportCheckpointToFile exports a checkpoint and writes it to the on-disk
// archive. Returns the export so callers can inspect what was written; nil
// when the checkpoint does not exist.
func (c *Client) ExportCheckpointToFile(ctx context.Context, id string) (*types.CheckpointExport, error) {
	export, err := c.checkpoints.Export(ctx, id)
	if err != nil {
		return nil, err
	}
	if export == nil {
		return nil, nil
	}
	if err := c.archive.Save(export); err != nil {
		return nil, err
	}
	c.logger.Info("archived checkpoint export", "checkpoint_id", id, "dir", c.archive.Dir())
	return export, nil
}

// ImportCheckpointFromFile loads an archived export and imports it. A
// missing archive file reports a NotFoundError.
func (c *Client) ImportCheckpointFromFile(ctx context.Context, id string, opts *types.ImportOptions) (string, error) {
	export, err := c.archive.Load(id)
	if err != nil {
		return "", err
	}
	if export == nil {
		return "", &types.NotFoundError{Resource: "archived checkpoint", ID: id}
	}
	return c.checkpoints.Import(ctx, export, opts)
}

// Archive exposes the on-disk checkpoint archive.
func (c *Client) Archive() *checkpoint.Archive {
	return c.archive
}
