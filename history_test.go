package chronograph

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/soundprediction/chronograph/pkg/driver"
	"github.com/soundprediction/chronograph/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDriver records queries and transactions and replays canned rows in
// order.
type fakeDriver struct {
	mu           sync.Mutex
	queries      []string
	params       []map[string]any
	transactions [][]driver.Statement
	rows         [][]map[string]any
	err          error
	closed       bool
}

func (f *fakeDriver) Run(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	f.params = append(f.params, params)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.rows) == 0 {
		return nil, nil
	}
	rows := f.rows[0]
	f.rows = f.rows[1:]
	return rows, nil
}

func (f *fakeDriver) RunTransaction(ctx context.Context, statements []driver.Statement) ([][]map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transactions = append(f.transactions, statements)
	if f.err != nil {
		return nil, f.err
	}
	return make([][]map[string]any, len(statements)), nil
}

func (f *fakeDriver) Close(ctx context.Context) error {
	f.closed = true
	return nil
}

func (f *fakeDriver) Provider() driver.GraphProvider { return driver.GraphProviderNeo4j }

func newTestClient(t *testing.T, fake *fakeDriver) *Client {
	t.Helper()
	client, err := NewClient(fake, &Config{
		RetentionDays: 90,
		ArchiveDir:    t.TempDir(),
	}, nil)
	require.NoError(t, err)
	return client
}

func countRows(n int) []map[string]any {
	return []map[string]any{{"count": int64(n)}}
}

func TestNewClient(t *testing.T) {
	t.Run("nil config gets defaults", func(t *testing.T) {
		client, err := NewClient(&fakeDriver{}, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, 90, client.config.RetentionDays)
	})

	t.Run("non-positive retention gets the default", func(t *testing.T) {
		client, err := NewClient(&fakeDriver{}, &Config{RetentionDays: -5}, nil)
		require.NoError(t, err)
		assert.Equal(t, 90, client.config.RetentionDays)
	})

	t.Run("close releases the driver", func(t *testing.T) {
		fake := &fakeDriver{}
		client := newTestClient(t, fake)
		require.NoError(t, client.Close(context.Background()))
		assert.True(t, fake.closed)
	})
}

func TestPruneHistory(t *testing.T) {
	ctx := context.Background()

	t.Run("dry run counts without deleting", func(t *testing.T) {
		fake := &fakeDriver{rows: [][]map[string]any{
			countRows(2), // checkpoints
			countRows(5), // closed edges
			countRows(9), // versions
		}}
		client := newTestClient(t, fake)

		result, err := client.PruneHistory(ctx, 30, &types.PruneOptions{DryRun: true})
		require.NoError(t, err)
		assert.True(t, result.DryRun)
		assert.Equal(t, 2, result.CheckpointsDeleted)
		assert.Equal(t, 5, result.EdgesClosed)
		assert.Equal(t, 9, result.VersionsDeleted)

		for _, q := range fake.queries {
			assert.NotContains(t, q, "DELETE")
		}
	})

	t.Run("real sweep deletes in checkpoint, edge, version order", func(t *testing.T) {
		fake := &fakeDriver{rows: [][]map[string]any{
			countRows(1),
			countRows(3),
			countRows(7),
		}}
		client := newTestClient(t, fake)

		result, err := client.PruneHistory(ctx, 30, nil)
		require.NoError(t, err)
		assert.False(t, result.DryRun)
		assert.Equal(t, 1, result.CheckpointsDeleted)
		assert.Equal(t, 3, result.EdgesClosed)
		assert.Equal(t, 7, result.VersionsDeleted)

		require.Len(t, fake.queries, 3)
		assert.Contains(t, fake.queries[0], "Checkpoint")
		assert.Contains(t, fake.queries[0], "DETACH DELETE c")
		assert.Contains(t, fake.queries[1], "RELATES_TO")
		assert.Contains(t, fake.queries[1], "DELETE r")
		assert.Contains(t, fake.queries[2], "Version")
		// Version pruning must honor checkpoint pinning.
		assert.True(t, strings.Contains(fake.queries[2], "NOT EXISTS"))
	})

	t.Run("cutoff reflects retention days", func(t *testing.T) {
		fake := &fakeDriver{rows: [][]map[string]any{
			countRows(0), countRows(0), countRows(0),
		}}
		client := newTestClient(t, fake)

		before := time.Now().UTC().AddDate(0, 0, -30)
		result, err := client.PruneHistory(ctx, 30, &types.PruneOptions{DryRun: true})
		require.NoError(t, err)
		after := time.Now().UTC().AddDate(0, 0, -30)

		assert.False(t, result.Cutoff.Before(before))
		assert.False(t, result.Cutoff.After(after))
	})

	t.Run("zero days falls back to the configured default", func(t *testing.T) {
		fake := &fakeDriver{rows: [][]map[string]any{
			countRows(0), countRows(0), countRows(0),
		}}
		client := newTestClient(t, fake)

		result, err := client.PruneHistory(ctx, 0, &types.PruneOptions{DryRun: true})
		require.NoError(t, err)

		expected := time.Now().UTC().AddDate(0, 0, -90)
		assert.WithinDuration(t, expected, result.Cutoff, time.Minute)
	})

	t.Run("negative days are rejected", func(t *testing.T) {
		client := newTestClient(t, &fakeDriver{})
		_, err := client.PruneHistory(ctx, -1, nil)
		assert.True(t, types.IsValidation(err))
	})
}

func TestGetHistoryMetrics(t *testing.T) {
	ctx := context.Background()

	fake := &fakeDriver{rows: [][]map[string]any{
		countRows(120),
		{{
			"checkpoints": int64(4),
			"avg_members": 2.5,
			"min_members": int64(0),
			"max_members": int64(6),
		}},
		{{
			"open":   int64(10),
			"closed": int64(32),
		}},
	}}
	client := newTestClient(t, fake)

	metrics, err := client.GetHistoryMetrics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 120, metrics.Versions)
	assert.Equal(t, 4, metrics.Checkpoints)
	assert.Equal(t, 2.5, metrics.CheckpointMembers.Avg)
	assert.Equal(t, 0, metrics.CheckpointMembers.Min)
	assert.Equal(t, 6, metrics.CheckpointMembers.Max)
	assert.Equal(t, 10, metrics.TemporalEdges.Open)
	assert.Equal(t, 32, metrics.TemporalEdges.Closed)
}

func TestGetEntityTimeline(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	fake := &fakeDriver{rows: [][]map[string]any{
		// versions for the entity
		{
			{"v": map[string]any{"id": "v1", "entity_id": "e1", "timestamp": t0.Add(2 * time.Hour), "change_set_id": "s1"}},
		},
		// edges touching the entity
		{
			{"r": map[string]any{"id": "r1", "edge_type": "CALLS", "from_id": "e1", "to_id": "e2", "valid_from": t0.Add(3 * time.Hour)}},
			{"r": map[string]any{"id": "r2", "edge_type": "CALLS", "from_id": "e3", "to_id": "e1", "valid_from": t0.Add(time.Hour)}},
		},
	}}
	client := newTestClient(t, fake)

	entries, err := client.GetEntityTimeline(ctx, "e1", nil)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Merged and ordered newest first across both fact kinds.
	assert.Equal(t, "edge", entries[0].Kind)
	assert.Equal(t, "r1", entries[0].Edge.ID)
	assert.Equal(t, "version", entries[1].Kind)
	assert.Equal(t, "v1", entries[1].Version.ID)
	assert.Equal(t, "edge", entries[2].Kind)
	assert.Equal(t, "r2", entries[2].Edge.ID)

	_, err = client.GetEntityTimeline(ctx, "", nil)
	assert.True(t, types.IsValidation(err))
}

func TestGetSessionImpacts(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	t.Run("aggregates facts into impacts", func(t *testing.T) {
		fake := &fakeDriver{rows: [][]map[string]any{
			// session versions
			{
				{"v": map[string]any{"id": "v1", "entity_id": "e1", "timestamp": t0, "change_set_id": "s1"}},
				{"v": map[string]any{"id": "v2", "entity_id": "e2", "timestamp": t0.Add(time.Hour), "change_set_id": "s1"}},
			},
			// session edges
			{
				{"r": map[string]any{"id": "r1", "edge_type": "CALLS", "from_id": "e2", "to_id": "e3", "valid_from": t0.Add(2 * time.Hour), "change_set_id": "s1"}},
			},
		}}
		client := newTestClient(t, fake)

		impacts, err := client.GetSessionImpacts(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, "s1", impacts.ChangeSetID)
		assert.Equal(t, 2, impacts.VersionCount)
		assert.Equal(t, 1, impacts.EdgeCount)
		assert.Equal(t, []string{"e1", "e2", "e3"}, impacts.EntitiesAffected)
		require.NotNil(t, impacts.Timespan)
		assert.True(t, impacts.Timespan.Earliest.Equal(t0))
		assert.True(t, impacts.Timespan.Latest.Equal(t0.Add(2*time.Hour)))
	})

	t.Run("no timestamped facts means no timespan", func(t *testing.T) {
		fake := &fakeDriver{rows: [][]map[string]any{nil, nil}}
		client := newTestClient(t, fake)

		impacts, err := client.GetSessionImpacts(ctx, "empty-session")
		require.NoError(t, err)
		assert.Zero(t, impacts.VersionCount)
		assert.Zero(t, impacts.EdgeCount)
		assert.Nil(t, impacts.Timespan)
	})
}

func TestGetSessionsAffectingEntity(t *testing.T) {
	ctx := context.Background()

	fake := &fakeDriver{rows: [][]map[string]any{{
		{"change_set_id": "s3"},
		{"change_set_id": "s1"},
	}}}
	client := newTestClient(t, fake)

	sessions, err := client.GetSessionsAffectingEntity(ctx, "e1", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"s3", "s1"}, sessions)
	assert.Contains(t, fake.queries[0], "UNION")

	_, err = client.GetSessionsAffectingEntity(ctx, "", nil)
	assert.True(t, types.IsValidation(err))
}

func TestExportCheckpointToFile(t *testing.T) {
	ctx := context.Background()
	ts := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	fake := &fakeDriver{rows: [][]map[string]any{
		// checkpoint.Get
		{{"c": map[string]any{"id": "cp-1", "reason": "snapshot", "timestamp": ts}, "members": int64(1)}},
		// members
		{{"e": map[string]any{"id": "e1", "entity_type": "function"}}},
		// intra-membership edges
		nil,
	}}
	client := newTestClient(t, fake)

	export, err := client.ExportCheckpointToFile(ctx, "cp-1")
	require.NoError(t, err)
	require.NotNil(t, export)

	// The archived file round-trips through the import path.
	loaded, err := client.Archive().Load("cp-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "cp-1", loaded.Checkpoint.ID)

	id, err := client.ImportCheckpointFromFile(ctx, "cp-1", &types.ImportOptions{UseOriginalID: true})
	require.NoError(t, err)
	assert.Equal(t, "cp-1", id)
}

func TestImportCheckpointFromFileMissing(t *testing.T) {
	client := newTestClient(t, &fakeDriver{})

	_, err := client.ImportCheckpointFromFile(context.Background(), "missing", nil)
	assert.True(t, types.IsNotFound(err))
}
