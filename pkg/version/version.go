// Package version records immutable version facts for graph entities.
//
// Every entity mutation is captured as one append-only Version node. Version
// recording is deliberately decoupled from entity existence so that history
// survives out-of-order writes: the VERSION_OF link is created only when the
// entity node already exists, but the fact itself is always persisted.
package version

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/soundprediction/chronograph/pkg/driver"
	"github.com/soundprediction/chronograph/pkg/types"
)

// Manager appends and reads version facts.
type Manager struct {
	driver driver.GraphDriver
	logger *slog.Logger
}

// NewManager creates a new version manager.
func NewManager(d driver.GraphDriver, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{driver: d, logger: logger}
}

// AppendVersion persists one immutable version fact for the entity and
// returns its id. The timestamp defaults to now and the fact is tagged with
// the change-set id when one is supplied.
func (m *Manager) AppendVersion(ctx context.Context, entity *types.Entity, opts *types.AppendOptions) (string, error) {
	if entity == nil || entity.ID == "" {
		return "", &types.ValidationError{Field: "entity", Reason: "id is required"}
	}
	if opts == nil {
		opts = &types.AppendOptions{}
	}

	timestamp := opts.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	version := &types.Version{
		ID:          uuid.New().String(),
		EntityID:    entity.ID,
		Hash:        contentHash(entity),
		Timestamp:   timestamp,
		ChangeSetID: opts.ChangeSetID,
	}
	if path, ok := entity.Properties["path"].(string); ok {
		version.Path = path
	}
	if language, ok := entity.Properties["language"].(string); ok {
		version.Language = language
	}

	query := `
		CREATE (v:Version {id: $id, entity_id: $entity_id, hash: $hash,
		                   timestamp: $timestamp, change_set_id: $change_set_id,
		                   path: $path, language: $language})
		WITH v
		OPTIONAL MATCH (e:Entity {id: $entity_id})
		FOREACH (x IN CASE WHEN e IS NULL THEN [] ELSE [e] END |
			MERGE (v)-[:VERSION_OF]->(x))
		RETURN v.id AS id
	`
	params := map[string]any{
		"id":            version.ID,
		"entity_id":     version.EntityID,
		"hash":          version.Hash,
		"timestamp":     version.Timestamp,
		"change_set_id": version.ChangeSetID,
		"path":          version.Path,
		"language":      version.Language,
	}

	if _, err := m.driver.Run(ctx, query, params); err != nil {
		return "", types.NewStoreError("append version", err)
	}

	m.logger.Debug("appended version",
		"version_id", version.ID, "entity_id", version.EntityID, "change_set_id", version.ChangeSetID)
	return version.ID, nil
}

// GetVersion retrieves one version fact. A missing id returns nil, not an
// error.
func (m *Manager) GetVersion(ctx context.Context, id string) (*types.Version, error) {
	rows, err := m.driver.Run(ctx, `
		MATCH (v:Version {id: $id})
		RETURN v
	`, map[string]any{"id": id})
	if err != nil {
		return nil, types.NewStoreError("get version", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	props, ok := driver.AsMap(rows[0]["v"])
	if !ok {
		return nil, nil
	}
	return driver.VersionFromProps(props), nil
}

// GetEntityVersions returns the entity's version history ordered newest
// first, bounded by the options.
func (m *Manager) GetEntityVersions(ctx context.Context, entityID string, opts *types.TimelineOptions) ([]*types.Version, error) {
	if opts == nil {
		opts = &types.TimelineOptions{}
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}

	rows, err := m.driver.Run(ctx, `
		MATCH (v:Version {entity_id: $entity_id})
		WHERE ($since IS NULL OR v.timestamp >= $since)
		  AND ($until IS NULL OR v.timestamp <= $until)
		RETURN v
		ORDER BY v.timestamp DESC
		LIMIT $limit
	`, map[string]any{
		"entity_id": entityID,
		"since":     timeOrNil(opts.Since),
		"until":     timeOrNil(opts.Until),
		"limit":     limit,
	})
	if err != nil {
		return nil, types.NewStoreError("get entity versions", err)
	}

	versions := make([]*types.Version, 0, len(rows))
	for _, row := range rows {
		if props, ok := driver.AsMap(row["v"]); ok {
			versions = append(versions, driver.VersionFromProps(props))
		}
	}
	return versions, nil
}

// CountPrunable counts versions older than the cutoff that are not pinned by
// any surviving checkpoint's membership. Read-only; used by dry runs.
func (m *Manager) CountPrunable(ctx context.Context, cutoff time.Time) (int, error) {
	rows, err := m.driver.Run(ctx, prunableVersionsMatch+`
		RETURN count(v) AS count
	`, map[string]any{"cutoff": cutoff})
	if err != nil {
		return 0, types.NewStoreError("count prunable versions", err)
	}
	return countFromRows(rows), nil
}

// DeletePrunable deletes versions older than the cutoff, excluding any
// version whose entity is a member of a surviving checkpoint. Pinning is
// enforced by the query predicate, not by a foreign-key constraint.
func (m *Manager) DeletePrunable(ctx context.Context, cutoff time.Time) (int, error) {
	rows, err := m.driver.Run(ctx, prunableVersionsMatch+`
		DETACH DELETE v
		RETURN count(v) AS count
	`, map[string]any{"cutoff": cutoff})
	if err != nil {
		return 0, types.NewStoreError("delete prunable versions", err)
	}
	deleted := countFromRows(rows)
	m.logger.Info("pruned versions", "deleted", deleted, "cutoff", cutoff)
	return deleted, nil
}

// prunableVersionsMatch selects versions past the cutoff whose entity is not
// included in any still-existing checkpoint.
const prunableVersionsMatch = `
		MATCH (v:Version)
		WHERE v.timestamp < $cutoff
		  AND NOT EXISTS {
			MATCH (:Checkpoint)-[:INCLUDES]->(e:Entity {id: v.entity_id})
		  }
`

// contentHash computes a stable digest of the entity's identity and property
// bag. json.Marshal sorts map keys, so equal bags hash equally.
func contentHash(entity *types.Entity) string {
	payload := map[string]any{
		"id":         entity.ID,
		"type":       entity.Type,
		"properties": entity.Properties,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		data = []byte(entity.ID)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func timeOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func countFromRows(rows []map[string]any) int {
	if len(rows) == 0 {
		return 0
	}
	count, _ := driver.AsInt(rows[0]["count"])
	return count
}
