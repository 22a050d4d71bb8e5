package chronograph

import (
	"context"
	"sort"
	"time"

	"github.com/soundprediction/chronograph/pkg/driver"
	"github.com/soundprediction/chronograph/pkg/types"
)

// defaultTimelineLimit bounds analytics reads when the caller gives none.
const defaultTimelineLimit = 100

// GetEntityTimeline returns every recorded fact about one entity, versions
// and the temporal edges touching it, merged into a single timeline ordered
// newest first.
func (c *Client) GetEntityTimeline(ctx context.Context, entityID string, opts *types.TimelineOptions) ([]*types.TimelineEntry, error) {
	if entityID == "" {
		return nil, &types.ValidationError{Field: "entity_id", Reason: "id is required"}
	}
	opts = normalizeTimeline(opts)

	versions, err := c.versions.GetEntityVersions(ctx, entityID, opts)
	if err != nil {
		return nil, err
	}

	rows, err := c.driver.Run(ctx, `
		MATCH ()-[r:RELATES_TO]->()
		WHERE (r.from_id = $entity_id OR r.to_id = $entity_id)
		  AND ($since IS NULL OR r.valid_from >= $since)
		  AND ($until IS NULL OR r.valid_from <= $until)
		RETURN r
		ORDER BY r.valid_from DESC
		LIMIT $limit
	`, map[string]any{
		"entity_id": entityID,
		"since":     ptrTimeOrNil(opts.Since),
		"until":     ptrTimeOrNil(opts.Until),
		"limit":     opts.Limit,
	})
	if err != nil {
		return nil, types.NewStoreError("get entity timeline", err)
	}

	entries := make([]*types.TimelineEntry, 0, len(versions)+len(rows))
	for _, v := range versions {
		entries = append(entries, &types.TimelineEntry{
			Kind:        "version",
			Timestamp:   v.Timestamp,
			EntityID:    v.EntityID,
			ChangeSetID: v.ChangeSetID,
			Version:     v,
		})
	}
	for _, row := range rows {
		props, ok := driver.AsMap(row["r"])
		if !ok {
			continue
		}
		edge := driver.EdgeFromProps(props)
		entries = append(entries, &types.TimelineEntry{
			Kind:        "edge",
			Timestamp:   edge.ValidFrom,
			EntityID:    entityID,
			ChangeSetID: edge.ChangeSetID,
			Edge:        edge,
		})
	}

	return sortAndTrim(entries, opts.Limit), nil
}

// GetRelationshipTimeline returns the full interval history of one edge
// identity, oldest first.
func (c *Client) GetRelationshipTimeline(ctx context.Context, fromID, toID, edgeType string) ([]*types.TemporalEdge, error) {
	return c.temporal.GetEdgeInstances(ctx, fromID, toID, edgeType)
}

// GetSessionTimeline returns everything one change-set produced, versions
// and edges merged, ordered newest first.
func (c *Client) GetSessionTimeline(ctx context.Context, changeSetID string, opts *types.TimelineOptions) ([]*types.TimelineEntry, error) {
	if changeSetID == "" {
		return nil, &types.ValidationError{Field: "change_set_id", Reason: "id is required"}
	}
	opts = normalizeTimeline(opts)

	changes, err := c.GetChangesForSession(ctx, changeSetID, opts)
	if err != nil {
		return nil, err
	}

	entries := make([]*types.TimelineEntry, 0, len(changes.Versions)+len(changes.Edges))
	for _, v := range changes.Versions {
		entries = append(entries, &types.TimelineEntry{
			Kind:        "version",
			Timestamp:   v.Timestamp,
			EntityID:    v.EntityID,
			ChangeSetID: changeSetID,
			Version:     v,
		})
	}
	for _, edge := range changes.Edges {
		entries = append(entries, &types.TimelineEntry{
			Kind:        "edge",
			Timestamp:   edge.ValidFrom,
			EntityID:    edge.FromID,
			ChangeSetID: changeSetID,
			Edge:        edge,
		})
	}

	return sortAndTrim(entries, opts.Limit), nil
}

// GetSessionImpacts summarizes one change-set: fact counts, the distinct
// entities it touched, and the timespan between the earliest and latest
// timestamped fact. Timespan is absent when the session produced none.
func (c *Client) GetSessionImpacts(ctx context.Context, changeSetID string) (*types.SessionImpacts, error) {
	changes, err := c.GetChangesForSession(ctx, changeSetID, &types.TimelineOptions{Limit: 10000})
	if err != nil {
		return nil, err
	}

	impacts := &types.SessionImpacts{
		ChangeSetID:  changeSetID,
		VersionCount: len(changes.Versions),
		EdgeCount:    len(changes.Edges),
	}

	entitySet := map[string]bool{}
	var earliest, latest time.Time
	observe := func(t time.Time) {
		if t.IsZero() {
			return
		}
		if earliest.IsZero() || t.Before(earliest) {
			earliest = t
		}
		if latest.IsZero() || t.After(latest) {
			latest = t
		}
	}

	for _, v := range changes.Versions {
		entitySet[v.EntityID] = true
		observe(v.Timestamp)
	}
	for _, edge := range changes.Edges {
		entitySet[edge.FromID] = true
		entitySet[edge.ToID] = true
		observe(edge.ValidFrom)
	}

	impacts.EntitiesAffected = make([]string, 0, len(entitySet))
	for id := range entitySet {
		impacts.EntitiesAffected = append(impacts.EntitiesAffected, id)
	}
	sort.Strings(impacts.EntitiesAffected)

	if !earliest.IsZero() {
		impacts.Timespan = &types.Timespan{Earliest: earliest, Latest: latest}
	}
	return impacts, nil
}

// GetSessionsAffectingEntity returns the distinct change-set ids that
// touched the entity, through versions or edges, newest activity first.
func (c *Client) GetSessionsAffectingEntity(ctx context.Context, entityID string, opts *types.TimelineOptions) ([]string, error) {
	if entityID == "" {
		return nil, &types.ValidationError{Field: "entity_id", Reason: "id is required"}
	}
	opts = normalizeTimeline(opts)

	rows, err := c.driver.Run(ctx, `
		CALL {
			MATCH (v:Version {entity_id: $entity_id})
			WHERE v.change_set_id IS NOT NULL AND v.change_set_id <> ''
			RETURN v.change_set_id AS change_set_id, v.timestamp AS ts
			UNION
			MATCH ()-[r:RELATES_TO]->()
			WHERE (r.from_id = $entity_id OR r.to_id = $entity_id)
			  AND r.change_set_id IS NOT NULL AND r.change_set_id <> ''
			RETURN r.change_set_id AS change_set_id, r.valid_from AS ts
		}
		WITH change_set_id, max(ts) AS last_seen
		WHERE ($since IS NULL OR last_seen >= $since)
		  AND ($until IS NULL OR last_seen <= $until)
		RETURN change_set_id
		ORDER BY last_seen DESC
		LIMIT $limit
	`, map[string]any{
		"entity_id": entityID,
		"since":     ptrTimeOrNil(opts.Since),
		"until":     ptrTimeOrNil(opts.Until),
		"limit":     opts.Limit,
	})
	if err != nil {
		return nil, types.NewStoreError("get sessions affecting entity", err)
	}

	sessions := make([]string, 0, len(rows))
	for _, row := range rows {
		if id, ok := driver.AsString(row["change_set_id"]); ok && id != "" {
			sessions = append(sessions, id)
		}
	}
	return sessions, nil
}

// GetChangesForSession returns the raw fact set one change-set produced.
func (c *Client) GetChangesForSession(ctx context.Context, changeSetID string, opts *types.TimelineOptions) (*types.SessionChanges, error) {
	if changeSetID == "" {
		return nil, &types.ValidationError{Field: "change_set_id", Reason: "id is required"}
	}
	opts = normalizeTimeline(opts)

	rows, err := c.driver.Run(ctx, `
		MATCH (v:Version {change_set_id: $change_set_id})
		WHERE ($since IS NULL OR v.timestamp >= $since)
		  AND ($until IS NULL OR v.timestamp <= $until)
		RETURN v
		ORDER BY v.timestamp DESC
		LIMIT $limit
	`, map[string]any{
		"change_set_id": changeSetID,
		"since":         ptrTimeOrNil(opts.Since),
		"until":         ptrTimeOrNil(opts.Until),
		"limit":         opts.Limit,
	})
	if err != nil {
		return nil, types.NewStoreError("get session versions", err)
	}

	changes := &types.SessionChanges{
		ChangeSetID: changeSetID,
		Versions:    make([]*types.Version, 0, len(rows)),
		Edges:       []*types.TemporalEdge{},
	}
	for _, row := range rows {
		if props, ok := driver.AsMap(row["v"]); ok {
			changes.Versions = append(changes.Versions, driver.VersionFromProps(props))
		}
	}

	rows, err = c.driver.Run(ctx, `
		MATCH ()-[r:RELATES_TO {change_set_id: $change_set_id}]->()
		WHERE ($since IS NULL OR r.valid_from >= $since)
		  AND ($until IS NULL OR r.valid_from <= $until)
		RETURN r
		ORDER BY r.valid_from DESC
		LIMIT $limit
	`, map[string]any{
		"change_set_id": changeSetID,
		"since":         ptrTimeOrNil(opts.Since),
		"until":         ptrTimeOrNil(opts.Until),
		"limit":         opts.Limit,
	})
	if err != nil {
		return nil, types.NewStoreError("get session edges", err)
	}
	for _, row := range rows {
		if props, ok := driver.AsMap(row["r"]); ok {
			changes.Edges = append(changes.Edges, driver.EdgeFromProps(props))
		}
	}

	return changes, nil
}

func normalizeTimeline(opts *types.TimelineOptions) *types.TimelineOptions {
	if opts == nil {
		opts = &types.TimelineOptions{}
	}
	normalized := *opts
	if normalized.Limit <= 0 {
		normalized.Limit = defaultTimelineLimit
	}
	return &normalized
}

func sortAndTrim(entries []*types.TimelineEntry, limit int) []*types.TimelineEntry {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

func ptrTimeOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
