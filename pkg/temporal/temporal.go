// Package temporal owns the bitemporal relationship lifecycle and
// time-filtered graph traversal.
//
// Every relationship identity (from, to, type) has at most one open edge
// instance at any time. Opening a new edge closes the existing open one at
// the new edge's ValidFrom; the close-then-open pair runs inside a single
// store transaction and under a per-identity mutex, so concurrent writers to
// the same identity cannot interleave.
package temporal

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/soundprediction/chronograph/pkg/driver"
	"github.com/soundprediction/chronograph/pkg/types"
)

// DefaultTraversalDepth bounds path expansion when the caller gives none.
const DefaultTraversalDepth = 3

// maxTraversalDepth caps caller-supplied depths. Unbounded expansion over a
// dense graph is a store killer.
const maxTraversalDepth = 10

// Service executes temporal edge transitions and time-travel traversals.
type Service struct {
	driver driver.GraphDriver
	logger *slog.Logger

	// identity-keyed mutexes serializing close-then-open transitions.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService creates a new temporal query service.
func NewService(d driver.GraphDriver, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		driver: d,
		logger: logger,
		locks:  map[string]*sync.Mutex{},
	}
}

// identityLock returns the mutex for one edge identity, creating it on first
// use. Locks are never removed; the identity space is bounded by the graph.
func (s *Service) identityLock(identity types.EdgeIdentity) *sync.Mutex {
	key := identity.String()
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[key] = lock
	}
	return lock
}

// OpenEdge opens a new edge instance for the identity at the given timestamp
// (default now). Any currently open edge for the identity is first closed at
// the same instant; close and open commit as one transaction. Missing
// endpoint entities are merged as stubs so history survives out-of-order
// writes.
func (s *Service) OpenEdge(ctx context.Context, fromID, toID, edgeType string, timestamp time.Time, changeSetID string) error {
	identity := types.EdgeIdentity{FromID: fromID, ToID: toID, Type: edgeType}
	if err := identity.Validate(); err != nil {
		return &types.ValidationError{Field: "edge identity", Reason: err.Error()}
	}
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	lock := s.identityLock(identity)
	lock.Lock()
	defer lock.Unlock()

	statements := []driver.Statement{
		{
			Query: `
				MATCH (a:Entity {id: $from_id})-[r:RELATES_TO {edge_type: $edge_type}]->(b:Entity {id: $to_id})
				WHERE r.valid_to IS NULL
				SET r.valid_to = $timestamp
			`,
			Params: map[string]any{
				"from_id":   fromID,
				"to_id":     toID,
				"edge_type": edgeType,
				"timestamp": timestamp,
			},
		},
		{
			Query: `
				MERGE (a:Entity {id: $from_id})
				MERGE (b:Entity {id: $to_id})
				CREATE (a)-[r:RELATES_TO {id: $id, edge_type: $edge_type,
					from_id: $from_id, to_id: $to_id,
					valid_from: $timestamp, change_set_id: $change_set_id}]->(b)
			`,
			Params: map[string]any{
				"id":            uuid.New().String(),
				"from_id":       fromID,
				"to_id":         toID,
				"edge_type":     edgeType,
				"timestamp":     timestamp,
				"change_set_id": changeSetID,
			},
		},
	}

	if _, err := s.driver.RunTransaction(ctx, statements); err != nil {
		return types.NewStoreError("open edge "+identity.String(), err)
	}

	s.logger.Debug("opened edge",
		"from", fromID, "to", toID, "type", edgeType, "valid_from", timestamp)
	return nil
}

// CloseEdge sets ValidTo on the currently open edge for the identity. A
// missing or already-closed edge is a no-op so that maintenance retries stay
// idempotent.
func (s *Service) CloseEdge(ctx context.Context, fromID, toID, edgeType string, timestamp time.Time) error {
	_, err := s.closeEdge(ctx, fromID, toID, edgeType, timestamp)
	return err
}

// CloseEdgeStrict behaves like CloseEdge but reports a ConsistencyError when
// no open edge exists for the identity.
func (s *Service) CloseEdgeStrict(ctx context.Context, fromID, toID, edgeType string, timestamp time.Time) error {
	closed, err := s.closeEdge(ctx, fromID, toID, edgeType, timestamp)
	if err != nil {
		return err
	}
	if closed == 0 {
		identity := types.EdgeIdentity{FromID: fromID, ToID: toID, Type: edgeType}
		return &types.ConsistencyError{Op: "close edge", Detail: "no open edge for identity " + identity.String()}
	}
	return nil
}

func (s *Service) closeEdge(ctx context.Context, fromID, toID, edgeType string, timestamp time.Time) (int, error) {
	identity := types.EdgeIdentity{FromID: fromID, ToID: toID, Type: edgeType}
	if err := identity.Validate(); err != nil {
		return 0, &types.ValidationError{Field: "edge identity", Reason: err.Error()}
	}
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	lock := s.identityLock(identity)
	lock.Lock()
	defer lock.Unlock()

	rows, err := s.driver.Run(ctx, `
		MATCH (a:Entity {id: $from_id})-[r:RELATES_TO {edge_type: $edge_type}]->(b:Entity {id: $to_id})
		WHERE r.valid_to IS NULL
		SET r.valid_to = $timestamp
		RETURN count(r) AS count
	`, map[string]any{
		"from_id":   fromID,
		"to_id":     toID,
		"edge_type": edgeType,
		"timestamp": timestamp,
	})
	if err != nil {
		return 0, types.NewStoreError("close edge "+identity.String(), err)
	}

	closed := 0
	if len(rows) > 0 {
		closed, _ = driver.AsInt(rows[0]["count"])
	}
	if closed > 0 {
		s.logger.Debug("closed edge",
			"from", fromID, "to", toID, "type", edgeType, "valid_to", timestamp)
	}
	return closed, nil
}

// GetOpenEdge returns the open edge instance for the identity, or nil when
// none is open.
func (s *Service) GetOpenEdge(ctx context.Context, fromID, toID, edgeType string) (*types.TemporalEdge, error) {
	rows, err := s.driver.Run(ctx, `
		MATCH (a:Entity {id: $from_id})-[r:RELATES_TO {edge_type: $edge_type}]->(b:Entity {id: $to_id})
		WHERE r.valid_to IS NULL
		RETURN r
		LIMIT 1
	`, map[string]any{
		"from_id":   fromID,
		"to_id":     toID,
		"edge_type": edgeType,
	})
	if err != nil {
		return nil, types.NewStoreError("get open edge", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	props, ok := driver.AsMap(rows[0]["r"])
	if !ok {
		return nil, nil
	}
	return driver.EdgeFromProps(props), nil
}

// GetEdgeInstances returns every edge instance recorded for the identity,
// oldest first. This is the full interval history, open instance included.
func (s *Service) GetEdgeInstances(ctx context.Context, fromID, toID, edgeType string) ([]*types.TemporalEdge, error) {
	rows, err := s.driver.Run(ctx, `
		MATCH (a:Entity {id: $from_id})-[r:RELATES_TO {edge_type: $edge_type}]->(b:Entity {id: $to_id})
		RETURN r
		ORDER BY r.valid_from ASC
	`, map[string]any{
		"from_id":   fromID,
		"to_id":     toID,
		"edge_type": edgeType,
	})
	if err != nil {
		return nil, types.NewStoreError("get edge instances", err)
	}

	edges := make([]*types.TemporalEdge, 0, len(rows))
	for _, row := range rows {
		if props, ok := driver.AsMap(row["r"]); ok {
			edges = append(edges, driver.EdgeFromProps(props))
		}
	}
	return edges, nil
}
