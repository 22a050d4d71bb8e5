// Package chronograph provides a versioned, bitemporal knowledge graph
// history engine for Go.
//
// Every mutation to a graph entity or relationship is recorded as an
// immutable fact with a validity interval, and named checkpoints let callers
// snapshot, export, import, and later reconstruct arbitrary past states of a
// subgraph. Chronograph orchestrates temporal semantics on top of an
// external graph store; it implements no storage engine of its own.
//
// # Basic Usage
//
// Create a client over a graph store driver:
//
//	store, err := driver.NewNeo4jDriver("bolt://localhost:7687", "neo4j", "password", "neo4j")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer store.Close(ctx)
//
//	client, err := chronograph.NewClient(store, nil, logger)
//
// Record history after each write:
//
//	versionID, err := client.AppendVersion(ctx, entity, &types.AppendOptions{ChangeSetID: session})
//	err = client.OpenEdge(ctx, "a", "b", "DEPENDS_ON", time.Time{}, session)
//
// Snapshot and time-travel:
//
//	result, err := client.CreateCheckpoint(ctx, []string{"a", "b"}, &types.CreateCheckpointOptions{Reason: "pre-refactor"})
//	subgraph, err := client.TimeTravelTraversal(ctx, "a", &types.TraversalOptions{Until: lastWeek})
//
// Retention pruning is destructive, so preview it first:
//
//	preview, _ := client.PruneHistory(ctx, 90, &types.PruneOptions{DryRun: true})
package chronograph
