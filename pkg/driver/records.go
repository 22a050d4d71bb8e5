package driver

import (
	"encoding/json"

	"github.com/soundprediction/chronograph/pkg/types"
)

// Graph schema constants shared by every query the engine issues. Entity
// nodes are owned by collaborating services; Version and Checkpoint nodes and
// the RELATES_TO / INCLUDES relationships are owned by this engine.
const (
	LabelEntity     = "Entity"
	LabelVersion    = "Version"
	LabelCheckpoint = "Checkpoint"
	RelRelatesTo    = "RELATES_TO"
	RelIncludes     = "INCLUDES"
	RelVersionOf    = "VERSION_OF"
)

// reserved entity property keys that are not part of the caller's bag.
var reservedEntityKeys = map[string]bool{
	"id":          true,
	"entity_type": true,
	"kind":        true,
	"_labels":     true,
}

// EntityFromProps builds an Entity from a flattened node property map.
func EntityFromProps(props map[string]any) *types.Entity {
	entity := &types.Entity{}
	if id, ok := AsString(props["id"]); ok {
		entity.ID = id
	}
	if entityType, ok := AsString(props["entity_type"]); ok {
		entity.Type = entityType
	}
	if kind, ok := AsString(props["kind"]); ok {
		entity.Kind = types.EntityKind(kind)
	}

	bag := make(map[string]any)
	for k, v := range props {
		if reservedEntityKeys[k] {
			continue
		}
		bag[k] = v
	}
	if len(bag) > 0 {
		entity.Properties = bag
	}
	return entity
}

// EntityToProps flattens an Entity into node properties. The caller's bag is
// merged under the reserved identity keys, which always win.
func EntityToProps(entity *types.Entity) map[string]any {
	props := make(map[string]any, len(entity.Properties)+3)
	for k, v := range entity.Properties {
		props[k] = v
	}
	props["id"] = entity.ID
	props["entity_type"] = entity.Type
	kind := entity.Kind
	if kind == "" {
		kind = types.EntityKindGeneric
	}
	props["kind"] = string(kind)
	return props
}

// reserved relationship property keys.
var reservedEdgeKeys = map[string]bool{
	"id":            true,
	"edge_type":     true,
	"from_id":       true,
	"to_id":         true,
	"valid_from":    true,
	"valid_to":      true,
	"change_set_id": true,
	"_type":         true,
}

// EdgeFromProps builds a TemporalEdge from a flattened relationship property
// map. The endpoint ids are stored on the relationship itself so edges stay
// addressable without re-resolving their endpoints.
func EdgeFromProps(props map[string]any) *types.TemporalEdge {
	edge := &types.TemporalEdge{}
	if id, ok := AsString(props["id"]); ok {
		edge.ID = id
	}
	if edgeType, ok := AsString(props["edge_type"]); ok {
		edge.Type = edgeType
	}
	if fromID, ok := AsString(props["from_id"]); ok {
		edge.FromID = fromID
	}
	if toID, ok := AsString(props["to_id"]); ok {
		edge.ToID = toID
	}
	if validFrom, ok := AsTime(props["valid_from"]); ok {
		edge.ValidFrom = validFrom
	}
	if validTo, ok := AsTime(props["valid_to"]); ok {
		edge.ValidTo = &validTo
	}
	if changeSetID, ok := AsString(props["change_set_id"]); ok {
		edge.ChangeSetID = changeSetID
	}

	bag := make(map[string]any)
	for k, v := range props {
		if reservedEdgeKeys[k] {
			continue
		}
		bag[k] = v
	}
	if len(bag) > 0 {
		edge.Properties = bag
	}
	return edge
}

// EdgeToProps flattens a TemporalEdge into relationship properties.
func EdgeToProps(edge *types.TemporalEdge) map[string]any {
	props := make(map[string]any, len(edge.Properties)+7)
	for k, v := range edge.Properties {
		props[k] = v
	}
	props["id"] = edge.ID
	props["edge_type"] = edge.Type
	props["from_id"] = edge.FromID
	props["to_id"] = edge.ToID
	props["valid_from"] = edge.ValidFrom
	if edge.ValidTo != nil {
		props["valid_to"] = *edge.ValidTo
	}
	if edge.ChangeSetID != "" {
		props["change_set_id"] = edge.ChangeSetID
	}
	return props
}

// VersionFromProps builds a Version from a flattened node property map.
func VersionFromProps(props map[string]any) *types.Version {
	version := &types.Version{}
	if id, ok := AsString(props["id"]); ok {
		version.ID = id
	}
	if entityID, ok := AsString(props["entity_id"]); ok {
		version.EntityID = entityID
	}
	if hash, ok := AsString(props["hash"]); ok {
		version.Hash = hash
	}
	if timestamp, ok := AsTime(props["timestamp"]); ok {
		version.Timestamp = timestamp
	}
	if changeSetID, ok := AsString(props["change_set_id"]); ok {
		version.ChangeSetID = changeSetID
	}
	if path, ok := AsString(props["path"]); ok {
		version.Path = path
	}
	if language, ok := AsString(props["language"]); ok {
		version.Language = language
	}
	return version
}

// CheckpointFromProps builds a Checkpoint from a flattened node property map.
// MemberCount is populated separately when the query aggregates membership.
func CheckpointFromProps(props map[string]any) *types.Checkpoint {
	checkpoint := &types.Checkpoint{}
	if id, ok := AsString(props["id"]); ok {
		checkpoint.ID = id
	}
	if timestamp, ok := AsTime(props["timestamp"]); ok {
		checkpoint.Timestamp = timestamp
	}
	if reason, ok := AsString(props["reason"]); ok {
		checkpoint.Reason = reason
	}
	if seeds, ok := AsStringSlice(props["seed_entities"]); ok {
		checkpoint.SeedEntities = seeds
	}
	if imported, ok := AsBool(props["imported"]); ok {
		checkpoint.Imported = imported
	}
	// Nested maps are not storable as graph properties, so metadata rides as
	// a JSON string.
	if raw, ok := AsString(props["metadata_json"]); ok && raw != "" {
		var metadata map[string]any
		if err := json.Unmarshal([]byte(raw), &metadata); err == nil {
			checkpoint.Metadata = metadata
		}
	}
	return checkpoint
}
