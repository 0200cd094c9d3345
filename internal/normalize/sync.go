package normalize

import (
	"strings"
)

// SyncMode says how a sync payload applies to the prior event set.
type SyncMode string

const (
	// SyncMerge upserts records into the existing set.
	SyncMerge SyncMode = "merge"
	// SyncReplace discards the prior set before applying upserts.
	SyncReplace SyncMode = "replace"
)

// SyncPayload is the decoded shape of an external synchronization message.
type SyncPayload struct {
	Mode       SyncMode
	Records    []any
	DeletedIDs []string
}

var recordArrayKeys = []string{
	"events", "records", "items", "data", "detections", "alerts", "payload",
}

var deletedIDKeys = []string{
	"deleted_ids", "deletedIds", "removed_ids", "removedIds",
}

var deleteOpWords = map[string]bool{
	"delete": true, "deleted": true, "remove": true, "removed": true, "del": true,
}

// ParseSyncPayload decodes a sync message from any external source: a bare
// record array, or an object carrying a mode, a record array under one of
// the recognized keys, and optional deletion lists. Returns false when no
// record array (or deletion list) can be located.
func ParseSyncPayload(raw any) (SyncPayload, bool) {
	payload := SyncPayload{Mode: SyncMerge}

	switch v := raw.(type) {
	case []any:
		payload.Records = v
	case map[string]any:
		payload.Mode = parseSyncMode(v)
		for _, key := range recordArrayKeys {
			if arr, ok := v[key].([]any); ok {
				payload.Records = arr
				break
			}
		}
		for _, key := range deletedIDKeys {
			arr, ok := v[key].([]any)
			if !ok {
				continue
			}
			for _, elem := range arr {
				if id := asString(elem); id != "" {
					payload.DeletedIDs = append(payload.DeletedIDs, id)
				}
			}
		}
	default:
		return SyncPayload{}, false
	}

	// Per-record deletion ops move ids to the deletion list.
	kept := make([]any, 0, len(payload.Records))
	for _, rawRec := range payload.Records {
		rec, isMap := rawRec.(map[string]any)
		if !isMap {
			kept = append(kept, rawRec)
			continue
		}
		op, _ := stringField(rec, []string{"op", "operation", "action"})
		if !deleteOpWords[strings.ToLower(op)] {
			kept = append(kept, rawRec)
			continue
		}
		if id, ok := stringField(rec, idKeys); ok {
			payload.DeletedIDs = append(payload.DeletedIDs, id)
		}
	}
	payload.Records = kept

	if len(payload.Records) == 0 && len(payload.DeletedIDs) == 0 {
		return SyncPayload{}, false
	}
	return payload, true
}

func parseSyncMode(obj map[string]any) SyncMode {
	v, ok := lookup(obj, []string{"mode", "sync_mode", "syncMode"})
	if !ok {
		return SyncMerge
	}

	if b, isBool := v.(bool); isBool {
		// Boolean "replace"/"full" flag.
		if b {
			return SyncReplace
		}
		return SyncMerge
	}

	switch strings.ToLower(asString(v)) {
	case "replace", "snapshot", "full", "reset":
		return SyncReplace
	case "merge", "delta", "upsert", "incremental", "partial":
		return SyncMerge
	default:
		return SyncMerge
	}
}
