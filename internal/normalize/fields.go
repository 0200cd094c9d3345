package normalize

import (
	"math"
	"strconv"
	"strings"
)

// Candidate key paths per logical field, tried in order. Dotted paths
// traverse nested objects. Keeping the cascade as data keeps it reproducible
// and testable instead of scattering literals through the adapter.
var (
	idKeys = []string{
		"id", "event_id", "eventId", "detection_id", "detectionId",
		"uuid", "alert_id", "alertId", "detection.id", "event.id",
	}
	cameraKeys = []string{
		"camera_id", "cameraId", "camera", "cam_id", "cam",
		"sensor_id", "sensorId", "camera.id", "source_camera",
	}
	trackKeys = []string{
		"track_id", "trackId", "track", "tracking_id", "trackingId",
		"object_id", "objectId",
	}
	storeKeys = []string{
		"store_id", "storeId", "site_id", "siteId", "location_id", "locationId",
	}
	zoneKeys = []string{
		"zone_id", "zoneId", "zone", "area_id", "areaId", "area", "region",
	}
	typeKeys = []string{
		"type", "event_type", "eventType", "detection_type", "detectionType",
		"category", "class", "classification", "kind",
	}
	statusKeys = []string{
		"incident_status", "incidentStatus", "status", "state",
	}
	rawStatusKeys = []string{
		"raw_status", "rawStatus", "status", "state",
	}
	severityKeys = []string{
		"severity", "level", "priority", "sev",
	}
	confidenceKeys = []string{
		"confidence", "score", "conf", "probability",
	}
	sourceKeys = []string{
		"source", "origin", "provider", "feed",
	}
	detectedAtKeys = []string{
		"detected_at", "detectedAt", "ts", "timestamp", "time",
		"event_time", "eventTime", "occurred_at", "occurredAt",
		"detection.timestamp",
	}
	ingestedAtKeys = []string{
		"ingested_at", "ingestedAt", "received_at", "receivedAt",
	}
	latencyKeys = []string{
		"latency_ms", "latencyMs", "latency",
	}
	xKeys = []string{"x", "norm_x", "x_norm", "nx", "pos_x", "posX"}
	yKeys = []string{"y", "norm_y", "y_norm", "ny", "pos_y", "posY"}

	worldXKeys = []string{
		"world_x_meters", "worldXMeters", "world_x", "worldX", "x_meters", "x_m",
	}
	worldZKeys = []string{
		"world_z_meters", "worldZMeters", "world_z", "worldZ", "z_meters", "z_m",
		"world_y", "worldY", "y_meters", "y_m",
	}
	bboxKeys = []string{
		"bbox", "box", "bounding_box", "boundingBox", "rect", "detection.bbox",
	}
	frameWidthKeys = []string{
		"frame_width", "frameWidth", "image_width", "imageWidth", "frame.width",
	}
	frameHeightKeys = []string{
		"frame_height", "frameHeight", "image_height", "imageHeight", "frame.height",
	}
	positionKeys = []string{
		"position", "location", "point", "coords", "coordinates",
	}
	objectLabelKeys = []string{
		"object_label", "objectLabel", "object", "class_name", "className", "label",
	}
	modelVersionKeys = []string{
		"model_version", "modelVersion", "model",
	}
	noteKeys = []string{
		"note", "message", "description", "details",
	}
)

// lookup returns the first value present under any of the candidate paths.
func lookup(record map[string]any, paths []string) (any, bool) {
	for _, path := range paths {
		if v, ok := dig(record, path); ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func dig(record map[string]any, path string) (any, bool) {
	cur := any(record)
	for {
		dot := strings.IndexByte(path, '.')
		key := path
		if dot >= 0 {
			key = path[:dot]
		}
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
		if dot < 0 {
			return cur, true
		}
		path = path[dot+1:]
	}
}

func stringField(record map[string]any, paths []string) (string, bool) {
	v, ok := lookup(record, paths)
	if !ok {
		return "", false
	}
	s := asString(v)
	if s == "" {
		return "", false
	}
	return s, true
}

func floatField(record map[string]any, paths []string) (float64, bool) {
	v, ok := lookup(record, paths)
	if !ok {
		return 0, false
	}
	return asFloat(v)
}

// asString renders scalar identifiers to strings; numeric ids are common in
// third-party feeds.
func asString(v any) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		if s == math.Trunc(s) && math.Abs(s) < 1e15 {
			return strconv.FormatInt(int64(s), 10)
		}
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case bool:
		return strconv.FormatBool(s)
	default:
		return ""
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// asPair extracts a two-element numeric array.
func asPair(v any) (x, y float64, ok bool) {
	arr, isArr := v.([]any)
	if !isArr || len(arr) != 2 {
		return 0, 0, false
	}
	x, okX := asFloat(arr[0])
	y, okY := asFloat(arr[1])
	return x, y, okX && okY
}
