package world

import (
	"encoding/json"
	"fmt"
	"os"
)

// ZoneMapFile is the parsed static zone map configuration. All polygon data
// is in floor-plan pixel space.
type ZoneMapFile struct {
	MapWidthPx  float64 `json:"map_width_px"`
	MapHeightPx float64 `json:"map_height_px"`

	WorldWidthMeters   float64 `json:"world_width_meters"`
	WorldDepthMeters   float64 `json:"world_depth_meters"`
	WorldOffsetXMeters float64 `json:"world_offset_x_meters"`
	WorldOffsetZMeters float64 `json:"world_offset_z_meters"`

	Zones []ZoneDef `json:"zones"`
}

// ZoneDef is one zone entry of the zone map file.
type ZoneDef struct {
	ZoneID   string        `json:"zone_id"`
	Name     string        `json:"name"`
	Polygon  [][]float64   `json:"polygon"`
	Holes    [][][]float64 `json:"holes,omitempty"`
	Centroid []float64     `json:"centroid,omitempty"`
}

// CalibrationFile is the parsed camera calibration table.
type CalibrationFile struct {
	Cameras []CameraDef `json:"cameras"`
}

// CameraDef is one camera calibration row: >=4 image/map correspondences
// plus an optional declared frame size.
type CameraDef struct {
	CameraID      string      `json:"camera_id"`
	Enabled       *bool       `json:"enabled,omitempty"`
	ImagePoints   [][]float64 `json:"image_points"`
	MapNormPoints [][]float64 `json:"map_norm_points"`
	Frame         *FrameSize  `json:"frame,omitempty"`
}

// FrameSize is a camera frame size in pixels.
type FrameSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// LoadZoneMapFile reads and parses the zone map JSON. A missing or invalid
// file is a startup defect, not tolerable noise.
func LoadZoneMapFile(path string) (*ZoneMapFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read zone map: %w", err)
	}
	var zm ZoneMapFile
	if err := json.Unmarshal(data, &zm); err != nil {
		return nil, fmt.Errorf("parse zone map: %w", err)
	}
	if zm.MapWidthPx <= 0 || zm.MapHeightPx <= 0 {
		return nil, fmt.Errorf("zone map has invalid pixel dimensions %gx%g", zm.MapWidthPx, zm.MapHeightPx)
	}
	if len(zm.Zones) == 0 {
		return nil, fmt.Errorf("zone map %s defines no zones", path)
	}
	return &zm, nil
}

// LoadCalibrationFile reads and parses the camera calibration JSON.
func LoadCalibrationFile(path string) (*CalibrationFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read calibration: %w", err)
	}
	var cf CalibrationFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parse calibration: %w", err)
	}
	return &cf, nil
}
