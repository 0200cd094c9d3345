package handler

import (
	"errors"
	"math"

	"github.com/gofiber/fiber/v2"

	"github.com/floorwatch/floorwatch/internal/domain"
	"github.com/floorwatch/floorwatch/internal/geo"
	"github.com/floorwatch/floorwatch/internal/world"
)

// ProjectHandler resolves a point given in any supported coordinate space
// into normalized map space, with zone attribution and walkability snapping.
type ProjectHandler struct {
	world *world.World
}

func NewProjectHandler(w *world.World) *ProjectHandler {
	return &ProjectHandler{world: w}
}

// ProjectRequest accepts exactly one coordinate form: normalized map
// coordinates, world meters, or camera pixels with a camera id.
type ProjectRequest struct {
	X *float64 `json:"x,omitempty"`
	Y *float64 `json:"y,omitempty"`

	WorldXMeters *float64 `json:"world_x_meters,omitempty"`
	WorldZMeters *float64 `json:"world_z_meters,omitempty"`

	CameraID string   `json:"camera_id,omitempty"`
	PixelX   *float64 `json:"pixel_x,omitempty"`
	PixelY   *float64 `json:"pixel_y,omitempty"`
}

type ProjectResponse struct {
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	WorldXMeters float64 `json:"world_x_meters"`
	WorldZMeters float64 `json:"world_z_meters"`
	ZoneID       string  `json:"zone_id,omitempty"`
	Walkable     bool    `json:"walkable"`
	SnappedX     float64 `json:"snapped_x"`
	SnappedY     float64 `json:"snapped_y"`
}

// Project POST /v1/world/project
func (h *ProjectHandler) Project(c *fiber.Ctx) error {
	var req ProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}

	p, err := h.resolve(&req)
	if err != nil {
		return err
	}
	if !p.IsFinite() {
		return domain.ErrInvalidPoint
	}
	p = p.Clamp()

	zone := h.world.ZoneAt(p)
	if zone == nil {
		zone = h.world.NearestZone(p)
	}

	resp := ProjectResponse{X: p.X, Y: p.Y}
	resp.WorldXMeters, resp.WorldZMeters = h.world.Transform().WorldNormToMeters(h.world.Transform().MapToWorld(p))

	if zone != nil {
		resp.ZoneID = zone.ID
		resp.Walkable = h.world.Walkable(zone, p)
		snapped := h.world.ProjectIntoZone(zone, p)
		resp.SnappedX, resp.SnappedY = snapped.X, snapped.Y
	} else {
		resp.SnappedX, resp.SnappedY = p.X, p.Y
	}

	return c.JSON(resp)
}

func (h *ProjectHandler) resolve(req *ProjectRequest) (geo.Point, error) {
	switch {
	case req.CameraID != "":
		if req.PixelX == nil || req.PixelY == nil {
			return geo.Point{}, domain.ErrBadRequest.WithError(errors.New("pixel_x and pixel_y are required with camera_id"))
		}
		cam := h.world.Camera(req.CameraID)
		if cam == nil {
			return geo.Point{}, domain.ErrNotFound.WithError(errors.New("camera has no usable calibration"))
		}
		p, ok := cam.H.Apply(*req.PixelX, *req.PixelY)
		if !ok {
			return geo.Point{}, domain.ErrInvalidPoint
		}
		return p, nil

	case req.WorldXMeters != nil && req.WorldZMeters != nil:
		if !finite(*req.WorldXMeters) || !finite(*req.WorldZMeters) {
			return geo.Point{}, domain.ErrInvalidPoint
		}
		worldNorm := h.world.Transform().MetersToWorldNorm(*req.WorldXMeters, *req.WorldZMeters)
		return h.world.Transform().WorldToMap(worldNorm), nil

	case req.X != nil && req.Y != nil:
		return geo.Pt(*req.X, *req.Y), nil
	}

	return geo.Point{}, domain.ErrBadRequest.WithError(errors.New("no coordinate pair provided"))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
