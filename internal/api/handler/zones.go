package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/floorwatch/floorwatch/internal/domain"
	"github.com/floorwatch/floorwatch/internal/geo"
	"github.com/floorwatch/floorwatch/internal/world"
)

// ZonesHandler exposes the static floor-plan geometry
type ZonesHandler struct {
	world *world.World
}

func NewZonesHandler(w *world.World) *ZonesHandler {
	return &ZonesHandler{world: w}
}

// ZoneResponse is the wire shape of one zone
type ZoneResponse struct {
	ZoneID   string      `json:"zone_id"`
	Name     string      `json:"name,omitempty"`
	Centroid PointDTO    `json:"centroid"`
	Bounds   BoundsDTO   `json:"bounds"`
	Outer    []PointDTO  `json:"outer"`
	Holes    [][]PointDTO `json:"holes,omitempty"`
}

type PointDTO struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type BoundsDTO struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// ZoneListResponse response for the zone listing endpoint
type ZoneListResponse struct {
	Zones []ZoneResponse `json:"zones"`
	Count int            `json:"count"`
}

// List GET /v1/zones - every zone in the floor plan
func (h *ZonesHandler) List(c *fiber.Ctx) error {
	zones := h.world.Zones()
	out := make([]ZoneResponse, 0, len(zones))
	for _, z := range zones {
		out = append(out, zoneResponse(z))
	}
	return c.JSON(ZoneListResponse{Zones: out, Count: len(out)})
}

// Get GET /v1/zones/:id - one zone by id
func (h *ZonesHandler) Get(c *fiber.Ctx) error {
	z := h.world.Zone(c.Params("id"))
	if z == nil {
		return domain.ErrZoneNotFound
	}
	return c.JSON(zoneResponse(z))
}

func zoneResponse(z *world.Zone) ZoneResponse {
	resp := ZoneResponse{
		ZoneID:   z.ID,
		Name:     z.Name,
		Centroid: PointDTO{X: z.Centroid.X, Y: z.Centroid.Y},
		Bounds: BoundsDTO{
			MinX: z.OuterBound.MinX,
			MinY: z.OuterBound.MinY,
			MaxX: z.OuterBound.MaxX,
			MaxY: z.OuterBound.MaxY,
		},
		Outer: pointDTOs(z.Outer.Vertices),
	}
	for _, hole := range z.Holes {
		resp.Holes = append(resp.Holes, pointDTOs(hole.Vertices))
	}
	return resp
}

func pointDTOs(pts []geo.Point) []PointDTO {
	out := make([]PointDTO, 0, len(pts))
	for _, p := range pts {
		out = append(out, PointDTO{X: p.X, Y: p.Y})
	}
	return out
}
