package geo

import (
	"github.com/uber/h3-go/v4"
)

// H3Resolution is an H3 grid resolution.
// Resolution 7: ~5.16 km² average hexagon area
// Resolution 8: ~0.74 km² average hexagon area
// Resolution 9: ~0.11 km² average hexagon area
type H3Resolution int

const (
	H3ResolutionCity         H3Resolution = 7
	H3ResolutionNeighborhood H3Resolution = 8
	H3ResolutionBlock        H3Resolution = 9
)

// H3Index tags points with the H3 cell that contains them. Quotes carry the
// pickup and dropoff cells so settlement can aggregate by zone; the cells
// never feed into the price.
type H3Index struct {
	resolution int
}

// NewH3Index creates an indexer at the given resolution.
func NewH3Index(resolution H3Resolution) *H3Index {
	return &H3Index{resolution: int(resolution)}
}

// Resolution returns the configured resolution.
func (h *H3Index) Resolution() int {
	return h.resolution
}

// LatLngToCell converts a point to its H3 cell.
func (h *H3Index) LatLngToCell(p Point) h3.Cell {
	return h3.LatLngToCell(h3.LatLng{Lat: p.Lat, Lng: p.Lng}, h.resolution)
}

// CellString returns the hex cell id for p.
func (h *H3Index) CellString(p Point) string {
	return h.LatLngToCell(p).String()
}

// CellCenter returns the center of the cell containing p.
func (h *H3Index) CellCenter(p Point) Point {
	ll := h3.CellToLatLng(h.LatLngToCell(p))
	return Point{Lat: ll.Lat, Lng: ll.Lng}
}

// GridDistance returns the number of cell hops between the cells of a and b.
// It returns -1 when H3 cannot compute a path, e.g. across pentagons.
func (h *H3Index) GridDistance(a, b Point) int {
	return h3.GridDistance(h.LatLngToCell(a), h.LatLngToCell(b))
}
