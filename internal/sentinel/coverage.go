// SPDX-License-Identifier: MIT

package sentinel

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

// ZoomCoverage counts the Web-Mercator tiles touching a scene at one zoom.
type ZoomCoverage struct {
	Zoom  int   `json:"zoom"`
	Tiles int64 `json:"tiles"`
}

// CoverageReport describes how many map tiles a scene spans across a zoom
// range, used to size VSI caches for planned tiling workloads.
type CoverageReport struct {
	Scene   string         `json:"scene"`
	MinZoom int            `json:"minzoom"`
	MaxZoom int            `json:"maxzoom"`
	PerZoom []ZoomCoverage `json:"per_zoom"`
	Total   int64          `json:"total"`
}

const maxCoverageZoom = 24

// Coverage computes the tile coverage of the scene between minZoom and
// maxZoom inclusive.
func Coverage(scene *Scene, minZoom, maxZoom int) (*CoverageReport, error) {
	if minZoom < 0 || maxZoom > maxCoverageZoom || minZoom > maxZoom {
		return nil, fmt.Errorf("invalid zoom range %d..%d", minZoom, maxZoom)
	}
	if len(scene.Bounds) < 4 {
		return nil, fmt.Errorf("%w: scene has no bounds", ErrBadSTACItem)
	}

	bound := orb.Bound{
		Min: orb.Point{scene.Bounds[0], scene.Bounds[1]},
		Max: orb.Point{scene.Bounds[2], scene.Bounds[3]},
	}

	report := &CoverageReport{
		Scene:   scene.ID.Raw,
		MinZoom: minZoom,
		MaxZoom: maxZoom,
	}
	for z := minZoom; z <= maxZoom; z++ {
		n := tilesAtZoom(bound, maptile.Zoom(z))
		report.PerZoom = append(report.PerZoom, ZoomCoverage{Zoom: z, Tiles: n})
		report.Total += n
	}
	return report, nil
}

func tilesAtZoom(b orb.Bound, z maptile.Zoom) int64 {
	// Tile Y grows southward, so the bound's north edge has the smaller Y.
	nw := maptile.At(orb.Point{b.Min[0], b.Max[1]}, z)
	se := maptile.At(orb.Point{b.Max[0], b.Min[1]}, z)

	dx := int64(se.X) - int64(nw.X) + 1
	dy := int64(se.Y) - int64(nw.Y) + 1
	if dx < 1 {
		dx = 1
	}
	if dy < 1 {
		dy = 1
	}
	return dx * dy
}

// SuggestedVSICacheSize sizes a per-file VSI cache so one zoom level's worth
// of tile reads at the deepest zoom stays cached, given an estimated
// compressed bytes per tile. The result is clamped to sane bounds.
func (r *CoverageReport) SuggestedVSICacheSize(bytesPerTile int64) int64 {
	const (
		floor = 5_000_000
		ceil  = 250_000_000
	)
	if bytesPerTile <= 0 {
		bytesPerTile = 16384
	}
	var deepest int64
	for _, zc := range r.PerZoom {
		if zc.Zoom == r.MaxZoom {
			deepest = zc.Tiles
		}
	}
	size := deepest * bytesPerTile
	if size < floor {
		return floor
	}
	if size > ceil {
		return ceil
	}
	return size
}
