// SPDX-License-Identifier: MIT

package sentinel

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/geofront/cogtune/internal/cache"
	"github.com/geofront/cogtune/internal/log"
	"github.com/geofront/cogtune/internal/metrics"
	"github.com/geofront/cogtune/internal/objstore"
)

// DefaultBucket is the public Sentinel-2 COG archive on AWS.
const DefaultBucket = "sentinel-cogs"

// DefaultPrefixTemplate is the archive's object layout for L2A COG scenes.
const DefaultPrefixTemplate = "sentinel-s2-{_levelLow}-cogs/{_utm}/{lat}/{sq}/{acquisitionYear}/{_month}"

// bandRe matches band asset names in the scene's STAC item (B01..B12, B8A).
var bandRe = regexp.MustCompile(`^B[0-9A]{2}$`)

// STACItem is the subset of a scene's STAC item this service reads.
type STACItem struct {
	ID     string                     `json:"id"`
	BBox   []float64                  `json:"bbox"`
	Assets map[string]json.RawMessage `json:"assets"`
}

// Scene is a resolved Sentinel-2 L2A COG scene.
type Scene struct {
	ID      *SceneID  `json:"id"`
	Bounds  []float64 `json:"bounds"` // west, south, east, north (WGS84)
	Bands   []string  `json:"bands"`
	MinZoom int       `json:"minzoom"`
	MaxZoom int       `json:"maxzoom"`
	prefix  string
}

// ReaderOptions configure scene resolution.
type ReaderOptions struct {
	Bucket         string
	PrefixTemplate string
	Scheme         string        // URL scheme for band URLs, default "s3"
	CacheTTL       time.Duration // STAC item cache TTL, default 15m
	MinZoom        int           // default 8
	MaxZoom        int           // default 14
}

func (o *ReaderOptions) fill() {
	if o.Bucket == "" {
		o.Bucket = DefaultBucket
	}
	if o.PrefixTemplate == "" {
		o.PrefixTemplate = DefaultPrefixTemplate
	}
	if o.Scheme == "" {
		o.Scheme = "s3"
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = 15 * time.Minute
	}
	if o.MaxZoom == 0 {
		o.MinZoom, o.MaxZoom = 8, 14
	}
}

// Reader resolves scene ids into scenes backed by an object store, with a
// cache in front of STAC item fetches.
type Reader struct {
	store  objstore.Store
	cache  cache.Cache
	opts   ReaderOptions
	logger zerolog.Logger
}

// NewReader builds a Reader. cache may be nil to disable caching.
func NewReader(store objstore.Store, c cache.Cache, opts ReaderOptions) *Reader {
	opts.fill()
	if c == nil {
		c = cache.NewNoOpCache()
	}
	return &Reader{
		store:  store,
		cache:  c,
		opts:   opts,
		logger: log.WithComponent("sentinel"),
	}
}

// Scene resolves a scene id. Only L2A scenes exist as COGs in the archive;
// other levels return ErrUnsupportedLevel.
func (r *Reader) Scene(ctx context.Context, sceneID string) (*Scene, error) {
	id, err := ParseSceneID(sceneID)
	if err != nil {
		return nil, err
	}
	if id.ProcessingLevel != "L2A" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLevel, id.ProcessingLevel)
	}

	prefix, err := ExpandTemplate(r.opts.PrefixTemplate, id.Fields())
	if err != nil {
		return nil, err
	}
	key := prefix + "/" + id.COGID() + ".json"

	item, err := r.stacItem(ctx, key)
	if err != nil {
		return nil, err
	}

	if len(item.BBox) < 4 {
		return nil, fmt.Errorf("%w: %s has no usable bbox", ErrBadSTACItem, key)
	}

	bands := make([]string, 0, len(item.Assets))
	for name := range item.Assets {
		if bandRe.MatchString(name) {
			bands = append(bands, name)
		}
	}
	if len(bands) == 0 {
		return nil, fmt.Errorf("%w: %s lists no band assets", ErrBadSTACItem, key)
	}
	sort.Strings(bands)

	scene := &Scene{
		ID:      id,
		Bounds:  item.BBox[:4],
		Bands:   bands,
		MinZoom: r.opts.MinZoom,
		MaxZoom: r.opts.MaxZoom,
		prefix:  prefix,
	}
	r.logger.Debug().
		Str("event", "sentinel.scene_resolved").
		Str("scene", id.Raw).
		Int("bands", len(bands)).
		Msg("resolved scene")
	return scene, nil
}

func (r *Reader) stacItem(ctx context.Context, key string) (*STACItem, error) {
	cacheKey := "stac:" + r.opts.Bucket + "/" + key
	if raw, ok := r.cache.Get(cacheKey); ok {
		if data, ok := raw.(string); ok {
			var item STACItem
			if err := json.Unmarshal([]byte(data), &item); err == nil {
				metrics.IncSTACFetch("cache")
				return &item, nil
			}
		}
	}

	start := time.Now()
	data, err := r.store.Get(ctx, r.opts.Bucket, key)
	if err != nil {
		metrics.IncSTACFetch("error")
		return nil, fmt.Errorf("fetch STAC item: %w", err)
	}
	metrics.ObserveSTACFetchDuration(time.Since(start))

	var item STACItem
	if err := json.Unmarshal(data, &item); err != nil {
		metrics.IncSTACFetch("error")
		return nil, fmt.Errorf("%w: %s: %v", ErrBadSTACItem, key, err)
	}
	metrics.IncSTACFetch("success")

	// Cache the raw JSON, not the struct: values survive the Redis
	// round trip unchanged that way.
	r.cache.Set(cacheKey, string(data), r.opts.CacheTTL)
	return &item, nil
}

// BandURL validates the band name against the scene and returns the COG URL
// GDAL should open. Short names normalize to archive spelling (B2 -> B02).
func (r *Reader) BandURL(scene *Scene, band string) (string, error) {
	b := NormalizeBand(band)
	found := false
	for _, known := range scene.Bands {
		if known == b {
			found = true
			break
		}
	}
	if !found {
		return "", &InvalidBandError{Band: band, Valid: scene.Bands}
	}
	return fmt.Sprintf("%s://%s/%s/%s.tif", r.opts.Scheme, r.opts.Bucket, scene.prefix, b), nil
}

// NormalizeBand pads short band names: B2 becomes B02, B8A stays as is.
func NormalizeBand(band string) string {
	b := strings.ToUpper(strings.TrimSpace(band))
	if len(b) == 2 && strings.HasPrefix(b, "B") {
		return "B0" + b[1:]
	}
	return b
}
