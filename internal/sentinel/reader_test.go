// SPDX-License-Identifier: MIT

package sentinel

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geofront/cogtune/internal/cache"
	"github.com/geofront/cogtune/internal/objstore"
)

const testItemJSON = `{
	"id": "S2A_29RKH_20200219_0_L2A",
	"bbox": [-9.0, 30.9, -7.8, 31.9],
	"assets": {
		"thumbnail": {"href": "preview.jpg"},
		"B01": {"href": "B01.tif"},
		"B02": {"href": "B02.tif"},
		"B03": {"href": "B03.tif"},
		"B8A": {"href": "B8A.tif"}
	}
}`

type fakeStore struct {
	objects map[string][]byte
	gets    int
}

func (f *fakeStore) Get(_ context.Context, bucket, key string) ([]byte, error) {
	f.gets++
	data, ok := f.objects[bucket+"/"+key]
	if !ok {
		return nil, objstore.ErrNotFound
	}
	return data, nil
}

func newTestReader(t *testing.T, c cache.Cache) (*Reader, *fakeStore) {
	t.Helper()
	store := &fakeStore{objects: map[string][]byte{
		"sentinel-cogs/sentinel-s2-l2a-cogs/29/R/KH/2020/2/S2A_29RKH_20200219_0_L2A.json": []byte(testItemJSON),
	}}
	return NewReader(store, c, ReaderOptions{}), store
}

func TestReader_Scene(t *testing.T) {
	r, _ := newTestReader(t, nil)

	scene, err := r.Scene(context.Background(), "S2A_29RKH_20200219_0_L2A")
	require.NoError(t, err)

	assert.Equal(t, []float64{-9.0, 30.9, -7.8, 31.9}, scene.Bounds)
	assert.Equal(t, []string{"B01", "B02", "B03", "B8A"}, scene.Bands)
	assert.Equal(t, 8, scene.MinZoom)
	assert.Equal(t, 14, scene.MaxZoom)
}

func TestReader_SceneCachesSTACItem(t *testing.T) {
	r, store := newTestReader(t, cache.NewMemoryCache(0))

	_, err := r.Scene(context.Background(), "S2A_29RKH_20200219_0_L2A")
	require.NoError(t, err)
	_, err = r.Scene(context.Background(), "S2A_29RKH_20200219_0_L2A")
	require.NoError(t, err)

	assert.Equal(t, 1, store.gets, "second resolution must hit the cache")
}

func TestReader_UnsupportedLevel(t *testing.T) {
	r, _ := newTestReader(t, nil)

	_, err := r.Scene(context.Background(), "S2A_29RKH_20200219_0_L1C")
	assert.ErrorIs(t, err, ErrUnsupportedLevel)
}

func TestReader_InvalidSceneID(t *testing.T) {
	r, _ := newTestReader(t, nil)

	_, err := r.Scene(context.Background(), "not-a-scene")
	assert.ErrorIs(t, err, ErrInvalidSceneID)
}

func TestReader_MissingItem(t *testing.T) {
	r, _ := newTestReader(t, nil)

	_, err := r.Scene(context.Background(), "S2B_33VWF_20200219_0_L2A")
	assert.ErrorIs(t, err, objstore.ErrNotFound)
}

func TestReader_BandURL(t *testing.T) {
	r, _ := newTestReader(t, nil)
	scene, err := r.Scene(context.Background(), "S2A_29RKH_20200219_0_L2A")
	require.NoError(t, err)

	u, err := r.BandURL(scene, "B02")
	require.NoError(t, err)
	assert.Equal(t, "s3://sentinel-cogs/sentinel-s2-l2a-cogs/29/R/KH/2020/2/B02.tif", u)

	// Short band names normalize.
	u, err = r.BandURL(scene, "B2")
	require.NoError(t, err)
	assert.Equal(t, "s3://sentinel-cogs/sentinel-s2-l2a-cogs/29/R/KH/2020/2/B02.tif", u)

	_, err = r.BandURL(scene, "B12")
	var bandErr *InvalidBandError
	require.True(t, errors.As(err, &bandErr))
	assert.Equal(t, []string{"B01", "B02", "B03", "B8A"}, bandErr.Valid)
}

func TestReader_BadItem(t *testing.T) {
	store := &fakeStore{objects: map[string][]byte{
		"sentinel-cogs/sentinel-s2-l2a-cogs/29/R/KH/2020/2/S2A_29RKH_20200219_0_L2A.json": []byte(`{"assets":{}}`),
	}}
	r := NewReader(store, nil, ReaderOptions{})

	_, err := r.Scene(context.Background(), "S2A_29RKH_20200219_0_L2A")
	assert.ErrorIs(t, err, ErrBadSTACItem)
}

func TestNormalizeBand(t *testing.T) {
	assert.Equal(t, "B02", NormalizeBand("B2"))
	assert.Equal(t, "B02", NormalizeBand("b2"))
	assert.Equal(t, "B8A", NormalizeBand("b8a"))
	assert.Equal(t, "B11", NormalizeBand("B11"))
}

func TestReaderOptionsDefaults(t *testing.T) {
	opts := ReaderOptions{}
	opts.fill()
	assert.Equal(t, DefaultBucket, opts.Bucket)
	assert.Equal(t, DefaultPrefixTemplate, opts.PrefixTemplate)
	assert.Equal(t, "s3", opts.Scheme)
	assert.Equal(t, 15*time.Minute, opts.CacheTTL)
}
