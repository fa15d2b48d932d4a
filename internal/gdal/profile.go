// SPDX-License-Identifier: MIT

package gdal

import (
	"fmt"
	"sort"
)

// Assignment binds a variable name to a raw value string.
type Assignment struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// Profile is a named, ordered set of variable assignments. Order is
// preserved so rendered output stays stable and diffable.
type Profile struct {
	Name        string       `json:"name" yaml:"name"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Vars        []Assignment `json:"vars" yaml:"vars"`
}

// Get returns the value assigned to name, if any.
func (p *Profile) Get(name string) (string, bool) {
	for _, a := range p.Vars {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Set assigns value to name, replacing an existing assignment in place or
// appending a new one.
func (p *Profile) Set(name, value string) {
	for i, a := range p.Vars {
		if a.Name == name {
			p.Vars[i].Value = value
			return
		}
	}
	p.Vars = append(p.Vars, Assignment{Name: name, Value: value})
}

// Clone returns a deep copy of the profile.
func (p *Profile) Clone() *Profile {
	out := &Profile{Name: p.Name, Description: p.Description}
	out.Vars = make([]Assignment, len(p.Vars))
	copy(out.Vars, p.Vars)
	return out
}

// Merge overlays other on top of p and returns the result. Assignments in
// other win; p and other are left untouched.
func (p *Profile) Merge(other *Profile) *Profile {
	out := p.Clone()
	if other == nil {
		return out
	}
	for _, a := range other.Vars {
		out.Set(a.Name, a.Value)
	}
	return out
}

// Built-in profiles. "cog" carries the remote-COG tuning this service
// exists to operationalize; "baseline" pins GDAL's own defaults so a diff
// against it shows exactly what tuning changes.
func builtinProfiles() map[string]*Profile {
	return map[string]*Profile{
		"baseline": {
			Name:        "baseline",
			Description: "GDAL defaults, pinned explicitly. Diffing against this shows the full effect of any tuning.",
			Vars: []Assignment{
				{Name: "GDAL_HTTP_MULTIPLEX", Value: "NO"},
				{Name: "GDAL_DISABLE_READDIR_ON_OPEN", Value: "FALSE"},
				{Name: "GDAL_HTTP_MERGE_CONSECUTIVE_RANGES", Value: "NO"},
				{Name: "GDAL_INGESTED_BYTES_AT_OPEN", Value: "16384"},
				{Name: "VSI_CACHE", Value: "FALSE"},
			},
		},
		"cog": {
			Name:        "cog",
			Description: "Recommended tuning for serving tiles from remote Cloud-Optimized GeoTIFFs.",
			Vars: []Assignment{
				{Name: "GDAL_HTTP_MULTIPLEX", Value: "YES"},
				{Name: "GDAL_HTTP_VERSION", Value: "2"},
				{Name: "GDAL_DISABLE_READDIR_ON_OPEN", Value: "EMPTY_DIR"},
				{Name: "CPL_VSIL_CURL_ALLOWED_EXTENSIONS", Value: ".tif,.TIF,.tiff"},
				{Name: "GDAL_INGESTED_BYTES_AT_OPEN", Value: "32768"},
				{Name: "GDAL_HTTP_MERGE_CONSECUTIVE_RANGES", Value: "YES"},
				{Name: "GDAL_CACHEMAX", Value: "200"},
				{Name: "VSI_CACHE", Value: "TRUE"},
				{Name: "VSI_CACHE_SIZE", Value: "5000000"},
				{Name: "GDAL_HTTP_MAX_RETRY", Value: "3"},
				{Name: "GDAL_HTTP_RETRY_DELAY", Value: "1"},
			},
		},
		"aggressive": {
			Name:        "aggressive",
			Description: "Larger caches and full multiplexing for dedicated tile hosts with RAM to spare.",
			Vars: []Assignment{
				{Name: "GDAL_HTTP_MULTIPLEX", Value: "YES"},
				{Name: "GDAL_HTTP_VERSION", Value: "2"},
				{Name: "GDAL_DISABLE_READDIR_ON_OPEN", Value: "EMPTY_DIR"},
				{Name: "CPL_VSIL_CURL_ALLOWED_EXTENSIONS", Value: ".tif,.TIF,.tiff"},
				{Name: "GDAL_INGESTED_BYTES_AT_OPEN", Value: "65536"},
				{Name: "GDAL_HTTP_MERGE_CONSECUTIVE_RANGES", Value: "YES"},
				{Name: "GDAL_CACHEMAX", Value: "1024"},
				{Name: "GDAL_BAND_BLOCK_CACHE", Value: "HASHSET"},
				{Name: "VSI_CACHE", Value: "TRUE"},
				{Name: "VSI_CACHE_SIZE", Value: "50000000"},
				{Name: "CPL_VSIL_CURL_CACHE_SIZE", Value: "200000000"},
				{Name: "GDAL_NUM_THREADS", Value: "ALL_CPUS"},
				{Name: "GDAL_HTTP_MAX_RETRY", Value: "4"},
				{Name: "GDAL_HTTP_RETRY_DELAY", Value: "1"},
			},
		},
		"debug": {
			Name:        "debug",
			Description: "Verbose GDAL and curl traces for diagnosing remote read behavior. Not for production.",
			Vars: []Assignment{
				{Name: "CPL_DEBUG", Value: "ON"},
				{Name: "CPL_CURL_VERBOSE", Value: "YES"},
				{Name: "GDAL_DISABLE_READDIR_ON_OPEN", Value: "FALSE"},
				{Name: "VSI_CACHE", Value: "FALSE"},
			},
		},
	}
}

// Profiles returns the built-in profiles sorted by name.
func Profiles() []*Profile {
	m := builtinProfiles()
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]*Profile, 0, len(names))
	for _, n := range names {
		out = append(out, m[n])
	}
	return out
}

// ProfileByName returns a copy of the named built-in profile.
func ProfileByName(name string) (*Profile, error) {
	p, ok := builtinProfiles()[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}
	return p.Clone(), nil
}
