// SPDX-License-Identifier: MIT

// Package gdal models the GDAL/PROJ runtime configuration surface used when
// serving Cloud-Optimized GeoTIFFs from remote object storage. It does not
// talk to GDAL itself; it owns the typed registry of configuration
// variables, tuning profiles built from them, validation of values and
// cross-variable interactions, and rendering into deployable formats.
package gdal

import (
	"fmt"
	"sort"
	"strings"
)

// Kind describes how a variable's raw string value is interpreted.
type Kind int

const (
	KindString Kind = iota
	KindBool        // GDAL-style booleans: YES/NO, TRUE/FALSE, ON/OFF
	KindInt
	KindByteSize // plain byte count, e.g. VSI_CACHE_SIZE
	KindCacheMax // GDAL_CACHEMAX rule: small values are MB, large are bytes
	KindEnum
	KindPath
	KindExtList // comma-separated file extension list
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindByteSize:
		return "bytes"
	case KindCacheMax:
		return "cachemax"
	case KindEnum:
		return "enum"
	case KindPath:
		return "path"
	case KindExtList:
		return "extensions"
	default:
		return "string"
	}
}

// Variable describes a single GDAL/PROJ configuration variable.
type Variable struct {
	Name        string   `json:"name"`
	Kind        Kind     `json:"-"`
	KindName    string   `json:"kind"`
	Default     string   `json:"default,omitempty"`
	Description string   `json:"description"`
	Enum        []string `json:"enum,omitempty"` // allowed values for KindEnum
	Sensitive   bool     `json:"sensitive,omitempty"`
}

// registry holds every variable this service understands, keyed by name.
// Defaults mirror GDAL's documented behavior, not titiler's recommendations;
// the recommendations live in the built-in profiles.
var registry = map[string]Variable{
	"GDAL_HTTP_MULTIPLEX": {
		Name: "GDAL_HTTP_MULTIPLEX", Kind: KindBool, Default: "NO",
		Description: "Fetch multiple byte ranges in parallel over a single connection. Requires the remote server to support HTTP/2.",
	},
	"GDAL_HTTP_VERSION": {
		Name: "GDAL_HTTP_VERSION", Kind: KindEnum, Enum: []string{"1.0", "1.1", "2", "2TLS"},
		Description: "HTTP protocol version to negotiate with remote servers.",
	},
	"CPL_VSIL_CURL_ALLOWED_EXTENSIONS": {
		Name: "CPL_VSIL_CURL_ALLOWED_EXTENSIONS", Kind: KindExtList,
		Description: "Restrict which file extensions the VSI curl driver will open remotely; avoids probing requests for sidecar files that do not exist.",
	},
	"CPL_VSIL_CURL_CACHE_SIZE": {
		Name: "CPL_VSIL_CURL_CACHE_SIZE", Kind: KindByteSize, Default: "16384000",
		Description: "Global size of the VSI curl region cache, in bytes.",
	},
	"GDAL_INGESTED_BYTES_AT_OPEN": {
		Name: "GDAL_INGESTED_BYTES_AT_OPEN", Kind: KindByteSize, Default: "16384",
		Description: "Number of initial bytes fetched when opening a remote file to parse its metadata. Too small a window forces extra requests for COGs with large headers.",
	},
	"GDAL_DISABLE_READDIR_ON_OPEN": {
		Name: "GDAL_DISABLE_READDIR_ON_OPEN", Kind: KindEnum, Default: "FALSE",
		Enum:        []string{"FALSE", "TRUE", "EMPTY_DIR"},
		Description: "Whether GDAL lists the containing directory before opening a file. EMPTY_DIR skips the listing entirely, which also hides sidecar files such as .ovr overviews.",
	},
	"GDAL_HTTP_MERGE_CONSECUTIVE_RANGES": {
		Name: "GDAL_HTTP_MERGE_CONSECUTIVE_RANGES", Kind: KindBool, Default: "NO",
		Description: "Merge adjacent byte-range requests into a single request.",
	},
	"GDAL_HTTP_MAX_RETRY": {
		Name: "GDAL_HTTP_MAX_RETRY", Kind: KindInt, Default: "0",
		Description: "Number of retries for retriable HTTP errors (429, 502, 503, 504).",
	},
	"GDAL_HTTP_RETRY_DELAY": {
		Name: "GDAL_HTTP_RETRY_DELAY", Kind: KindInt, Default: "30",
		Description: "Base delay in seconds between HTTP retries.",
	},
	"GDAL_CACHEMAX": {
		Name: "GDAL_CACHEMAX", Kind: KindCacheMax, Default: "5%",
		Description: "Size of the GDAL block cache. Values below 100000 are megabytes, larger values are bytes; percentages are relative to usable RAM.",
	},
	"GDAL_BAND_BLOCK_CACHE": {
		Name: "GDAL_BAND_BLOCK_CACHE", Kind: KindEnum, Default: "AUTO",
		Enum:        []string{"AUTO", "ARRAY", "HASHSET"},
		Description: "Block cache implementation used by the raster band cache.",
	},
	"GDAL_NUM_THREADS": {
		Name: "GDAL_NUM_THREADS", Kind: KindString, Default: "1",
		Description: "Worker threads for compression and some drivers; an integer or ALL_CPUS.",
	},
	"VSI_CACHE": {
		Name: "VSI_CACHE", Kind: KindBool, Default: "FALSE",
		Description: "Enable the per-file VSI block cache in front of remote reads.",
	},
	"VSI_CACHE_SIZE": {
		Name: "VSI_CACHE_SIZE", Kind: KindByteSize, Default: "25000000",
		Description: "Size of the per-file VSI cache, in bytes. Only effective when VSI_CACHE is enabled.",
	},
	"GDAL_DATA": {
		Name: "GDAL_DATA", Kind: KindPath,
		Description: "Directory containing GDAL support data files.",
	},
	"PROJ_LIB": {
		Name: "PROJ_LIB", Kind: KindPath,
		Description: "Directory containing PROJ support data files (proj.db).",
	},
	"AWS_NO_SIGN_REQUEST": {
		Name: "AWS_NO_SIGN_REQUEST", Kind: KindBool, Default: "NO",
		Description: "Access S3 buckets anonymously without signing requests.",
	},
	"AWS_REQUEST_PAYER": {
		Name: "AWS_REQUEST_PAYER", Kind: KindEnum, Enum: []string{"requester"},
		Description: "Acknowledge requester-pays access for S3 buckets that require it.",
	},
	"AWS_SECRET_ACCESS_KEY": {
		Name: "AWS_SECRET_ACCESS_KEY", Kind: KindString, Sensitive: true,
		Description: "S3 credential used by GDAL's /vsis3/ driver.",
	},
	"AWS_ACCESS_KEY_ID": {
		Name: "AWS_ACCESS_KEY_ID", Kind: KindString,
		Description: "S3 credential used by GDAL's /vsis3/ driver.",
	},
	"CPL_DEBUG": {
		Name: "CPL_DEBUG", Kind: KindString, Default: "OFF",
		Description: "Enable GDAL debug traces, optionally scoped to a category (e.g. VSICURL).",
	},
	"CPL_CURL_VERBOSE": {
		Name: "CPL_CURL_VERBOSE", Kind: KindBool, Default: "NO",
		Description: "Emit libcurl verbose traces for every remote request.",
	},
}

// Lookup returns the registry entry for name.
func Lookup(name string) (Variable, bool) {
	v, ok := registry[strings.ToUpper(strings.TrimSpace(name))]
	if ok {
		v.KindName = v.Kind.String()
	}
	return v, ok
}

// Known reports whether name is a registered variable.
func Known(name string) bool {
	_, ok := Lookup(name)
	return ok
}

// Variables returns all registered variables sorted by name.
func Variables() []Variable {
	out := make([]Variable, 0, len(registry))
	for _, v := range registry {
		v.KindName = v.Kind.String()
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// MaskValue replaces sensitive values with a fixed placeholder for
// rendering and API output. Non-sensitive values pass through.
func MaskValue(name, value string) string {
	if v, ok := Lookup(name); ok && v.Sensitive && value != "" {
		return "****"
	}
	return value
}

// DescribeKind returns a short human description of what values a variable
// accepts, for CLI help output.
func DescribeKind(v Variable) string {
	switch v.Kind {
	case KindEnum:
		return fmt.Sprintf("one of %s", strings.Join(v.Enum, ", "))
	case KindBool:
		return "YES/NO, TRUE/FALSE or ON/OFF"
	case KindByteSize:
		return "byte count"
	case KindCacheMax:
		return "megabytes (<100000), bytes, or percentage of RAM"
	case KindInt:
		return "integer"
	case KindPath:
		return "filesystem path"
	case KindExtList:
		return "comma-separated extensions"
	default:
		return "string"
	}
}
