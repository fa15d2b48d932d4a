// SPDX-License-Identifier: MIT

// Package tuner detects host resources and derives GDAL cache and thread
// settings sized for the machine, rather than the one-size defaults the
// built-in profiles carry.
package tuner

import (
	"bufio"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/geofront/cogtune/internal/gdal"
	"github.com/geofront/cogtune/internal/log"
)

// SystemResources holds detected host resources.
type SystemResources struct {
	CPUCores     int   `json:"cpu_cores"`
	TotalRAM     int64 `json:"total_ram_bytes"`
	AvailableRAM int64 `json:"available_ram_bytes"`
}

// fallbackRAM is assumed when /proc/meminfo is unreadable (non-Linux dev
// hosts, locked-down containers). Deliberately small.
const fallbackRAM = 2 << 30

// Detect reads CPU and memory resources from the host.
func Detect() SystemResources {
	res := SystemResources{CPUCores: runtime.NumCPU()}
	total, avail, err := readMeminfo("/proc/meminfo")
	if err != nil {
		lg := log.WithComponent("tuner")
		lg.Warn().
			Err(err).
			Str("event", "tuner.meminfo_unavailable").
			Int64("fallback_bytes", fallbackRAM).
			Msg("could not read memory info, assuming conservative size")
		res.TotalRAM = fallbackRAM
		res.AvailableRAM = fallbackRAM / 2
		return res
	}
	res.TotalRAM = total
	res.AvailableRAM = avail
	return res
}

func readMeminfo(path string) (total, available int64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "MemTotal:"):
			total = parseMeminfoKB(line)
		case strings.HasPrefix(line, "MemAvailable:"):
			available = parseMeminfoKB(line)
		}
		if total > 0 && available > 0 {
			break
		}
	}
	if err := sc.Err(); err != nil {
		return 0, 0, err
	}
	if total == 0 {
		return 0, 0, fmt.Errorf("MemTotal not found in %s", path)
	}
	if available == 0 {
		available = total / 2
	}
	return total, available, nil
}

func parseMeminfoKB(line string) int64 {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0
	}
	kb, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return 0
	}
	return kb * 1024
}

// Options bound the recommendation.
type Options struct {
	// MemoryFraction is the share of available RAM the GDAL block cache may
	// take. Zero means the default of 0.25.
	MemoryFraction float64
	// MaxCacheMB caps GDAL_CACHEMAX regardless of detected RAM. Zero means
	// no cap beyond the fraction.
	MaxCacheMB int64
}

const (
	defaultMemoryFraction = 0.25
	minCacheMB            = 64
	minVSICacheBytes      = 5_000_000
	maxVSICacheBytes      = 250_000_000
	curlCacheShare        = 8 // CPL_VSIL_CURL_CACHE_SIZE = cachemax/8
)

// Recommend derives a profile overlay from detected resources. The overlay
// is meant to be merged on top of the "cog" profile.
func Recommend(res SystemResources, opts Options) *gdal.Profile {
	frac := opts.MemoryFraction
	if frac <= 0 || frac > 1 {
		frac = defaultMemoryFraction
	}

	cacheMB := int64(float64(res.AvailableRAM) * frac / (1024 * 1024))
	if cacheMB < minCacheMB {
		cacheMB = minCacheMB
	}
	if opts.MaxCacheMB > 0 && cacheMB > opts.MaxCacheMB {
		cacheMB = opts.MaxCacheMB
	}
	// Stay in GDAL's "this is megabytes" interpretation range.
	if cacheMB >= 100000 {
		cacheMB = 99999
	}

	vsiBytes := cacheMB * 1024 * 1024 / 10
	if vsiBytes < minVSICacheBytes {
		vsiBytes = minVSICacheBytes
	}
	if vsiBytes > maxVSICacheBytes {
		vsiBytes = maxVSICacheBytes
	}

	curlBytes := cacheMB * 1024 * 1024 / curlCacheShare
	if curlBytes < minVSICacheBytes {
		curlBytes = minVSICacheBytes
	}

	threads := "ALL_CPUS"
	if res.CPUCores == 1 {
		threads = "1"
	}

	p := &gdal.Profile{
		Name:        "tuned",
		Description: fmt.Sprintf("derived from %d cores / %d MB available RAM", res.CPUCores, res.AvailableRAM/(1024*1024)),
	}
	p.Set("GDAL_CACHEMAX", strconv.FormatInt(cacheMB, 10))
	p.Set("VSI_CACHE", "TRUE")
	p.Set("VSI_CACHE_SIZE", strconv.FormatInt(vsiBytes, 10))
	p.Set("CPL_VSIL_CURL_CACHE_SIZE", strconv.FormatInt(curlBytes, 10))
	p.Set("GDAL_NUM_THREADS", threads)
	return p
}

// TunedProfile is the common path: detect resources and merge the
// recommendation onto the named base profile.
func TunedProfile(base string, opts Options) (*gdal.Profile, error) {
	p, err := gdal.ProfileByName(base)
	if err != nil {
		return nil, err
	}
	overlay := Recommend(Detect(), opts)
	merged := p.Merge(overlay)
	merged.Name = p.Name + "+tuned"
	merged.Description = overlay.Description
	return merged, nil
}
