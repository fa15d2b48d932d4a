// SPDX-License-Identifier: MIT

package gdal

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseBool interprets a GDAL-style boolean. GDAL accepts YES/NO, TRUE/FALSE,
// ON/OFF and 1/0 case-insensitively.
func ParseBool(s string) (bool, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "YES", "TRUE", "ON", "1":
		return true, nil
	case "NO", "FALSE", "OFF", "0":
		return false, nil
	}
	return false, fmt.Errorf("%w: %q is not a GDAL boolean", ErrInvalidValue, s)
}

// FormatBool renders a boolean in GDAL's preferred YES/NO spelling.
func FormatBool(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}

// ParseByteSize parses a plain byte count.
func ParseByteSize(s string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q is not a byte count", ErrInvalidValue, s)
	}
	return n, nil
}

// cacheMaxMBThreshold is GDAL's documented cutoff: GDAL_CACHEMAX values
// below it are megabytes, values at or above it are bytes.
const cacheMaxMBThreshold = 100000

// ParseCacheMax resolves a GDAL_CACHEMAX value to bytes. totalRAM is used to
// resolve percentage values; pass 0 to reject percentages.
func ParseCacheMax(s string, totalRAM int64) (int64, error) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "%") {
		pct, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil || pct <= 0 || pct > 100 {
			return 0, fmt.Errorf("%w: %q is not a valid percentage", ErrInvalidValue, s)
		}
		if totalRAM <= 0 {
			return 0, fmt.Errorf("%w: percentage %q needs known RAM size", ErrInvalidValue, s)
		}
		return int64(float64(totalRAM) * pct / 100), nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q is not a valid cache size", ErrInvalidValue, s)
	}
	if n < cacheMaxMBThreshold {
		return n * 1024 * 1024, nil
	}
	return n, nil
}

// ParseExtList normalizes a comma-separated extension list. Entries keep
// their leading dot if present; surrounding whitespace is stripped.
func ParseExtList(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("%w: empty extension list", ErrInvalidValue)
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, fmt.Errorf("%w: empty entry in extension list %q", ErrInvalidValue, s)
		}
		out = append(out, p)
	}
	return out, nil
}

// CheckValue validates a raw value against the variable's kind. It never
// touches the process environment.
func CheckValue(v Variable, value string) error {
	switch v.Kind {
	case KindBool:
		_, err := ParseBool(value)
		return err
	case KindInt:
		if _, err := strconv.Atoi(strings.TrimSpace(value)); err != nil {
			return fmt.Errorf("%w: %q is not an integer", ErrInvalidValue, value)
		}
		return nil
	case KindByteSize:
		_, err := ParseByteSize(value)
		return err
	case KindCacheMax:
		// Percentages validate without a RAM size; resolution happens later.
		if strings.HasSuffix(strings.TrimSpace(value), "%") {
			_, err := ParseCacheMax(value, 1)
			return err
		}
		_, err := ParseCacheMax(value, 0)
		return err
	case KindEnum:
		up := strings.ToUpper(strings.TrimSpace(value))
		for _, e := range v.Enum {
			if strings.ToUpper(e) == up {
				return nil
			}
		}
		return fmt.Errorf("%w: %q is not one of %s", ErrInvalidValue, value, strings.Join(v.Enum, ", "))
	case KindExtList:
		_, err := ParseExtList(value)
		return err
	default:
		return nil
	}
}
