// SPDX-License-Identifier: MIT

// Package sentinel addresses Sentinel-2 Cloud-Optimized GeoTIFF scenes in
// the public AWS archive: it parses scene identifiers, resolves the
// object-store layout, and exposes per-band COG URLs for GDAL to open.
package sentinel

import (
	"fmt"
	"regexp"
	"strings"
)

// sceneIDRe matches COGS-style Sentinel-2 scene ids such as
// "S2A_29RKH_20200219_0_L2A".
var sceneIDRe = regexp.MustCompile(
	`^S(?P<sensor>2)(?P<satellite>[AB])_` +
		`(?P<utm>[0-9]{1,2})(?P<lat>[A-Z])(?P<sq>[A-Z]{2})_` +
		`(?P<year>[0-9]{4})(?P<month>[0-9]{2})(?P<day>[0-9]{2})_` +
		`(?P<num>[0-9]+)_` +
		`(?P<level>L[0-9][A-C])$`)

// SceneID holds the parsed components of a Sentinel-2 scene identifier.
type SceneID struct {
	Raw              string `json:"scene"`
	Sensor           string `json:"sensor"`
	Satellite        string `json:"satellite"`
	UTMZone          string `json:"utm_zone"`
	LatitudeBand     string `json:"latitude_band"`
	GridSquare       string `json:"grid_square"`
	AcquisitionYear  string `json:"acquisition_year"`
	AcquisitionMonth string `json:"acquisition_month"`
	AcquisitionDay   string `json:"acquisition_day"`
	Num              string `json:"num"`
	ProcessingLevel  string `json:"processing_level"`
}

// ParseSceneID parses a COGS scene id.
func ParseSceneID(s string) (*SceneID, error) {
	m := sceneIDRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSceneID, s)
	}
	get := func(name string) string {
		return m[sceneIDRe.SubexpIndex(name)]
	}
	return &SceneID{
		Raw:              strings.TrimSpace(s),
		Sensor:           get("sensor"),
		Satellite:        get("satellite"),
		UTMZone:          get("utm"),
		LatitudeBand:     get("lat"),
		GridSquare:       get("sq"),
		AcquisitionYear:  get("year"),
		AcquisitionMonth: get("month"),
		AcquisitionDay:   get("day"),
		Num:              get("num"),
		ProcessingLevel:  get("level"),
	}, nil
}

// Fields returns the template expansion fields for this scene. Derived
// fields use an underscore prefix: _utm and _month drop leading zeros,
// _levelLow is the lowercase processing level.
func (s *SceneID) Fields() map[string]string {
	return map[string]string{
		"sensor":           s.Sensor,
		"satellite":        s.Satellite,
		"utm":              s.UTMZone,
		"lat":              s.LatitudeBand,
		"sq":               s.GridSquare,
		"acquisitionYear":  s.AcquisitionYear,
		"acquisitionMonth": s.AcquisitionMonth,
		"acquisitionDay":   s.AcquisitionDay,
		"num":              s.Num,
		"processingLevel":  s.ProcessingLevel,
		"scene":            s.Raw,
		"_utm":             strings.TrimLeft(s.UTMZone, "0"),
		"_month":           strings.TrimLeft(s.AcquisitionMonth, "0"),
		"_day":             strings.TrimLeft(s.AcquisitionDay, "0"),
		"_levelLow":        strings.ToLower(s.ProcessingLevel),
	}
}

// COGID is the scene id spelled the way object keys in the archive use it,
// with the UTM zone unpadded.
func (s *SceneID) COGID() string {
	return fmt.Sprintf("S%s%s_%s%s%s_%s%s%s_%s_%s",
		s.Sensor, s.Satellite,
		strings.TrimLeft(s.UTMZone, "0"), s.LatitudeBand, s.GridSquare,
		s.AcquisitionYear, s.AcquisitionMonth, s.AcquisitionDay,
		s.Num, s.ProcessingLevel)
}

var templateFieldRe = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ExpandTemplate substitutes {field} placeholders from fields. Unknown
// placeholders are an error rather than an empty expansion, because a
// half-expanded prefix would silently address the wrong objects.
func ExpandTemplate(tmpl string, fields map[string]string) (string, error) {
	var missing []string
	out := templateFieldRe.ReplaceAllStringFunc(tmpl, func(ph string) string {
		name := ph[1 : len(ph)-1]
		v, ok := fields[name]
		if !ok {
			missing = append(missing, name)
			return ph
		}
		return v
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: %s", ErrUnknownTemplateField, strings.Join(missing, ", "))
	}
	return out, nil
}
