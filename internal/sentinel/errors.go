// SPDX-License-Identifier: MIT

package sentinel

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidSceneID indicates an identifier that does not parse as a Sentinel-2 COGS scene id.
	ErrInvalidSceneID = errors.New("invalid sentinel-2 scene id")
	// ErrUnsupportedLevel indicates a processing level this reader does not serve.
	ErrUnsupportedLevel = errors.New("unsupported processing level")
	// ErrUnknownTemplateField indicates a prefix template placeholder with no value.
	ErrUnknownTemplateField = errors.New("unknown template field")
	// ErrBadSTACItem indicates a STAC item that fetched but does not describe a usable scene.
	ErrBadSTACItem = errors.New("malformed STAC item")
)

// InvalidBandError reports a band name that is not present in a scene,
// along with the bands that are.
type InvalidBandError struct {
	Band  string
	Valid []string
}

func (e *InvalidBandError) Error() string {
	return fmt.Sprintf("%s is not a valid band; valid bands: %s", e.Band, strings.Join(e.Valid, ", "))
}
