// SPDX-License-Identifier: MIT

package gdal

import "errors"

var (
	// ErrInvalidValue indicates a value that does not parse for its variable's kind.
	ErrInvalidValue = errors.New("invalid value")
	// ErrUnknownVariable indicates a variable name absent from the registry.
	ErrUnknownVariable = errors.New("unknown configuration variable")
	// ErrUnknownProfile indicates a profile name with no registered profile.
	ErrUnknownProfile = errors.New("unknown profile")
	// ErrUnknownFormat indicates an unsupported render format.
	ErrUnknownFormat = errors.New("unknown render format")
)
