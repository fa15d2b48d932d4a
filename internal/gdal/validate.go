// SPDX-License-Identifier: MIT

package gdal

import (
	"fmt"
	"strings"
)

// Severity classifies a validation finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is a single validation finding for a profile.
type Issue struct {
	Severity Severity `json:"severity"`
	Variable string   `json:"variable,omitempty"`
	Message  string   `json:"message"`
}

func (i Issue) String() string {
	if i.Variable == "" {
		return fmt.Sprintf("%s: %s", i.Severity, i.Message)
	}
	return fmt.Sprintf("%s: %s: %s", i.Severity, i.Variable, i.Message)
}

// minIngestedBytes is the smallest open window that still covers the IFD of
// a typical tiled COG header in one request.
const minIngestedBytes = 16384

// Validate checks every assignment in the profile against the registry and
// then applies cross-variable rules. It never mutates the environment.
// Findings with SeverityError make the profile unusable; warnings flag
// combinations that are legal but usually unintended.
func Validate(p *Profile) []Issue {
	var issues []Issue
	if p == nil {
		return []Issue{{Severity: SeverityError, Message: "nil profile"}}
	}

	seen := make(map[string]string, len(p.Vars))
	for _, a := range p.Vars {
		v, ok := Lookup(a.Name)
		if !ok {
			issues = append(issues, Issue{
				Severity: SeverityError, Variable: a.Name,
				Message: "not a known GDAL/PROJ configuration variable",
			})
			continue
		}
		if _, dup := seen[v.Name]; dup {
			issues = append(issues, Issue{
				Severity: SeverityWarning, Variable: v.Name,
				Message: "assigned more than once; the last assignment wins",
			})
		}
		seen[v.Name] = a.Value
		if err := CheckValue(v, a.Value); err != nil {
			issues = append(issues, Issue{
				Severity: SeverityError, Variable: v.Name, Message: err.Error(),
			})
		}
	}

	issues = append(issues, crossChecks(seen)...)
	return issues
}

// crossChecks validates interactions between variables. The values map
// holds only assignments that belong to known variables.
func crossChecks(values map[string]string) []Issue {
	var issues []Issue

	vsiOn := false
	if v, ok := values["VSI_CACHE"]; ok {
		if b, err := ParseBool(v); err == nil {
			vsiOn = b
		}
	}
	if _, ok := values["VSI_CACHE_SIZE"]; ok && !vsiOn {
		issues = append(issues, Issue{
			Severity: SeverityWarning, Variable: "VSI_CACHE_SIZE",
			Message: "has no effect unless VSI_CACHE is TRUE",
		})
	}

	if v, ok := values["GDAL_HTTP_MULTIPLEX"]; ok {
		if b, err := ParseBool(v); err == nil && b {
			if hv, ok := values["GDAL_HTTP_VERSION"]; ok && !strings.HasPrefix(hv, "2") {
				issues = append(issues, Issue{
					Severity: SeverityWarning, Variable: "GDAL_HTTP_MULTIPLEX",
					Message: fmt.Sprintf("multiplexing needs HTTP/2 but GDAL_HTTP_VERSION pins %q", hv),
				})
			}
		}
	}

	if v, ok := values["GDAL_INGESTED_BYTES_AT_OPEN"]; ok {
		if n, err := ParseByteSize(v); err == nil && n < minIngestedBytes {
			issues = append(issues, Issue{
				Severity: SeverityWarning, Variable: "GDAL_INGESTED_BYTES_AT_OPEN",
				Message: fmt.Sprintf("%d bytes is below the %d-byte header window of a typical tiled COG", n, minIngestedBytes),
			})
		}
	}

	// EMPTY_DIR already hides sidecars; an extension allowlist on top of it
	// is harmless but the combination usually means one of the two was
	// cargo-culted. Only warn when the allowlist excludes .ovr explicitly.
	if v, ok := values["GDAL_DISABLE_READDIR_ON_OPEN"]; ok && strings.EqualFold(v, "EMPTY_DIR") {
		if exts, ok := values["CPL_VSIL_CURL_ALLOWED_EXTENSIONS"]; ok {
			if list, err := ParseExtList(exts); err == nil && !containsFold(list, ".ovr") {
				issues = append(issues, Issue{
					Severity: SeverityWarning, Variable: "GDAL_DISABLE_READDIR_ON_OPEN",
					Message: "EMPTY_DIR plus an allowlist without .ovr makes external overviews unreachable",
				})
			}
		}
	}

	if pay, ok := values["AWS_REQUEST_PAYER"]; ok && pay != "" {
		if v, ok := values["AWS_NO_SIGN_REQUEST"]; ok {
			if b, err := ParseBool(v); err == nil && b {
				issues = append(issues, Issue{
					Severity: SeverityError, Variable: "AWS_REQUEST_PAYER",
					Message: "requester-pays access requires signed requests; unset AWS_NO_SIGN_REQUEST",
				})
			}
		}
	}

	return issues
}

func containsFold(list []string, want string) bool {
	for _, s := range list {
		if strings.EqualFold(s, want) {
			return true
		}
	}
	return false
}

// HasErrors reports whether any finding is an error.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}
