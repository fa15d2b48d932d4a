// SPDX-License-Identifier: MIT

package gdal

import (
	"fmt"
	"os"

	"github.com/geofront/cogtune/internal/log"
)

// Source names where an effective value came from.
type Source string

const (
	SourceProfile     Source = "profile"
	SourceEnvironment Source = "environment"
	SourceDefault     Source = "default"
	SourceUnset       Source = "unset"
)

// EffectiveVar is one row of the effective-environment view: the value a
// GDAL process started now would observe, and where it came from.
type EffectiveVar struct {
	Name   string `json:"name"`
	Value  string `json:"value,omitempty"`
	Source Source `json:"source"`
}

// Snapshot captures the current values of every registered variable so a
// later Restore can undo an Apply exactly, including re-unsetting
// variables that were not set before.
type Snapshot struct {
	values map[string]*string // nil means the variable was unset
}

// TakeSnapshot reads every registered variable from the process environment.
func TakeSnapshot() *Snapshot {
	s := &Snapshot{values: make(map[string]*string, len(registry))}
	for name := range registry {
		if v, ok := os.LookupEnv(name); ok {
			val := v
			s.values[name] = &val
		} else {
			s.values[name] = nil
		}
	}
	return s
}

// Restore puts the environment back to the snapshot's state.
func (s *Snapshot) Restore() error {
	for name, val := range s.values {
		if val == nil {
			if err := os.Unsetenv(name); err != nil {
				return fmt.Errorf("restore %s: %w", name, err)
			}
			continue
		}
		if err := os.Setenv(name, *val); err != nil {
			return fmt.Errorf("restore %s: %w", name, err)
		}
	}
	return nil
}

// Apply sets every assignment of the profile into the process environment.
// Variables the profile does not name are left alone. The profile must
// validate without errors first; Apply re-checks and refuses otherwise.
func Apply(p *Profile) error {
	if issues := Validate(p); HasErrors(issues) {
		return fmt.Errorf("profile %q does not validate: %s", p.Name, firstError(issues))
	}
	logger := log.WithComponent("gdal")
	for _, a := range p.Vars {
		if err := os.Setenv(a.Name, a.Value); err != nil {
			return fmt.Errorf("set %s: %w", a.Name, err)
		}
		logger.Debug().
			Str("event", "gdal.env_applied").
			Str("variable", a.Name).
			Str("value", MaskValue(a.Name, a.Value)).
			Msg("applied configuration variable")
	}
	logger.Info().
		Str("event", "gdal.profile_applied").
		Str("profile", p.Name).
		Int("variables", len(p.Vars)).
		Msg("applied GDAL tuning profile")
	return nil
}

func firstError(issues []Issue) string {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return i.String()
		}
	}
	return ""
}

// LookupFunc resolves an environment variable; it matches os.LookupEnv so
// tests can substitute a fake environment.
type LookupFunc func(string) (string, bool)

// Effective computes the value each registered variable would have if the
// given profile were applied on top of the environment read through lookup.
// Profile assignments shadow the live environment, which shadows registry
// defaults. Sensitive values are masked.
func Effective(p *Profile, lookup LookupFunc) []EffectiveVar {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	out := make([]EffectiveVar, 0, len(registry))
	for _, v := range Variables() {
		row := EffectiveVar{Name: v.Name, Source: SourceUnset}
		if p != nil {
			if val, ok := p.Get(v.Name); ok {
				row.Value, row.Source = val, SourceProfile
			}
		}
		if row.Source == SourceUnset {
			if val, ok := lookup(v.Name); ok {
				row.Value, row.Source = val, SourceEnvironment
			} else if v.Default != "" {
				row.Value, row.Source = v.Default, SourceDefault
			}
		}
		row.Value = MaskValue(v.Name, row.Value)
		out = append(out, row)
	}
	return out
}

// DiffEntry records one variable whose profile value differs from the live
// environment.
type DiffEntry struct {
	Name     string `json:"name"`
	Profile  string `json:"profile"`
	Current  string `json:"current,omitempty"`
	WasUnset bool   `json:"was_unset,omitempty"`
}

// Diff lists the assignments in p that differ from the environment read
// through lookup. An empty result means Apply would be a no-op.
func Diff(p *Profile, lookup LookupFunc) []DiffEntry {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	var out []DiffEntry
	for _, a := range p.Vars {
		cur, ok := lookup(a.Name)
		if !ok {
			out = append(out, DiffEntry{Name: a.Name, Profile: a.Value, WasUnset: true})
			continue
		}
		if cur != a.Value {
			out = append(out, DiffEntry{Name: a.Name, Profile: a.Value, Current: MaskValue(a.Name, cur)})
		}
	}
	return out
}
