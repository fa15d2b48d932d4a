// SPDX-License-Identifier: MIT

package gdal

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"
)

// Format selects a render target for a profile.
type Format string

const (
	FormatDotenv     Format = "dotenv"
	FormatExport     Format = "export"
	FormatDockerArgs Format = "docker-args"
	FormatYAML       Format = "yaml"
)

// ParseFormat resolves a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatDotenv, "":
		return FormatDotenv, nil
	case FormatExport:
		return FormatExport, nil
	case FormatDockerArgs:
		return FormatDockerArgs, nil
	case FormatYAML:
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Render serializes the profile's assignments in the given format.
// Assignment order is preserved. Values render unmasked: rendering exists
// to produce deployable configuration, and masking secrets here would ship
// a broken environment. API and log output mask instead.
func Render(p *Profile, f Format) (string, error) {
	var b strings.Builder
	switch f {
	case FormatDotenv:
		fmt.Fprintf(&b, "# profile: %s\n", p.Name)
		for _, a := range p.Vars {
			fmt.Fprintf(&b, "%s=%s\n", a.Name, a.Value)
		}
	case FormatExport:
		fmt.Fprintf(&b, "# profile: %s\n", p.Name)
		for _, a := range p.Vars {
			fmt.Fprintf(&b, "export %s=%q\n", a.Name, a.Value)
		}
	case FormatDockerArgs:
		args := make([]string, 0, len(p.Vars))
		for _, a := range p.Vars {
			args = append(args, fmt.Sprintf("--env %s=%s", a.Name, a.Value))
		}
		b.WriteString(strings.Join(args, " "))
		b.WriteString("\n")
	case FormatYAML:
		out, err := yaml.Marshal(p)
		if err != nil {
			return "", fmt.Errorf("marshal profile: %w", err)
		}
		b.Write(out)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
	return b.String(), nil
}

// WriteFile renders the profile and writes it to path atomically, so a
// process reading the env file never observes a partial write.
func WriteFile(path string, p *Profile, f Format) error {
	data, err := Render(p, f)
	if err != nil {
		return err
	}
	if err := renameio.WriteFile(path, []byte(data), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ParseDotenv reads KEY=VALUE lines into a profile. Blank lines and
// #-comments are skipped. It is the inverse of Render(FormatDotenv).
func ParseDotenv(name, content string) (*Profile, error) {
	p := &Profile{Name: name}
	sc := bufio.NewScanner(strings.NewReader(content))
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		key, value, ok := strings.Cut(text, "=")
		if !ok {
			return nil, fmt.Errorf("%w: line %d: %q has no '='", ErrInvalidValue, line, text)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("%w: line %d: empty variable name", ErrInvalidValue, line)
		}
		p.Set(key, strings.TrimSpace(value))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan dotenv: %w", err)
	}
	return p, nil
}
