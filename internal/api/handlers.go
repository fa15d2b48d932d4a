// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/geofront/cogtune/internal/config"
	"github.com/geofront/cogtune/internal/gdal"
	"github.com/geofront/cogtune/internal/log"
	"github.com/geofront/cogtune/internal/metrics"
	"github.com/geofront/cogtune/internal/objstore"
	"github.com/geofront/cogtune/internal/probe"
	"github.com/geofront/cogtune/internal/sentinel"
)

// handleEnv reports the effective GDAL environment: the configured profile
// resolved against the live process environment, with source attribution.
func (s *Server) handleEnv(w http.ResponseWriter, r *http.Request) {
	cfg := s.deps.Config.Current()

	p, err := config.EffectiveProfile(cfg)
	if err != nil {
		writeInternalError(w, r)
		return
	}

	diff := gdal.Diff(p, os.LookupEnv)
	for i, e := range diff {
		diff[i].Profile = gdal.MaskValue(e.Name, e.Profile)
	}

	writeJSON(w, http.StatusOK, struct {
		Profile string              `json:"profile"`
		Vars    []gdal.EffectiveVar `json:"vars"`
		Diff    []gdal.DiffEntry    `json:"diff,omitempty"`
	}{
		Profile: p.Name,
		Vars:    gdal.Effective(p, os.LookupEnv),
		Diff:    diff,
	})
}

type profileSummary struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Vars        int    `json:"vars"`
}

func (s *Server) handleProfiles(w http.ResponseWriter, r *http.Request) {
	all := gdal.Profiles()
	out := make([]profileSummary, 0, len(all))
	for _, p := range all {
		out = append(out, profileSummary{
			Name:        p.Name,
			Description: p.Description,
			Vars:        len(p.Vars),
		})
	}
	writeJSON(w, http.StatusOK, struct {
		Profiles []profileSummary `json:"profiles"`
	}{Profiles: out})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	p, err := gdal.ProfileByName(chi.URLParam(r, "name"))
	if err != nil {
		writeNotFound(w, r, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, struct {
		*gdal.Profile
		Issues []gdal.Issue `json:"issues,omitempty"`
	}{
		Profile: maskProfile(p),
		Issues:  gdal.Validate(p),
	})
}

var renderContentTypes = map[gdal.Format]string{
	gdal.FormatDotenv:     "text/plain; charset=utf-8",
	gdal.FormatExport:     "text/plain; charset=utf-8",
	gdal.FormatDockerArgs: "text/plain; charset=utf-8",
	gdal.FormatYAML:       "application/yaml",
}

func (s *Server) handleProfileRender(w http.ResponseWriter, r *http.Request) {
	p, err := gdal.ProfileByName(chi.URLParam(r, "name"))
	if err != nil {
		writeNotFound(w, r, err.Error())
		return
	}

	format := gdal.FormatDotenv
	if q := r.URL.Query().Get("format"); q != "" {
		format, err = gdal.ParseFormat(q)
		if err != nil {
			writeBadRequest(w, r, err.Error())
			return
		}
	}

	out, err := gdal.Render(maskProfile(p), format)
	if err != nil {
		writeInternalError(w, r)
		return
	}

	w.Header().Set("Content-Type", renderContentTypes[format])
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, out)
}

// maskProfile clones p with sensitive values replaced, so API responses
// never leak credentials that landed in a profile override.
func maskProfile(p *gdal.Profile) *gdal.Profile {
	masked := p.Clone()
	for i, a := range masked.Vars {
		masked.Vars[i].Value = gdal.MaskValue(a.Name, a.Value)
	}
	return masked
}

const maxProbeBody = 4 << 10

type probeRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleProbe(w http.ResponseWriter, r *http.Request) {
	var req probeRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxProbeBody)).Decode(&req); err != nil {
		writeBadRequest(w, r, "invalid JSON body")
		return
	}
	if req.URL == "" {
		writeBadRequest(w, r, "url is required")
		return
	}

	report, err := s.deps.Prober.Probe(r.Context(), req.URL)
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}

	if s.deps.History != nil {
		if err := s.deps.History.Put(report); err != nil {
			logger := log.WithComponentFromContext(r.Context(), "api")
			logger.Warn().
				Err(err).
				Str("event", "probe.history_write_failed").
				Str("url", report.URL).
				Msg("probe report not persisted")
		}
	}

	writeJSON(w, http.StatusOK, report)
}

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

func (s *Server) handleProbeHistory(w http.ResponseWriter, r *http.Request) {
	if s.deps.History == nil {
		writeError(w, r, http.StatusServiceUnavailable, "history disabled", "")
		return
	}

	url := r.URL.Query().Get("url")
	if url == "" {
		writeBadRequest(w, r, "url query parameter is required")
		return
	}

	limit := defaultHistoryLimit
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n <= 0 {
			writeBadRequest(w, r, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	reports, err := s.deps.History.Recent(url, limit)
	if err != nil {
		writeInternalError(w, r)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		URL     string          `json:"url"`
		Reports []*probe.Report `json:"reports"`
	}{URL: url, Reports: reports})
}

func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	scene, ok := s.resolveScene(w, r)
	if !ok {
		return
	}

	bandURLs := make(map[string]string, len(scene.Bands))
	for _, band := range scene.Bands {
		u, err := s.deps.Reader.BandURL(scene, band)
		if err != nil {
			writeInternalError(w, r)
			return
		}
		bandURLs[band] = u
	}

	writeJSON(w, http.StatusOK, struct {
		*sentinel.Scene
		BandURLs map[string]string `json:"band_urls"`
	}{Scene: scene, BandURLs: bandURLs})
}

func (s *Server) handleSceneCoverage(w http.ResponseWriter, r *http.Request) {
	scene, ok := s.resolveScene(w, r)
	if !ok {
		return
	}

	minZoom, maxZoom := scene.MinZoom, scene.MaxZoom
	var err error
	if q := r.URL.Query().Get("minzoom"); q != "" {
		if minZoom, err = strconv.Atoi(q); err != nil {
			writeBadRequest(w, r, "minzoom must be an integer")
			return
		}
	}
	if q := r.URL.Query().Get("maxzoom"); q != "" {
		if maxZoom, err = strconv.Atoi(q); err != nil {
			writeBadRequest(w, r, "maxzoom must be an integer")
			return
		}
	}

	report, err := sentinel.Coverage(scene, minZoom, maxZoom)
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// resolveScene fetches the scene from the path parameter and maps domain
// errors to HTTP statuses. It has written the response when ok is false.
func (s *Server) resolveScene(w http.ResponseWriter, r *http.Request) (*sentinel.Scene, bool) {
	if s.deps.Reader == nil {
		writeError(w, r, http.StatusServiceUnavailable, "scene resolution disabled", "")
		return nil, false
	}

	scene, err := s.deps.Reader.Scene(r.Context(), chi.URLParam(r, "sceneID"))
	switch {
	case err == nil:
		metrics.IncSceneLookup("success")
		return scene, true
	case errors.Is(err, sentinel.ErrInvalidSceneID), errors.Is(err, sentinel.ErrUnsupportedLevel):
		metrics.IncSceneLookup("invalid")
		writeBadRequest(w, r, err.Error())
	case errors.Is(err, objstore.ErrNotFound):
		metrics.IncSceneLookup("not_found")
		writeNotFound(w, r, "scene has no STAC item upstream")
	default:
		metrics.IncSceneLookup("error")
		writeUpstreamError(w, r, err.Error())
	}
	return nil, false
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Config.Reload(r.Context()); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "reload failed", err.Error())
		return
	}
	cfg := s.deps.Config.Current()
	writeJSON(w, http.StatusOK, struct {
		Status  string `json:"status"`
		Profile string `json:"profile"`
	}{Status: "reloaded", Profile: cfg.Profile})
}
