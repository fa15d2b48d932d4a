// SPDX-License-Identifier: MIT

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "log output: %s", buf.String())
	return entry
}

func TestConfigure_ServiceAndVersionFields(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "info", Output: &buf, Service: "cogtune-test", Version: "v1.2.3"})

	base := Base()
	base.Info().Msg("hello")

	entry := captureLine(t, &buf)
	assert.Equal(t, "cogtune-test", entry["service"])
	assert.Equal(t, "v1.2.3", entry["version"])
	assert.Equal(t, "hello", entry["message"])
}

func TestConfigure_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "warn", Output: &buf, Service: "cogtune-test"})

	base := Base()
	base.Info().Msg("dropped")
	assert.Empty(t, buf.String())

	base.Warn().Msg("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "debug", Output: &buf, Service: "cogtune-test"})

	lg := WithComponent("probe")
	lg.Info().Msg("x")

	entry := captureLine(t, &buf)
	assert.Equal(t, "probe", entry["component"])
}

func TestRequestIDContextRoundTrip(t *testing.T) {
	ctx := ContextWithRequestID(context.Background(), "req-42")
	assert.Equal(t, "req-42", RequestIDFromContext(ctx))
	assert.Equal(t, "", RequestIDFromContext(context.Background()))
}

func TestWithComponentFromContext(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "debug", Output: &buf, Service: "cogtune-test"})

	ctx := ContextWithRequestID(context.Background(), "req-42")
	lg := WithComponentFromContext(ctx, "api")
	lg.Info().Msg("x")

	entry := captureLine(t, &buf)
	assert.Equal(t, "api", entry["component"])
	assert.Equal(t, "req-42", entry["request_id"])
}
