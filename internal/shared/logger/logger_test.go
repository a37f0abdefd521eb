package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"admin-console/internal/shared/contextkeys"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoggerInterface_Contract(t *testing.T) {
	var _ Logger = NewLogger()
	var _ Logger = NewLoggerWithConfig("info", "json")
	var _ Logger = NewNopLogger()
}

func TestLogrusLogger_WithContext(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerWithOutput(&buf, "debug", "json")

	ctx := context.WithValue(context.Background(), contextkeys.ResourceKey, "user")
	ctx = context.WithValue(ctx, contextkeys.OperationKey, "create")
	ctx = context.WithValue(ctx, contextkeys.RecordIDKey, "")

	log.WithContext(ctx).WithComponent("form").Info("submitted")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "submitted", line["message"])
	assert.Equal(t, "user", line["resource"])
	assert.Equal(t, "create", line["operation"])
	assert.Equal(t, "form", line["component"])
	assert.NotContains(t, line, "record_id")
}

func TestLogrusLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerWithOutput(&buf, "warn", "text")
	log.Info("hidden")
	log.WithFields(map[string]interface{}{"foo": "bar"}).Warn("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "foo=bar")
}

func TestLogrusLogger_InvalidLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerWithOutput(&buf, "loud", "text")
	log.Debug("quiet")
	log.Info("audible")
	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "audible")
}

func TestNewZapLoggerWithConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zap.log")
	log, err := NewZapLoggerWithConfig("warn", "json", path)
	require.NoError(t, err)

	log.Info("quiet")
	log.Warn("dropping notification", zap.String("clientID", "c1"), zap.Int("buffered", 16))
	require.NoError(t, log.Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "dropping notification", entry["message"])
	assert.Equal(t, "c1", entry["clientID"])
	assert.EqualValues(t, 16, entry["buffered"])
	assert.Contains(t, entry, "timestamp")
}

func TestNewZapLoggerWithConfig_UnknownLevelIsInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zap.log")
	log, err := NewZapLoggerWithConfig("loud", "text", path)
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("shown")
	require.NoError(t, log.Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "hidden")
	assert.Contains(t, string(raw), "INFO")
	assert.Contains(t, string(raw), "shown")
}
