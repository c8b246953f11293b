package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologLoggerMethods(t *testing.T) {
	assert.NoError(t, os.Setenv("APP_ENV", "dev"))
	defer func() { assert.NoError(t, os.Unsetenv("APP_ENV")) }()
	l := NewZerologLogger("test")
	if l == nil {
		t.Fatalf("nil logger")
	}
	l.Debugf("debug %d", 1)
	l.Debugw("debug", map[string]any{"k": 1})
	l.Infof("info %s", "test")
	l.Warnf("warn")
	l.Errorf("error")
}

func TestComponentField(t *testing.T) {
	SetLevel("info")
	var buf bytes.Buffer
	l := NewWithWriter("bus-simulator", &buf)
	l.Warnf("unserved %d", 2)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "bus-simulator", rec["component"])
	assert.Equal(t, "warn", rec["level"])
	assert.Equal(t, "unserved 2", rec["message"])
}

func TestSetLevel(t *testing.T) {
	defer SetLevel("info")
	assert.Equal(t, zerolog.DebugLevel, SetLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, SetLevel(" WARN "))
	assert.Equal(t, zerolog.InfoLevel, SetLevel("bogus"))
	assert.Equal(t, zerolog.InfoLevel, SetLevel(""))

	SetLevel("error")
	var buf bytes.Buffer
	NewWithWriter("quiet", &buf).Infof("dropped")
	assert.Empty(t, buf.String())
}
