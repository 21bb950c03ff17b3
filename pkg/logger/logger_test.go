package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cdli/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{"info level", &config.LoggingConfig{Level: "info"}, false},
		{"empty level defaults to warn", &config.LoggingConfig{}, false},
		{"invalid level", &config.LoggingConfig{Level: "loud"}, true},
		{"file output", &config.LoggingConfig{Level: "debug", File: filepath.Join(t.TempDir(), "logs", "cdli.log")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":    zerolog.DebugLevel,
		"INFO":     zerolog.InfoLevel,
		"warning":  zerolog.WarnLevel,
		"":         zerolog.WarnLevel,
		"error":    zerolog.ErrorLevel,
		"disabled": zerolog.Disabled,
	}

	for input, expected := range tests {
		level, err := ParseLevel(input)
		require.NoError(t, err, input)
		assert.Equal(t, expected, level, input)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(&config.LoggingConfig{Level: "warn", NoColor: true}, &buf)
	require.NoError(t, err)

	l.Info("hidden message")
	l.WithField("label", "periods").Warn("visible message")

	out := buf.String()
	assert.NotContains(t, out, "hidden message")
	assert.Contains(t, out, "visible message")
	assert.Contains(t, out, "periods")
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cdli.log")
	var console bytes.Buffer

	l, err := NewWithWriter(&config.LoggingConfig{Level: "info", File: path, NoColor: true}, &console)
	require.NoError(t, err)

	l.InfoWithFields("export started", map[string]interface{}{"format": "csv"})

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"format":"csv"`)
	assert.Contains(t, console.String(), "export started")
}

func TestLogRequest(t *testing.T) {
	tl := NewTestLogger()

	LogRequest(tl, "GET", "https://cdli.earth/periods", 200, 15*time.Millisecond)
	LogRequest(tl, "GET", "https://cdli.earth/periods", 504, time.Second)

	messages := tl.GetMessages()
	require.Len(t, messages, 2)
	assert.Equal(t, "DEBUG", messages[0].Level)
	assert.Equal(t, int64(15), messages[0].Fields["duration_ms"])
	assert.Equal(t, "WARN", messages[1].Level)
	assert.Equal(t, "HTTP request server error", messages[1].Message)
}

func TestLogTaskSettled(t *testing.T) {
	tl := NewTestLogger()
	cause := errors.New("boom")

	LogTaskSettled(tl, "periods", 3, nil)
	LogTaskSettled(tl, "rulers", 0, cause)

	assert.True(t, tl.HasMessage("export task fulfilled"))
	rejected := tl.GetMessagesByLevel("ERROR")
	require.Len(t, rejected, 1)
	assert.Equal(t, cause, rejected[0].Error)
	assert.Equal(t, "rulers", rejected[0].Fields["label"])
}

func TestTestLoggerChildrenShareRecorder(t *testing.T) {
	tl := NewTestLogger()
	child := tl.WithField("run_id", "abc").WithFields(map[string]interface{}{"label": "periods"})

	child.Info("page fetched")

	messages := tl.GetMessages()
	require.Len(t, messages, 1)
	assert.Equal(t, "abc", messages[0].Fields["run_id"])
	assert.Equal(t, "periods", messages[0].Fields["label"])

	tl.Clear()
	assert.Empty(t, tl.GetMessages())
}

func TestGlobalLogger(t *testing.T) {
	tl := NewTestLogger()
	SetLogger(tl)
	t.Cleanup(func() { SetLogger(nil) })

	GetLogger().Warn("through global")
	assert.True(t, tl.HasMessage("through global"))

	NewNopLogger().WithError(errors.New("x")).Error("discarded")
}
