package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "a b", Truncate(" a\nb ", 10))
	assert.Equal(t, "abcde...", Truncate("abcdefgh", 5))

	got := Truncate("ok 🎉🎉🎉 done", 4)
	assert.Equal(t, "ok 🎉...", got)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "héllo", Truncate("héllo", 5))
}

func TestSubsystemField(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, false, false)
	defer SetOutput(os.Stderr, false, false)

	Info("bot", "posted %d", 3)
	Debug("bot", "hidden")
	Error("twitter", errors.New("boom"), "lookup %s", "42")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &first))
	assert.Equal(t, "bot", first["subsystem"])
	assert.Equal(t, "posted 3", first["message"])
	assert.Equal(t, "info", first["level"])

	var second map[string]any
	require.NoError(t, json.Unmarshal(lines[1], &second))
	assert.Equal(t, "boom", second["error"])
	assert.Equal(t, "lookup 42", second["message"])
}
