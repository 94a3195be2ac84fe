package debug

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		Init(false)
		SetOutput(os.Stderr)
	})

	Init(false)
	assert.False(t, Enabled())
	Debug("hidden debug")
	Info("hidden info")
	Warn("shown warning", "dialect", "sqlite")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown warning")
	assert.Contains(t, buf.String(), "dialect=sqlite")

	buf.Reset()
	Init(true)
	assert.True(t, Enabled())
	With("slot", "master").Debug("switched")
	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "slot=master")
}
