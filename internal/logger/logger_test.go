package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStructuredVariantsEmitAttributes(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)
	SetLevel("debug")
	defer SetLevel("info")

	Infow("tick end", "trace", "t-1", "posted", true)
	Debugw("http request", "status", 200)

	out := buf.String()
	assert.Contains(t, out, "msg=\"tick end\"")
	assert.Contains(t, out, "trace=t-1")
	assert.Contains(t, out, "posted=true")
	assert.Contains(t, out, "status=200")
}

func TestSetLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)
	SetLevel("warn")
	defer SetLevel("info")

	Debugf("hidden %d", 1)
	Infof("also hidden")
	Warnw("kept", "k", "v")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "kept")
	assert.Contains(t, out, "k=v")
}
