package tui_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/ingest/internal/presentation/tui"
)

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	tui.PrintBanner(&buf, "1.2.3")

	out := buf.String()
	assert.Contains(t, out, "v1.2.3")
	assert.Contains(t, out, `|_|_| |_|\__, |`)
	// A buffer is not a terminal, so no escape sequences are written.
	assert.NotContains(t, out, "\x1b[")
}

func TestNewRenderer(t *testing.T) {
	render, err := tui.NewRenderer(40)
	require.NoError(t, err)

	out, err := render("Give the new object a **label**.")
	require.NoError(t, err)
	assert.Contains(t, out, "label")
	assert.NotEmpty(t, strings.TrimSpace(out))
}
