package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUI(jsonMode, verbose bool) (*UI, *bytes.Buffer) {
	var out bytes.Buffer
	return &UI{Out: &out, Err: &out, noColor: true, jsonMode: jsonMode, verbose: verbose}, &out
}

func TestTable(t *testing.T) {
	ui, out := newTestUI(false, false)

	ui.Table([]string{"PAGE", "WIDTH"}, [][]string{
		{"1", "595"},
		{"10", "842.5"},
	})

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "PAGE  WIDTH", lines[0])
	assert.Equal(t, "----  -----", lines[1])
	assert.Equal(t, "1     595", lines[2])
	assert.Equal(t, "10    842.5", lines[3])
}

func TestJSONModeSuppressesText(t *testing.T) {
	ui, out := newTestUI(true, true)

	ui.Success("done")
	ui.Info("note")
	ui.Step("step")
	ui.KeyValue("pages", "3")
	ui.Table([]string{"A"}, [][]string{{"1"}})
	assert.Empty(t, out.String())

	require.NoError(t, ui.PrintJSON(map[string]int{"pages": 3}))
	assert.JSONEq(t, `{"pages": 3}`, out.String())
	assert.False(t, ui.Interactive())
}

func TestStepNeedsVerbose(t *testing.T) {
	quiet, out := newTestUI(false, false)
	quiet.Step("hidden")
	assert.Empty(t, out.String())

	loud, out := newTestUI(false, true)
	loud.Step("loading %d pages", 3)
	assert.Equal(t, "→ loading 3 pages\n", out.String())
}

func TestProgressIsNilSafe(t *testing.T) {
	ui, _ := newTestUI(true, false)

	bar := ui.NewProgressBar(10, "pages")
	assert.Nil(t, bar)
	bar.Add(1)
	bar.Finish()

	spin := ui.NewSpinner("converting")
	assert.Nil(t, spin)
	spin.Start()
	spin.Stop()

	ip := ui.NewIndexProgress(3)
	assert.Nil(t, ip)
	ip.Done(true)
	ip.Wait()
}
