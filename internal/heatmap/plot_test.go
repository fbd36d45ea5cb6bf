package heatmap

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lipid-data/lipid.report/internal/dataset"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func TestRenderPNG(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, RenderPNG(&buf, twoByTwo(), Default("png smoke")))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic), "output should be a PNG")
}

func TestRenderPNGWithMissingCell(t *testing.T) {
	t.Parallel()

	table := twoByTwo()
	table.Rows[1].Abundance = dataset.Missing()

	var buf bytes.Buffer
	require.NoError(t, RenderPNG(&buf, table, Spec{Scaling: ScaleNone, Title: "sparse"}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestRenderPNGEmptyTable(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := RenderPNG(&buf, &dataset.TidyTable{}, Spec{})
	require.Error(t, err)
}

func TestMatrixGridFlipsRows(t *testing.T) {
	t.Parallel()

	g := &matrixGrid{m: &Matrix{
		RowLabels:    []string{"top", "bottom"},
		ColumnLabels: []string{"a"},
		Values:       [][]float64{{1}, {2}},
	}}

	c, r := g.Dims()
	assert.Equal(t, 1, c)
	assert.Equal(t, 2, r)

	// Grid row 0 draws at the bottom of the plot, so it must carry the
	// last matrix row.
	assert.Equal(t, 2.0, g.Z(0, 0))
	assert.Equal(t, 1.0, g.Z(0, 1))
}

func TestLabelTicks(t *testing.T) {
	t.Parallel()

	lt := labelTicks([]string{"a", "b", "c"})
	ticks := lt.Ticks(0, 1.5)
	require.Len(t, ticks, 2)
	assert.Equal(t, "a", ticks[0].Label)
	assert.Equal(t, 1.0, ticks[1].Value)
}
