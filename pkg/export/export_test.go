package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVRendersRowsInHeaderOrder(t *testing.T) {
	data := Dataset{
		Headers: []string{"Start", "Class"},
		Rows:    []map[string]string{{"Class": "Funcional, avanzado", "Start": "08:00"}},
	}
	out, err := NewCSVExporter().Render(data)
	require.NoError(t, err)
	assert.Equal(t, "Start,Class\n08:00,\"Funcional, avanzado\"\n", string(out))

	_, err = NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFRender(t *testing.T) {
	data := Dataset{
		Headers: []string{"Start", "Class"},
		Rows:    []map[string]string{{"Start": "08:00", "Class": "Pilates con Martín"}},
		Widths:  []float64{1, 3},
	}
	out, err := NewPDFExporter().Render(data, "Clases 2026-10-19")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestColumnWidths(t *testing.T) {
	assert.InDeltaSlice(t, []float64{69.25, 207.75}, columnWidths(Dataset{Headers: []string{"a", "b"}, Widths: []float64{1, 3}}), 0.001)
	assert.InDeltaSlice(t, []float64{138.5, 138.5}, columnWidths(Dataset{Headers: []string{"a", "b"}}), 0.001)
}
