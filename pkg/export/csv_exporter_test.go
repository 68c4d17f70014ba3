package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVRender(t *testing.T) {
	dataset := NewDataset("Date", "Name", "Status")
	dataset.Append("2025-05-02", "Siti Rahma", "PRESENT")
	dataset.Append("2025-05-02", "Budi Santoso")

	out, err := NewCSVExporter().Render(*dataset)
	require.NoError(t, err)
	assert.Equal(t, "Date,Name,Status\n2025-05-02,Siti Rahma,PRESENT\n2025-05-02,Budi Santoso,\n", string(out))
}

func TestCSVRenderNoColumns(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	require.Error(t, err)
}

func TestPDFRender(t *testing.T) {
	dataset := NewDataset("Student", "Amount")
	dataset.Append("Siti Rahma", "350000")

	out, err := NewPDFExporter().Render(*dataset, "Billing 2025-05")
	require.NoError(t, err)
	assert.True(t, len(out) > 0)
	assert.Equal(t, "%PDF", string(out[:4]))
}
