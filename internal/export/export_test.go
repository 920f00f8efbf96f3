package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"BestPrice/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func awareReport() *models.Report {
	return &models.Report{
		ID:         "rep-1",
		Dataset:    "EURUSD",
		Algorithm:  models.AlgoAware,
		Eta:        []float64{-0.02, -0.01, 0, 0.01},
		PureOnline: 1.1,
		BestPrice:  1.3,
		Curves: []models.Curve{
			{Label: "payoff(Hn=0.01, Hp=0.01)", Hn: 0.01, Hp: 0.01, Cells: []models.Cell{
				{Eta: -0.02},
				{Eta: -0.01, Value: 1.25, Present: true, Count: 2},
				{Eta: 0, Value: 1.2, Present: true, Count: 2},
				{Eta: 0.01, Value: 1.15, Present: true, Count: 2},
			}},
			{Label: "payoff(Hn=0.02, Hp=0.00)", Hn: 0.02, Cells: []models.Cell{
				{Eta: -0.02, Value: 1.3, Present: true, Count: 2},
				{Eta: -0.01, Value: 1.28, Present: true, Count: 2},
				{Eta: 0, Value: 1.22, Present: true, Count: 2},
				{Eta: 0.01},
			}},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, awareReport()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, `eta,"payoff(Hn=0.01, Hp=0.01)","payoff(Hn=0.02, Hp=0.00)",pure online,best price`, lines[0])
	assert.Equal(t, "-0.02,,1.3,1.1,1.3", lines[1])
	assert.Equal(t, "0,1.2,1.22,1.1,1.3", lines[3])
	assert.Equal(t, "0.01,1.15,,1.1,1.3", lines[4])
}

func TestWriteCSV_MisalignedCurve(t *testing.T) {
	r := awareReport()
	r.Curves[0].Cells = r.Curves[0].Cells[:2]
	assert.Error(t, WriteCSV(&bytes.Buffer{}, r))
}

func TestPaths(t *testing.T) {
	csvPath, chartPath := Paths("out", "BTCUSD", models.AlgoOblivious)
	assert.Equal(t, filepath.Join("out", "BTCUSD", "H_oblivious.csv"), csvPath)
	assert.Equal(t, filepath.Join("out", "BTCUSD", "BTCUSD_h_oblivious.png"), chartPath)
}

func TestChartTitles(t *testing.T) {
	p, err := Chart(awareReport())
	require.NoError(t, err)
	assert.Equal(t, "H-Aware", p.Title.Text)
	assert.Equal(t, "Average Payoff", p.Y.Label.Text)

	r := awareReport()
	r.Algorithm = models.AlgoOblivious
	p, err = Chart(r)
	require.NoError(t, err)
	assert.Equal(t, "H-Oblivious", p.Title.Text)
	assert.Equal(t, "Payoff", p.Y.Label.Text)
	assert.Equal(t, "error η", p.X.Label.Text)

	_, err = Chart(&models.Report{})
	assert.Error(t, err)
}

func TestExporter_WritesFiles(t *testing.T) {
	dir := t.TempDir()
	paths, err := NewExporter(dir, true, true, nil).Export(awareReport())
	require.NoError(t, err)
	require.Len(t, paths, 2)

	png, err := os.ReadFile(paths[1])
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))

	csvBytes, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(csvBytes), "eta,"))
}

func TestLegendLabel(t *testing.T) {
	assert.Equal(t, "r=0.75", legendLabel(models.AlgoOblivious, models.Curve{R: 0.75}))
	assert.Equal(t, "Hn=0.20, Hp=0.30", legendLabel(models.AlgoAware, models.Curve{Hn: 0.2, Hp: 0.3}))
}
