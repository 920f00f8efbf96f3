package di

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"BestPrice/internal/domain/models"
	internalrepo "BestPrice/internal/repository"
	"BestPrice/pkg/config"
	"BestPrice/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Default()
	require.NoError(t, err)

	dir := t.TempDir()
	cfg.Dataset.Name = "TEST"
	cfg.Dataset.DataDir = dir
	cfg.Output.Dir = filepath.Join(dir, "out")
	cfg.Output.Charts = false
	cfg.Experiment.WholePeriod = 5
	cfg.Experiment.TradingPeriod = 4
	cfg.Experiment.Samples = 2
	cfg.Experiment.EtaStep = 0.1
	cfg.Experiment.RValues = []float64{1}
	cfg.Experiment.HPairs = [][2]float64{{0.1, 0.1}}

	rows := "a\tb\tc\td\t1\na\tb\tc\td\t2\na\tb\tc\td\t3\na\tb\tc\td\t4\na\tb\tc\td\t5\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "TEST.csv"), []byte(rows), 0o644))
	return cfg
}

func TestInitializeBatch_InMemory(t *testing.T) {
	cfg := testConfig(t)
	batch, cleanup, err := InitializeBatch(cfg, logger.Nop())
	require.NoError(t, err)
	defer cleanup()

	reports, err := batch.Run(context.Background(), "TEST", []models.Algorithm{models.AlgoAware}, 1)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.FileExists(t, filepath.Join(cfg.Output.Dir, "TEST", "H_aware.csv"))
}

func TestInitializeApp_WithoutInfrastructure(t *testing.T) {
	app, cleanup, err := InitializeApp(testConfig(t), logger.Nop())
	require.NoError(t, err)
	defer cleanup()
	assert.NotNil(t, app)
}

func TestInitializeLive(t *testing.T) {
	sel, err := InitializeLive(testConfig(t), logger.Nop())
	require.NoError(t, err)
	assert.NotNil(t, sel)
}

func TestProvidePriceSource(t *testing.T) {
	cfg := testConfig(t)
	src, err := ProvidePriceSource(cfg, nil, logger.Nop())
	require.NoError(t, err)
	assert.IsType(t, &internalrepo.FilePriceSource{}, src)

	cfg.Dataset.Source = "clickhouse"
	_, err = ProvidePriceSource(cfg, nil, logger.Nop())
	assert.Error(t, err)
}

func TestProvideReportPublisher_NoopWithoutKafka(t *testing.T) {
	pub, cleanup := ProvideReportPublisher(testConfig(t), nil, logger.Nop())
	defer cleanup()
	assert.IsType(t, internalrepo.NoopReportPublisher{}, pub)
}
