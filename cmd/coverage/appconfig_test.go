package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wiless/coverage"
	"github.com/wiless/coverage/deployment"
)

func TestReadAppConfigDefaults(t *testing.T) {
	cfg, err := ReadAppConfig(viper.New(), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, deployment.DefaultGridConfig(), cfg.Grid)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ":8080", cfg.Addr)
}

func TestReadAppConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	config := `
log:
  format: json
grid:
  maxRadius: 5000
  sectors: 6
  latStep: 0.001
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(config), 0o600))
	t.Setenv("COVERAGE_GRID_BEAMWIDTH", "90")
	t.Setenv("COVERAGE_ADDR", ":9999")

	cfg, err := ReadAppConfig(viper.New(), dir)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, 5000.0, cfg.Grid.MaxRadiusMeters)
	assert.Equal(t, 6, cfg.Grid.Sectors)
	assert.Equal(t, 0.001, cfg.Grid.LatStep)
	assert.Equal(t, 0.002, cfg.Grid.LonStep)
	assert.Equal(t, 90.0, cfg.Grid.HBeamWidth)
}

func TestReadAppConfigRejectsInvalidGrid(t *testing.T) {
	t.Setenv("COVERAGE_GRID_SECTORS", "0")
	_, err := ReadAppConfig(viper.New(), t.TempDir())
	assert.ErrorIs(t, err, deployment.ErrInvalidGrid)
}

func TestReadAppConfigCellLimit(t *testing.T) {
	cfg, err := ReadAppConfig(viper.New(), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, deployment.DefaultMaxCells, cfg.Grid.MaxCells)

	t.Setenv("COVERAGE_GRID_MAXCELLS", "1000")
	_, err = ReadAppConfig(viper.New(), t.TempDir())
	assert.ErrorIs(t, err, deployment.ErrInvalidGrid)
}

func TestWriteGeoJSON(t *testing.T) {
	result := coverage.Result{Rasters: []coverage.Raster{
		{TowerID: "a", Samples: []coverage.GridSample{{Latitude: -16.4, Longitude: -71.5, ReceivedPowerDbm: -80}}},
	}}
	path := filepath.Join(t.TempDir(), "coverage.geojson")
	require.NoError(t, writeGeoJSON(path, result))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc struct {
		Type     string        `json:"type"`
		Features []interface{} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "FeatureCollection", doc.Type)
	assert.Len(t, doc.Features, 1)

	err = writeGeoJSON(filepath.Join(t.TempDir(), "missing", "coverage.geojson"), result)
	assert.Error(t, err)
}

func TestSetupLogging(t *testing.T) {
	assert.NoError(t, setupLogging("debug", "json"))
	assert.NoError(t, setupLogging("info", ""))
	assert.Error(t, setupLogging("loud", "text"))
	assert.Error(t, setupLogging("info", "xml"))
}

func TestPrintSummary(t *testing.T) {
	towers := []deployment.Tower{deployment.DefaultTower("a", 0, 0), deployment.DefaultTower("b", 0, 0)}
	result := coverage.Result{
		Rasters: []coverage.Raster{{TowerID: "a", Samples: []coverage.GridSample{{ReceivedPowerDbm: -80}}}},
		Errors:  []coverage.TowerError{{TowerID: "b", Err: errors.New("boom")}},
	}
	var buf bytes.Buffer
	printSummary(&buf, towers, deployment.DefaultGridConfig(), result)
	out := buf.String()
	assert.Contains(t, out, "a ")
	assert.Contains(t, out, "-80.00 dBm")
	assert.Contains(t, out, "b ")
	assert.Contains(t, out, "failed: boom")
}
