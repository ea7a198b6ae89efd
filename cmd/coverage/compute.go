package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wiless/coverage"
	"github.com/wiless/coverage/deployment"
)

var (
	towersFile string
	outFile    string
)

var computeCmd = &cobra.Command{
	Use:   "compute",
	Short: "Compute rasters for the towers of a file and write GeoJSON",
	Example: `  coverage compute --towers towers.yaml --out coverage.geojson
  COVERAGE_GRID_MAXRADIUS=5000 coverage compute --towers towers.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		shutdown, err := initTracing(cmd.Context(), appConfig.Trace)
		if err != nil {
			return err
		}
		defer shutdownWithTimeout(shutdown)

		towers, grid, err := deployment.LoadTowersOver(towersFile, appConfig.Grid)
		if err != nil {
			return err
		}
		if err := grid.Validate(); err != nil {
			return err
		}
		log.Infof("loaded %d towers from %s", len(towers), towersFile)

		svc := coverage.NewService()
		if appConfig.Workers > 0 {
			svc.Workers = appConfig.Workers
		}
		result := svc.CalculateCoverage(cmd.Context(), towers, grid)

		if err := writeGeoJSON(outFile, result); err != nil {
			return err
		}

		printSummary(os.Stderr, towers, grid, result)
		if len(result.Errors) == len(towers) && len(towers) > 0 {
			return fmt.Errorf("all %d towers failed", len(towers))
		}
		return nil
	},
}

func init() {
	computeCmd.Flags().StringVarP(&towersFile, "towers", "t", "towers.yaml", "tower file (.yaml, .yml or .json)")
	computeCmd.Flags().StringVarP(&outFile, "out", "o", "-", "GeoJSON output file, - for stdout")
}

// writeGeoJSON writes the merged rasters to path, or stdout for "" and "-".
func writeGeoJSON(path string, result coverage.Result) error {
	if path == "" || path == "-" {
		return encodeGeoJSON(os.Stdout, result)
	}
	fid, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encodeGeoJSON(fid, result); err != nil {
		fid.Close()
		return err
	}
	if err := fid.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}

func encodeGeoJSON(w io.Writer, result coverage.Result) error {
	if err := json.NewEncoder(w).Encode(result.Merged()); err != nil {
		return fmt.Errorf("writing GeoJSON: %w", err)
	}
	return nil
}

func printSummary(w io.Writer, towers []deployment.Tower, grid deployment.GridConfig, result coverage.Result) {
	byID := make(map[string]deployment.Tower, len(towers))
	for _, t := range towers {
		byID[t.ID] = t
	}
	ok := color.New(color.FgGreen)
	failed := color.New(color.FgRed)
	for _, raster := range result.Rasters {
		s := raster.Summarize(byID[raster.TowerID], grid)
		ok.Fprintf(w, "%-36s %7d cells  peak %7.2f dBm  mean %7.2f dBm  %8.2f km2\n",
			s.TowerID, s.Samples, s.PeakDbm, s.MeanDbm, s.CoveredAreaKm2)
	}
	for _, e := range result.Errors {
		failed.Fprintf(w, "%-36s failed: %v\n", e.TowerID, e.Err)
	}
}
