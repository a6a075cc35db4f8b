// Package tabfile loads site time series tables from CSV files. It is a
// thin CLI-side loader; the computation packages consume in-memory tables
// and never touch the filesystem.
package tabfile

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/cqscope/cqscope/internal/contract"
	"github.com/cqscope/cqscope/schema"
)

// missingTokens are cell values treated as missing measurements.
var missingTokens = map[string]struct{}{
	"": {}, "na": {}, "nan": {}, "null": {}, "-9999": {},
}

// LoadTables reads the configured input path (a CSV file or a directory of
// CSV files) and returns one table per site, rows sorted by time. The site
// filter and time bounds from the config are applied here so downstream
// packages only ever see the requested window.
func LoadTables(cfg *contract.Config) ([]*schema.SeriesTable, error) {
	paths, err := resolveInputPaths(cfg.InputPath)
	if err != nil {
		return nil, err
	}

	bySite := make(map[string][]schema.SeriesRow)
	for _, path := range paths {
		if err := loadFile(path, cfg, bySite); err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
	}

	siteIDs := make([]string, 0, len(bySite))
	for siteID := range bySite {
		siteIDs = append(siteIDs, siteID)
	}
	sort.Strings(siteIDs)

	tables := make([]*schema.SeriesTable, 0, len(siteIDs))
	for _, siteID := range siteIDs {
		rows := bySite[siteID]
		sort.SliceStable(rows, func(i, j int) bool {
			return rows[i].Time.Before(rows[j].Time)
		})
		tables = append(tables, &schema.SeriesTable{SiteID: siteID, Rows: rows})
	}
	return tables, nil
}

// resolveInputPaths expands a directory into its CSV files.
func resolveInputPaths(inputPath string) ([]string, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{inputPath}, nil
	}

	entries, err := os.ReadDir(inputPath)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			paths = append(paths, filepath.Join(inputPath, entry.Name()))
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no CSV files found in %s", inputPath)
	}
	sort.Strings(paths)
	return paths, nil
}

// loadFile appends the rows of one CSV file into the per-site map.
func loadFile(path string, cfg *contract.Config, bySite map[string][]schema.SeriesRow) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("reading header: %w", err)
	}
	cols, err := resolveColumns(header, cfg)
	if err != nil {
		return err
	}

	records, err := r.ReadAll()
	if err != nil {
		return err
	}

	for i, record := range records {
		siteID := cfg.SiteFilter
		if cols.site >= 0 {
			siteID = strings.TrimSpace(record[cols.site])
		}
		if siteID == "" {
			// Single-site file without a site column, keyed by file name.
			siteID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		if cfg.SiteFilter != "" && siteID != cfg.SiteFilter {
			continue
		}

		ts, err := contract.ParseRowTime(record[cols.time], cfg.TimeFormat)
		if err != nil {
			return fmt.Errorf("row %d: %w", i+2, err)
		}
		if !cfg.StartTime.IsZero() && ts.Before(cfg.StartTime) {
			continue
		}
		if !cfg.EndTime.IsZero() && ts.After(cfg.EndTime) {
			continue
		}

		bySite[siteID] = append(bySite[siteID], schema.SeriesRow{
			Time: ts,
			Q:    parseCell(record[cols.q]),
			C:    parseCell(record[cols.c]),
		})
	}
	return nil
}

type columnIndexes struct {
	site int // -1 when the file has no site column
	time int
	q    int
	c    int
}

// resolveColumns maps the configured column names onto header positions.
// The site column is optional; time, Q and C are required.
func resolveColumns(header []string, cfg *contract.Config) (columnIndexes, error) {
	idx := columnIndexes{site: -1, time: -1, q: -1, c: -1}
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case cfg.SiteColumn:
			idx.site = i
		case cfg.TimeColumn:
			idx.time = i
		case cfg.QColumn:
			idx.q = i
		case cfg.CColumn:
			idx.c = i
		}
	}
	if idx.time < 0 {
		return idx, fmt.Errorf("missing required column %q", cfg.TimeColumn)
	}
	if idx.q < 0 {
		return idx, fmt.Errorf("missing required column %q", cfg.QColumn)
	}
	if idx.c < 0 {
		return idx, fmt.Errorf("missing required column %q", cfg.CColumn)
	}
	return idx, nil
}

// parseCell converts one numeric cell, mapping missing tokens to NaN so
// downstream calculators can skip them explicitly.
func parseCell(s string) float64 {
	s = strings.TrimSpace(s)
	if _, ok := missingTokens[strings.ToLower(s)]; ok {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
