package jumpscare

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Column names in the wheresthejump.com CSV header
const (
	ColumnID         = "IMDB"
	ColumnTitle      = "Movie Name"
	ColumnDirector   = "Director"
	ColumnYear       = "Year"
	ColumnJumpCount  = "Jump Count"
	ColumnJumpRating = "Jump Scare Rating"
	ColumnSummary    = "Summary"
	ColumnRating     = "Rating"
	ColumnSRTLink    = "SRT Link"
	ColumnURL        = "URL"
)

const utf8BOM = "\ufeff"

// Load reads the CSV dataset at the given path into an index.
// It never fails: A missing or unreadable file leads to an empty index, and rows that can't be used are skipped.
// The problems are logged instead, because the addon must start even without any data.
func Load(fs afero.Fs, path string, logger *zap.Logger) Index {
	f, err := fs.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn("Dataset file doesn't exist, starting with an empty index", zap.String("path", path))
		} else {
			logger.Error("Couldn't open dataset file, starting with an empty index", zap.String("path", path), zap.Error(err))
		}
		return NewIndex()
	}
	defer f.Close()
	data, err := afero.ReadAll(f)
	if err != nil {
		logger.Error("Couldn't read dataset file, starting with an empty index", zap.String("path", path), zap.Error(err))
		return NewIndex()
	}

	index, dropped := parse(data, logger)
	logger.Info("Loaded dataset", zap.String("path", path), zap.Int("records", index.Len()), zap.Int("dropped", dropped))
	logger.Debug("Dataset content", zap.Any("index", index.records))
	return index
}

func newCSVReader(data []byte) *csv.Reader {
	csvReader := csv.NewReader(bytes.NewReader(data))
	// Rows written by different scraper runs don't always have all columns
	csvReader.FieldsPerRecord = -1
	return csvReader
}

// parse reads all usable rows. It returns the index and the number of rows that were dropped.
func parse(data []byte, logger *zap.Logger) (Index, int) {
	csvReader := newCSVReader(data)

	header, err := csvReader.Read()
	if err != nil {
		if err != io.EOF {
			logger.Error("Couldn't read CSV header", zap.Error(err))
		}
		return NewIndex(), 0
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}
		columns[strings.TrimSpace(name)] = i
	}
	if _, ok := columns[ColumnID]; !ok {
		logger.Warn("Couldn't find ID column in CSV header, no row will be usable", zap.String("column", ColumnID), zap.Strings("csvHeader", header))
	}

	records := make(map[string]Record)
	dropped := 0
	// Number of lines in data before the part the current reader reads
	lineBase := 0
	for {
		row, err := csvReader.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			var parseErr *csv.ParseError
			if !errors.As(err, &parseErr) {
				logger.Error("Couldn't read CSV, stopping early", zap.Error(err))
				break
			}
			line := lineBase + parseErr.StartLine
			logger.Warn("Skipping malformed CSV row", zap.Int("line", line), zap.Error(err))
			dropped++
			// An unclosed quote makes the reader consume everything up to EOF, so continue with a new reader after the row's first line
			if errors.Is(err, csv.ErrQuote) {
				lineBase = line
				csvReader = newCSVReader(data[lineOffset(data, line):])
			}
			continue
		}

		get := func(column string) string {
			i, ok := columns[column]
			if !ok || i >= len(row) {
				return ""
			}
			return row[i]
		}

		id := strings.TrimSpace(get(ColumnID))
		if id == "" {
			logger.Debug("Skipping CSV row without ID", zap.Strings("row", row))
			dropped++
			continue
		}
		records[id] = Record{
			ID:           id,
			Title:        get(ColumnTitle),
			Director:     get(ColumnDirector),
			Year:         get(ColumnYear),
			JumpCount:    get(ColumnJumpCount),
			JumpRating:   get(ColumnJumpRating),
			Summary:      get(ColumnSummary),
			Rating:       get(ColumnRating),
			SubtitleLink: get(ColumnSRTLink),
			DetailURL:    get(ColumnURL),
		}
	}

	return Index{records: records}, dropped
}

// lineOffset returns the offset where line n+1 (1-based) starts, or len(data) if there's no such line.
func lineOffset(data []byte, n int) int {
	offset := 0
	for i := 0; i < n; i++ {
		j := bytes.IndexByte(data[offset:], '\n')
		if j < 0 {
			return len(data)
		}
		offset += j + 1
	}
	return offset
}
