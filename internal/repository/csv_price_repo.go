package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"stock-backtest/internal/dto"
	"stock-backtest/pkg/common"
	"stock-backtest/pkg/utils"
)

// CSVPriceRepository serves bars from a local file with a date column and a
// close column, e.g. a Yahoo "Download" export or a plain "date,close" file.
type CSVPriceRepository struct {
	path string
}

func NewCSVPriceRepository(path string) *CSVPriceRepository {
	return &CSVPriceRepository{path: path}
}

// Get ignores the range and returns every row of the file.
func (r *CSVPriceRepository) Get(ctx context.Context, param dto.GetStockDataParam) (*dto.StockData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open price file: %w", err)
	}
	defer f.Close()

	bars, err := ReadPriceCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", r.path, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: %s has no rows", ErrNoPriceData, r.path)
	}

	return &dto.StockData{
		Symbol:      strings.ToUpper(strings.TrimSpace(param.StockCode)),
		MarketPrice: bars[len(bars)-1].Close,
		Range:       param.Range,
		Interval:    defaultInterval,
		Source:      common.SOURCE_CSV,
		OHLCV:       bars,
	}, nil
}

// ReadPriceCSV parses rows into bars sorted by date. Rows with an empty,
// "null" or non-positive close are skipped; a repeated date keeps the last row.
func ReadPriceCSV(rd io.Reader) ([]dto.StockOHLCV, error) {
	reader := csv.NewReader(rd)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	dateCol, closeCol := 0, 1
	byDate := make(map[int64]dto.StockOHLCV)
	line := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line++

		if line == 1 {
			if d, c, ok := headerColumns(record); ok {
				dateCol, closeCol = d, c
				continue
			}
		}
		if dateCol >= len(record) || closeCol >= len(record) {
			return nil, fmt.Errorf("line %d: expected at least %d columns", line, max(dateCol, closeCol)+1)
		}

		raw := strings.TrimSpace(record[closeCol])
		if raw == "" || strings.EqualFold(raw, "null") {
			continue
		}
		closePrice, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid close %q: %w", line, raw, err)
		}
		if closePrice <= 0 {
			continue
		}

		date, err := utils.ParseDate(strings.TrimSpace(record[dateCol]))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid date %q: %w", line, record[dateCol], err)
		}
		byDate[date.Unix()] = dto.StockOHLCV{Timestamp: date.Unix(), Close: closePrice}
	}

	bars := make([]dto.StockOHLCV, 0, len(byDate))
	for _, bar := range byDate {
		bars = append(bars, bar)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Timestamp < bars[j].Timestamp })
	return bars, nil
}

// headerColumns locates the date and close columns when record is a header.
// "Adj Close" is preferred over "Close" when both are present so exports
// carry dividend and split adjusted prices.
func headerColumns(record []string) (int, int, bool) {
	dateCol, closeCol, adjCol := -1, -1, -1
	for i, name := range record {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "date", "datetime", "timestamp":
			dateCol = i
		case "close", "price":
			closeCol = i
		case "adj close", "adj_close":
			adjCol = i
		}
	}
	if adjCol >= 0 {
		closeCol = adjCol
	}
	if dateCol < 0 || closeCol < 0 {
		return 0, 0, false
	}
	return dateCol, closeCol, true
}
