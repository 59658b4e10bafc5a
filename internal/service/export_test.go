package service

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"testing"
	"time"

	"stock-backtest/internal/engine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteSeriesCSV(t *testing.T) {
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	prices := []engine.PricePoint{
		{Timestamp: day, Close: 100},
		{Timestamp: day.AddDate(0, 0, 1), Close: 110},
		{Timestamp: day.AddDate(0, 0, 2), Close: 121},
	}
	result, err := engine.Run(prices, engine.Params{ShortWindow: 1, LongWindow: 2, InitialCapital: 1000})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteSeriesCSV(&buf, result))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, seriesHeader, rows[0])

	assert.Equal(t, "2024-01-02", rows[1][0])
	assert.Equal(t, "100", rows[1][1])
	assert.Equal(t, "", rows[1][3], "long MA is undefined on the first bar")
	assert.Equal(t, "", rows[1][8], "first market return is undefined")
	ret, err := strconv.ParseFloat(rows[2][8], 64)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, ret, 1e-12)
	assert.Equal(t, "1000", rows[1][11])
}
