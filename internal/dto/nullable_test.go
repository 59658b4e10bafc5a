package dto

import (
	"encoding/json"
	"math"
	"testing"

	"stock-backtest/internal/engine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullableFloats_JSON(t *testing.T) {
	data, err := json.Marshal(NullableFloats{math.NaN(), 1.5, math.Inf(1), -2})
	require.NoError(t, err)
	assert.JSONEq(t, `[null, 1.5, null, -2]`, string(data))

	var back NullableFloats
	require.NoError(t, json.Unmarshal([]byte(`[null, 3]`), &back))
	require.Len(t, back, 2)
	assert.True(t, math.IsNaN(back[0]))
	assert.Equal(t, 3.0, back[1])
}

func TestBacktestResponse_MarshalsNaNSeries(t *testing.T) {
	result, err := engine.Run([]engine.PricePoint{
		{Close: 100}, {Close: 101}, {Close: 102},
	}, engine.DefaultParams())
	require.NoError(t, err)

	resp := BacktestResponse{
		Summary: NewSummaryResponse(result.Summary),
		Series:  NewSeriesResponse(result),
	}
	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	series := decoded["series"].(map[string]interface{})
	assert.Equal(t, []interface{}{nil, nil, nil}, series["short_ma"])
	assert.Nil(t, decoded["summary"].(map[string]interface{})["last_rsi"])
}

func TestBacktestParams_Apply(t *testing.T) {
	base := engine.DefaultParams()

	got := BacktestParams{}.Apply(base, PresetMidTerm)
	assert.Equal(t, 20, got.ShortWindow)
	assert.Equal(t, 60, got.LongWindow)

	short, off, cost := 3, false, 0.0
	got = BacktestParams{ShortWindow: &short, UseRSIFilter: &off, CostRate: &cost}.Apply(base, PresetCustom)
	assert.Equal(t, 3, got.ShortWindow)
	assert.Equal(t, 30, got.LongWindow)
	assert.False(t, got.UseRSIFilter)
	assert.Equal(t, 0.0, got.CostRate)
	assert.Equal(t, base.InitialCapital, got.InitialCapital)

	assert.Equal(t, base, BacktestParams{}.Apply(base, ""))
}
