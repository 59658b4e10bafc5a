package utils

import (
	"context"
	"math"
	"sync"
	"testing"

	"stock-backtest/pkg/logger"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSymbols(t *testing.T) {
	assert.Equal(t, []string{"NVDA", "AAPL", "BBCA"}, NormalizeSymbols([]string{" nvda", "AAPL", "", "nvda ", "bbca"}))
	assert.Equal(t, []string{"TSLA", "MSFT", "AMZN"}, SplitSymbols("tsla, msft\namzn,,"))
	assert.Empty(t, SplitSymbols(" , "))
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567.89, "1,234,568"},
		{-1234567, "-1,234,567"},
		{-12, "-12"},
		{math.NaN(), "n/a"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatMoney(tt.in))
	}
}

func TestFormatPercentage(t *testing.T) {
	assert.Equal(t, "+12.35%", FormatPercentage(12.345))
	assert.Equal(t, "-3.00%", FormatPercentage(-3))
	assert.Equal(t, "n/a", FormatPercentage(math.NaN()))
}

func TestShouldContinue(t *testing.T) {
	log := logger.NewNop()
	ctx, cancel := context.WithCancel(context.Background())
	assert.True(t, ShouldContinue(ctx, log))
	cancel()
	assert.False(t, ShouldContinue(ctx, log))
}

func TestGoSafe_RecoversPanic(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(1)
	GoSafe(logger.NewNop(), func() {
		defer wg.Done()
		panic("boom")
	})
	wg.Wait()
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-01")
	assert.NoError(t, err)
	assert.Equal(t, 2024, d.Year())

	_, err = ParseDate("01/03/2024")
	assert.Error(t, err)
}
