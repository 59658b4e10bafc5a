package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientData is returned when fewer than two prices are supplied,
	// so not a single return can be computed. Data sources report empty or
	// unavailable history with this error as well.
	ErrInsufficientData = errors.New("insufficient price data")

	// ErrInvalidParameter is returned when Params violate a precondition.
	ErrInvalidParameter = errors.New("invalid backtest parameter")
)

// Validate reports the first precondition p violates.
func (p Params) Validate() error {
	switch {
	case p.ShortWindow <= 0:
		return fmt.Errorf("%w: short window must be positive, got %d", ErrInvalidParameter, p.ShortWindow)
	case p.ShortWindow >= p.LongWindow:
		return fmt.Errorf("%w: short window %d must be less than long window %d", ErrInvalidParameter, p.ShortWindow, p.LongWindow)
	case p.CostRate < 0:
		return fmt.Errorf("%w: cost rate must not be negative, got %v", ErrInvalidParameter, p.CostRate)
	case p.InitialCapital <= 0:
		return fmt.Errorf("%w: initial capital must be positive, got %v", ErrInvalidParameter, p.InitialCapital)
	case p.RSIWindow < 0:
		return fmt.Errorf("%w: rsi window must not be negative, got %d", ErrInvalidParameter, p.RSIWindow)
	case p.UseRSIFilter && (p.RSICeiling <= 0 || p.RSICeiling >= 100):
		return fmt.Errorf("%w: rsi ceiling must be in (0,100), got %v", ErrInvalidParameter, p.RSICeiling)
	}
	return nil
}
