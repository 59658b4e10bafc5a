package repository

import "errors"

var (
	ErrSymbolNotFound = errors.New("symbol not found")
	ErrNoPriceData    = errors.New("no price data")
	ErrInvalidRange   = errors.New("invalid range")
)
