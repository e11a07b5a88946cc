package domain

import "errors"

// Errores fatales de un run. Los call sites los envuelven con contexto
// (fecha, conteos) y los callers comparan con errors.Is.
var (
	ErrInsufficientHistory = errors.New("insufficient history")
	ErrMissingData         = errors.New("missing data")
	ErrInsufficientTrades  = errors.New("insufficient trades")
	ErrInvalidParams       = errors.New("invalid parameters")
)
