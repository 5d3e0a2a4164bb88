package model

import "fmt"

// InsufficientDataError reports a price series shorter than required.
type InsufficientDataError struct {
	Symbol string
	Have   int
	Need   int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: insufficient data: have %d bars, need %d", e.Symbol, e.Have, e.Need)
}

// InvalidInputError reports a malformed price series.
type InvalidInputError struct {
	Symbol string
	Reason string
}

func (e *InvalidInputError) Error() string {
	if e.Symbol == "" {
		return "invalid input: " + e.Reason
	}
	return fmt.Sprintf("%s: invalid input: %s", e.Symbol, e.Reason)
}
