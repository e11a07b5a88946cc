package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Params are the inputs of one backtest run. A run is a pure function of
// Params plus the price and yield history.
type Params struct {
	Symbol       string    `yaml:"symbol" default:"IVV"`
	LimitDays    int       `yaml:"n" default:"5" validate:"gte=1"`          // n
	Window       int       `yaml:"N" default:"10" validate:"gte=2"`         // N
	Alpha        float64   `yaml:"alpha" default:"0.02" validate:"gt=0"`    // limit markup
	LotSize      int       `yaml:"lot_size" default:"100" validate:"gte=1"` // shares per round trip
	StartingCash float64   `yaml:"starting_cash" validate:"gte=0"`          // DefaultStartingCash when absent
	StartDate    time.Time `yaml:"start_date" validate:"required"`
	EndDate      time.Time `yaml:"end_date" validate:"required,gtefield=StartDate"`
}

// DefaultStartingCash applies only when starting_cash is absent; an explicit
// 0 is kept.
const DefaultStartingCash = 50000.0

// Validate checks the struct tags and returns an error wrapping ErrInvalidParams.
func (p Params) Validate() error {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s%s", fe.Field(), fe.Tag(), paramSuffix(fe.Param())))
	}
	return fmt.Errorf("%w: %s", ErrInvalidParams, strings.Join(msgs, "; "))
}

func paramSuffix(p string) string {
	if p == "" {
		return ""
	}
	return "=" + p
}

// LimitPrice is the exit target for an entry filled at price.
func (p Params) LimitPrice(entry float64) float64 {
	return entry * (1 + p.Alpha)
}
