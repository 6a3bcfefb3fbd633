package farming

import (
	"errors"
	"fmt"
	"time"

	"farmstead/internal/domain/farm"
)

var (
	ErrInvalidRequest         = errors.New("invalid farm request")
	ErrInvalidPlotClass       = errors.New("invalid plot class")
	ErrInsufficientInvestment = errors.New("insufficient investment")
	ErrPositionOccupied       = errors.New("position already occupied")
	ErrPlotNotFound           = errors.New("plot not found")
	ErrNotOwner               = errors.New("not your plot")
	ErrAlreadyHarvested       = errors.New("plot already harvested")
	ErrNotMature              = errors.New("plot not mature")
	ErrTransactionFailed      = errors.New("transaction failed")
	ErrInfrastructure         = errors.New("infrastructure error")
)

type InvalidPlotClassError struct {
	Class farm.PlotClass
	Known []farm.PlotClass
}

func (e *InvalidPlotClassError) Error() string {
	return fmt.Sprintf("%s: %q", ErrInvalidPlotClass.Error(), e.Class)
}

func (e *InvalidPlotClassError) Unwrap() error {
	return ErrInvalidPlotClass
}

type InsufficientInvestmentError struct {
	Class   farm.PlotClass
	Minimum float64
	Amount  float64
}

func (e *InsufficientInvestmentError) Error() string {
	return fmt.Sprintf("%s: %s requires at least %g, got %g", ErrInsufficientInvestment.Error(), e.Class, e.Minimum, e.Amount)
}

func (e *InsufficientInvestmentError) Unwrap() error {
	return ErrInsufficientInvestment
}

type PositionOccupiedError struct {
	X              float64
	Y              float64
	BlockingPlotID string
}

func (e *PositionOccupiedError) Error() string {
	return ErrPositionOccupied.Error()
}

func (e *PositionOccupiedError) Unwrap() error {
	return ErrPositionOccupied
}

type NotMatureError struct {
	PlotID    string
	Remaining time.Duration
	Progress  float64
}

func (e *NotMatureError) Error() string {
	return ErrNotMature.Error()
}

func (e *NotMatureError) Unwrap() error {
	return ErrNotMature
}

// TransactionFailedError is returned after the transaction has been rolled back.
type TransactionFailedError struct {
	Op  string
	Err error
}

func (e *TransactionFailedError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrTransactionFailed.Error(), e.Op, e.Err)
}

func (e *TransactionFailedError) Unwrap() []error {
	return []error{ErrTransactionFailed, e.Err}
}

type InfrastructureError struct {
	Op  string
	Err error
}

func (e *InfrastructureError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrInfrastructure.Error(), e.Op, e.Err)
}

func (e *InfrastructureError) Unwrap() []error {
	return []error{ErrInfrastructure, e.Err}
}

const (
	ReasonInvalidRequest         = "invalid_request"
	ReasonInvalidPlotClass       = "invalid_plot_class"
	ReasonInsufficientInvestment = "insufficient_investment"
	ReasonPositionOccupied       = "position_occupied"
	ReasonPlotNotFound           = "plot_not_found"
	ReasonNotOwner               = "not_owner"
	ReasonAlreadyHarvested       = "already_harvested"
	ReasonNotMature              = "not_mature"
	ReasonTransactionFailed      = "transaction_failed"
	ReasonInfrastructure         = "infrastructure_error"
)

// ReasonCode maps an engine error to its stable reason code. Business
// rejections win over the transaction wrapper.
func ReasonCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidRequest):
		return ReasonInvalidRequest
	case errors.Is(err, ErrInvalidPlotClass):
		return ReasonInvalidPlotClass
	case errors.Is(err, ErrInsufficientInvestment):
		return ReasonInsufficientInvestment
	case errors.Is(err, ErrPositionOccupied):
		return ReasonPositionOccupied
	case errors.Is(err, ErrPlotNotFound):
		return ReasonPlotNotFound
	case errors.Is(err, ErrNotOwner):
		return ReasonNotOwner
	case errors.Is(err, ErrAlreadyHarvested):
		return ReasonAlreadyHarvested
	case errors.Is(err, ErrNotMature):
		return ReasonNotMature
	case errors.Is(err, ErrTransactionFailed):
		return ReasonTransactionFailed
	default:
		return ReasonInfrastructure
	}
}

// IsRejection reports whether err is an expected business outcome rather
// than a storage failure.
func IsRejection(err error) bool {
	switch ReasonCode(err) {
	case "", ReasonTransactionFailed, ReasonInfrastructure:
		return false
	default:
		return true
	}
}
