package pharmacy

import (
	"errors"
	"fmt"
)

var (
	ErrDrugNotFound      = errors.New("drug not found")
	ErrDrugsNotFound     = errors.New("One or more drugs not found")
	ErrDrugExists        = errors.New("A drug with this name already exists")
	ErrPatientNotFound   = errors.New("patient not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// StockError reports a dispense that asks for more than is on the shelf.
type StockError struct {
	Drug      string
	Available int
}

func (e *StockError) Error() string {
	if e.Drug == "" {
		return fmt.Sprintf("Insufficient stock. Available: %d", e.Available)
	}
	return fmt.Sprintf("Insufficient stock for %s. Available: %d", e.Drug, e.Available)
}

func (e *StockError) Unwrap() error { return ErrInsufficientStock }
