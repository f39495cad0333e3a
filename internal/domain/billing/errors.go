package billing

import "errors"

var (
	ErrPatientNotFound = errors.New("patient not found")
	ErrNoCharges       = errors.New("no billing records selected")
)
