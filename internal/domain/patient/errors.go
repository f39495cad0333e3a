package patient

import "errors"

var (
	ErrPatientNotFound = errors.New("patient not found")
	ErrDuplicate       = errors.New("Patient with this phone number or email already exists")
	ErrDuplicateOther  = errors.New("Another patient with this phone number or email already exists")
)
