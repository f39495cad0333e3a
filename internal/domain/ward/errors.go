package ward

import "errors"

var (
	ErrWardNotFound      = errors.New("ward not found")
	ErrBedNotFound       = errors.New("bed not found")
	ErrAdmissionNotFound = errors.New("Admission not found")
	ErrWardExists        = errors.New("Ward name already exists")
	ErrBedExists         = errors.New("Bed number already exists in this ward")
	ErrBedUnavailable    = errors.New("Bed is not available")
	ErrAlreadyDischarged = errors.New("Patient is already discharged")
	ErrReferenceNotFound = errors.New("patient or admitting doctor not found")
)
