package doctor

import "errors"

var (
	ErrDoctorNotFound   = errors.New("doctor not found")
	ErrScheduleNotFound = errors.New("Doctor is not available on this day")
	ErrLicenseExists    = errors.New("License number already exists")
)
