package scheduling

import "errors"

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrPatientNotFound     = errors.New("patient not found")
	ErrSlotConflict        = errors.New("This time slot conflicts with another appointment")
	ErrRescheduleConflict  = errors.New("The new time slot conflicts with another appointment")
	ErrFinalStatus         = errors.New("appointment is already closed")
	ErrNotADoctor          = errors.New("current user has no doctor profile")
)
