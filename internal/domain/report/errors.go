package report

import "errors"

var (
	ErrNoFiles             = errors.New("please upload at least one file")
	ErrPatientNameRequired = errors.New("patient name is required")
	ErrSubmissionInFlight  = errors.New("an analysis is already in progress")
	ErrNoResult            = errors.New("no analysis result available")
)

// FailureMessage is the single user-visible message for any pipeline-fatal error.
const FailureMessage = "Failed to analyze the uploaded files. Please try again."

// IsValidation reports whether err is an input validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrNoFiles) || errors.Is(err, ErrPatientNameRequired)
}
