package meetbot

import "errors"

// Failure categories for the join/record workflow. Callers branch on these
// with errors.Is; lower layers wrap them with context via fmt.Errorf.
var (
	// ErrNavigation means the meeting page could not be reached, either
	// through timeouts or redirects away from the conferencing domain.
	ErrNavigation = errors.New("meetbot: navigation failed")

	// ErrMeetingNotFound means the platform explicitly reported that the
	// meeting does not exist or has not started.
	ErrMeetingNotFound = errors.New("meetbot: meeting not found")

	// ErrJoinTimeout means no join control could be located within the
	// bounded number of retries.
	ErrJoinTimeout = errors.New("meetbot: join control not found")

	// ErrRecordingProcess means the capture subprocess failed to start or
	// stop cleanly.
	ErrRecordingProcess = errors.New("meetbot: recording process failed")

	// ErrUpload means the recorded artifact could not be transferred. It is
	// logged after the session has already ended and never fails a session.
	ErrUpload = errors.New("meetbot: artifact upload failed")

	// ErrAdapterBusy means the adapter's single execution slot is occupied.
	ErrAdapterBusy = errors.New("meetbot: adapter busy with another session")
)
