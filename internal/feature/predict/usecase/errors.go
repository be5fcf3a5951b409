package usecase

import "errors"

var (
	// ErrNoImageSelected is returned when a prediction is requested before any file was selected.
	ErrNoImageSelected = errors.New("no image selected")

	// ErrSubmissionInProgress is returned when a view already has an outstanding prediction request.
	ErrSubmissionInProgress = errors.New("prediction already in progress")

	// ErrViewNotFound is returned when a view id is unknown or its TTL has elapsed.
	ErrViewNotFound = errors.New("view not found")

	// ErrPreviewNotFound is returned when a preview was released or has expired.
	ErrPreviewNotFound = errors.New("preview not found")
)
