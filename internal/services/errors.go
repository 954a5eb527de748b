package services

import (
	"errors"
	"fmt"
)

var (
	ErrLeadNotFound       = errors.New("lead not found")
	ErrTaskNotFound       = errors.New("task not found")
	ErrTagNotFound        = errors.New("tag not found")
	ErrMeetingNotFound    = errors.New("meeting not found")
	ErrCommentNotFound    = errors.New("comment not found")
	ErrAttachmentNotFound = errors.New("attachment not found")
	ErrAdminNotFound      = errors.New("admin not found")

	// ErrForbidden: the actor may not touch this lead (other project or
	// missing capability).
	ErrForbidden  = errors.New("forbidden")
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
