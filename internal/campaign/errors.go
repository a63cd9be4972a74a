package campaign

import (
	"errors"

	"github.com/teemow/mailcampaign/internal/session"
)

var (
	// ErrNotAuthenticated is returned when no Gmail session is available.
	ErrNotAuthenticated = session.ErrNotAuthenticated

	// ErrMissingFields is returned when title, message or group is empty.
	ErrMissingFields = errors.New("title, message and group are required")

	// ErrNoRecipients is returned when the target group has no members.
	ErrNoRecipients = errors.New("the selected group has no contacts")

	// ErrAllFailed is returned when not a single recipient was reached.
	ErrAllFailed = errors.New("all emails failed to send")

	// ErrInvalidMode is returned for an unknown send mode.
	ErrInvalidMode = errors.New("invalid send mode")

	// ErrInvalidTitle is returned for a title spanning more than one line.
	ErrInvalidTitle = errors.New("title must be a single line")

	// ErrMissingAddress is returned by SendTest without a recipient.
	ErrMissingAddress = errors.New("a test email address is required")
)
