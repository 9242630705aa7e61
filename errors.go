package edgedriver

import (
	"fmt"
)

// Error is an edgedriver error.
type Error string

// Error satisfies the error interface.
func (err Error) Error() string {
	return string(err)
}

// Error values.
const (
	// ErrInvalidArgument is the error returned when an option value is
	// rejected, such as an unknown page load strategy or an empty argument.
	ErrInvalidArgument Error = "invalid argument"

	// ErrChromiumRequired is returned when a Chromium driver is requested
	// with legacy options.
	ErrChromiumRequired Error = "options.use_chromium must be set to true when using an Edge Chromium driver service."

	// ErrLegacyRequired is returned when a legacy driver is requested with
	// Chromium options.
	ErrLegacyRequired Error = "options.use_chromium must be set to false when using an Edge Legacy driver service."

	// ErrAlreadyStarted is the already started error.
	ErrAlreadyStarted Error = "already started"

	// ErrNotStarted is returned when a service is used before Start.
	ErrNotStarted Error = "not started"

	// ErrServiceNotReady is returned when the driver service did not answer
	// its status endpoint in time.
	ErrServiceNotReady Error = "driver service not ready"

	// ErrNoSession is returned when a vendor command is issued without an
	// active session.
	ErrNoSession Error = "no session"

	// ErrNoDevTools is returned when no DevTools endpoint is available for
	// the session.
	ErrNoDevTools Error = "no devtools endpoint"

	// ErrUnknownCommand is returned for a vendor command name that is not
	// in the command table.
	ErrUnknownCommand Error = "unknown command"
)

// CommandError is an error reported by the remote end for a vendor command.
type CommandError struct {
	// Command is the vendor command name, eg executeCdpCommand.
	Command string

	// HTTPStatus is the HTTP status code of the response.
	HTTPStatus int

	// Code is the W3C error code ("unknown command", "no such window"),
	// or the numeric status of a legacy JSON wire protocol response.
	Code string

	// Message is the remote end's message.
	Message string
}

// Error satisfies the error interface.
func (e *CommandError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("%s: %d: %s", e.Command, e.HTTPStatus, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Command, e.Code, e.Message)
}
