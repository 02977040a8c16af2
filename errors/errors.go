package errors

import "fmt"

var (
	ErrInvalidCount     = fmt.Errorf("number of messages must be a whole number greater than 0")
	ErrEmptyRecipient   = fmt.Errorf("recipient is required")
	ErrInvalidRecipient = fmt.Errorf("cell phone number is incorrectly formatted or does not contain an international code")
	ErrEmptyBody        = fmt.Errorf("message is required")
	ErrMessageTooLong   = fmt.Errorf("message exceeds 250 characters")
	ErrPersistFailed    = fmt.Errorf("error saving message")
	ErrNotFound         = fmt.Errorf("not found")
	ErrUnknownAction    = fmt.Errorf("no valid option selected")
)
