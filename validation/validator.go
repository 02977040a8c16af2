package validation

import (
	"fmt"
	"quick-chat/domain"
	"quick-chat/errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("za_cell", func(fl validator.FieldLevel) bool {
		return domain.IsValidRecipient(fl.Field().String())
	})
	return v
}

// ValidateCompose checks the raw input for one message and maps the first failure
// to a rejection the caller can show before asking again.
func ValidateCompose(cmd domain.ComposeCommand) error {
	err := validate.Struct(cmd)
	if err == nil {
		return nil
	}
	fieldErrors, ok := err.(validator.ValidationErrors)
	if !ok || len(fieldErrors) == 0 {
		return err
	}
	fe := fieldErrors[0]
	switch {
	case fe.Field() == "Recipient" && fe.Tag() == "required":
		return errors.ErrEmptyRecipient
	case fe.Field() == "Recipient":
		return fmt.Errorf("%w: must start with +27 and be followed by exactly 9 digits, got %q",
			errors.ErrInvalidRecipient, cmd.Recipient)
	case fe.Field() == "Body":
		return errors.ErrEmptyBody
	default:
		return err
	}
}

// ParseCount reads how many messages the user wants to compose.
func ParseCount(input string) (int, error) {
	count, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", errors.ErrInvalidCount, input)
	}
	if err = validate.Var(count, "gt=0"); err != nil {
		return 0, fmt.Errorf("%w: %d", errors.ErrInvalidCount, count)
	}
	return count, nil
}
