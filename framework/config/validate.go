package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid configuration")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the struct tags on c.
func (c *Config) Validate() error {
	if c.Admin.Enabled && c.Admin.Addr == "" {
		return fmt.Errorf("%w: admin.addr is required when admin is enabled", ErrInvalid)
	}
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, fieldError(f))
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}

func fieldError(e validator.FieldError) string {
	field := strings.ToLower(strings.TrimPrefix(e.Namespace(), "Config."))
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "hostname_port":
		return fmt.Sprintf("%s must be host:port, got %q", field, e.Value())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
