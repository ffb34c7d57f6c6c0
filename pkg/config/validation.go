package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validate checks the configuration against its struct validation tags.
//
// Returns an error describing every failing field, or nil when the
// configuration is valid. Validation runs after defaults are applied,
// so a failure always means the user supplied a bad value or omitted a
// required one (the served root, for example).
func Validate(cfg *Config) error {
	validate := validator.New()

	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("config validation: %w", err)
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		messages = append(messages, describeFieldError(fieldErr))
	}

	return fmt.Errorf("invalid configuration:\n  %s", strings.Join(messages, "\n  "))
}

// describeFieldError renders one field failure with its dotted config
// path and the rule that failed.
func describeFieldError(fieldErr validator.FieldError) string {
	// Namespace looks like "Config.Server.Port"; strip the root struct
	// and lowercase it to match the YAML key style.
	path := fieldErr.Namespace()
	if idx := strings.Index(path, "."); idx >= 0 {
		path = path[idx+1:]
	}
	path = strings.ToLower(path)

	switch fieldErr.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", path)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s] (oneof), got %q", path, fieldErr.Param(), fieldErr.Value())
	case "min":
		return fmt.Sprintf("%s must be at least %s (min), got %v", path, fieldErr.Param(), fieldErr.Value())
	case "max":
		return fmt.Sprintf("%s must be at most %s (max), got %v", path, fieldErr.Param(), fieldErr.Value())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s (gt), got %v", path, fieldErr.Param(), fieldErr.Value())
	default:
		return fmt.Sprintf("%s failed '%s' validation", path, fieldErr.Tag())
	}
}
