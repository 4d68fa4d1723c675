package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags and custom rules.
//
// This function uses go-playground/validator for declarative validation
// via struct tags, with additional custom validation for complex rules
// that cannot be expressed in tags. The selected backend section is decoded
// into the backend's Options and validated with the tags declared there.
//
// Note: Log level normalization is handled in ApplyDefaults, not here.
// Validation accepts both uppercase and lowercase log levels.
//
// Returns an error describing validation failures.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	if err := validateCustomRules(cfg); err != nil {
		return err
	}

	return nil
}

// validateCustomRules performs custom validation beyond struct tags.
func validateCustomRules(cfg *Config) error {
	flags := cfg.Mount.Flags

	// The driver only accepts a UNC name for network volumes
	if cfg.Mount.UNCName != "" && !flags.Network {
		return fmt.Errorf("mount: unc_name requires flags.network")
	}

	// The mount manager cannot register a volume visible to one session only
	if flags.MountManager && flags.CurrentSession {
		return fmt.Errorf("mount: flags.mount_manager and flags.current_session are mutually exclusive")
	}

	if _, err := decodeBackend(&cfg.Backend); err != nil {
		return err
	}

	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		e := validationErrs[0]
		return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
			e.Namespace(), e.Tag(), e.Value())
	}
	return err
}
