package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks struct tags and the rules tags cannot express.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}
	return validateCustomRules(cfg)
}

func validateCustomRules(cfg *Config) error {
	if cfg.Container.Backend == "binary" && len(cfg.Container.Text) > 0 {
		return fmt.Errorf("container.text: section is set but backend is binary")
	}
	if cfg.Container.Backend == "text" && len(cfg.Container.Binary) > 0 {
		return fmt.Errorf("container.binary: section is set but backend is text")
	}
	return nil
}

// formatValidationError reports the first failed field in a readable form.
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		e := validationErrs[0]
		return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)", e.Namespace(), e.Tag(), e.Value())
	}
	return err
}
