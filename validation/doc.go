// Package validation checks configuration and pipeline definition structs
// using go-playground/validator struct tags.
//
// Failures are reported as *errors.AppError with code CONFIGURATION_ERROR,
// since every struct validated here is user-supplied configuration:
//
//	type Fetch struct {
//	    MaxChars int `yaml:"max_chars" validate:"gte=0"`
//	}
//	if err := validation.Validate(cfg); err != nil {
//	    return err
//	}
package validation
