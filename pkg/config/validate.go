package config

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/storyboard/pkg/errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every section against its constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.New(errors.ErrCodeInvalidConfig, "invalid config: %s", describe(err))
	}
	return nil
}

// Struct validates v by its `validate` tags and returns an INVALID_INPUT
// error naming each failing field. The server checks request bodies with
// it.
func Struct(v any) error {
	if err := validate.Struct(v); err != nil {
		return errors.New(errors.ErrCodeInvalidInput, "%s", describe(err))
	}
	return nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, describeField(e))
	}
	return strings.Join(msgs, "; ")
}

func describeField(e validator.FieldError) string {
	field := strings.ToLower(strings.TrimPrefix(e.Namespace(), "Config."))
	switch e.Tag() {
	case "required", "required_if":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "gt", "gte", "lt", "lte", "min", "max":
		return fmt.Sprintf("%s must be %s %s", field, comparison[e.Tag()], e.Param())
	case "gtfield":
		return fmt.Sprintf("%s must be greater than %s", field, strings.ToLower(e.Param()))
	case "url":
		return fmt.Sprintf("%s must be a URL", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

var comparison = map[string]string{
	"gt": ">", "gte": ">=", "lt": "<", "lte": "<=", "min": "at least", "max": "at most",
}
