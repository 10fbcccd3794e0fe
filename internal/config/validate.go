package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"pytidy/internal/diag"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("pass", func(fl validator.FieldLevel) bool {
		return slices.Contains(PassOrder, fl.Field().String())
	})
	_ = validate.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		_, ok := diag.ParseCategory(fl.Field().String())
		return ok
	})
}

// Validate checks ranges and enumerated names.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: rule '%s' failed (value: '%v')", e.StructNamespace(), ruleText(e), e.Value()))
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}

func ruleText(e validator.FieldError) string {
	if e.Param() != "" {
		return e.Tag() + "=" + e.Param()
	}
	return e.Tag()
}
