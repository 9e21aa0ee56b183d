package middleware

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var languageCode = regexp.MustCompile(`^[a-zA-Z]{2}([-_][a-zA-Z]{2})?$`)

type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	validate := validator.New()

	commonTags := []string{
		"json",
		"param",
		"query",
		"header",
	}

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range commonTags {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return ""
	})

	// language accepts "fr" or "fr-CH" style codes
	_ = validate.RegisterValidation("language", func(fl validator.FieldLevel) bool {
		return languageCode.MatchString(fl.Field().String())
	})

	return &Validator{validate: validate}
}

func (v *Validator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}
