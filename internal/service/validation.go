package service

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"

	"github.com/noah-isme/sekolah-api/internal/grading"
)

var (
	validatorOnce sync.Once
	validate      *validator.Validate
	translator    ut.Translator
)

// NewValidator returns the shared validator. It reports JSON field names, English
// messages and understands the score and weight tags.
func NewValidator() *validator.Validate {
	validatorOnce.Do(func() {
		locale := en.New()
		translator, _ = ut.New(locale, locale).GetTranslator("en")

		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(fieldName)
		_ = validate.RegisterValidation("score", func(fl validator.FieldLevel) bool {
			return grading.ValidScore(fl.Field().Float())
		})
		_ = validate.RegisterValidation("weight", func(fl validator.FieldLevel) bool {
			return grading.ValidWeight(fl.Field().Float())
		})

		_ = entranslations.RegisterDefaultTranslations(validate, translator)
		registerMessage("score", "{0} out of range")
		registerMessage("weight", "{0} must be greater than 0 and at most 100")
	})
	return validate
}

func fieldName(field reflect.StructField) string {
	for _, tag := range []string{"json", "query", "form"} {
		name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return field.Name
}

func registerMessage(tag, text string) {
	_ = validate.RegisterTranslation(tag, translator,
		func(trans ut.Translator) error {
			return trans.Add(tag, text, true)
		},
		func(trans ut.Translator, fe validator.FieldError) string {
			message, err := trans.T(tag, fe.Field())
			if err != nil {
				return fe.Error()
			}
			return message
		})
}

// validateStruct runs struct validation and converts failures into a ValidationError.
func validateStruct(v *validator.Validate, payload interface{}) error {
	err := v.Struct(payload)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return newValidationError(err.Error())
	}

	NewValidator()
	fields := make([]FieldError, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		fields = append(fields, FieldError{Field: fieldErr.Field(), Message: fieldErr.Translate(translator)})
	}
	return newValidationError("", fields...)
}
