package util

import (
	"errors"
	"fmt"
	"log"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

type ApiError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func msgForTag(fe validator.FieldError, customField *map[string]string) string {
	// convert to custom field if exist
	field := fe.Field()
	if _, ok := (*customField)[field]; ok {
		field = (*customField)[field]
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%v is required", field)
	case "email":
		return "Invalid email"
	case "numeric":
		return fmt.Sprintf("%v must be numeric", field)
	case "min":
		return fmt.Sprintf("%v must be at least %v characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%v must be at most %v characters", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%v must be greater than or equal to %v", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%v must be less than or equal to %v", field, fe.Param())
	case "cmin":
		return fmt.Sprintf("%v must be at least %v non-whitespace characters", field, fe.Param())
	case "cmax":
		return fmt.Sprintf("%v must be at most %v non-whitespace characters", field, fe.Param())
	case "strNotEmpty":
		return fmt.Sprintf("%v must not be empty or contain only whitespace charaters", field)
	case "dive":
		return fmt.Sprintf("%v contains an invalid entry", field)
	}

	log.Printf("Unknown tag: %v with error: %v", fe.Tag(), fe.Error())
	return fe.Error() // default error
}

/*
GenerateErrorMessages extracts validation errors and returns them as an array of ApiError.
Each ApiError contains the field name and a descriptive error message.

Optional Parameters:
- customField (map[string]string): A map to override field names in the error messages.
- fieldName (string): A field name to use for non-validator errors.
*/
func GenerateErrorMessages(err error, optionalParams ...interface{}) []ApiError {
	var customField map[string]string
	var fieldName string

	for _, param := range optionalParams {
		switch v := param.(type) {
		case map[string]string:
			customField = v
		case string:
			fieldName = v
		}
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		out := make([]ApiError, len(ve))
		for i, fe := range ve {
			field := fe.Field()
			if customField != nil {
				if customFieldName, ok := customField[field]; ok {
					field = customFieldName
				}
			}
			out[i] = ApiError{field, msgForTag(fe, &customField)}
		}
		return out
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return []ApiError{
			{
				Field:   "Unknown",
				Message: "Record not found",
			},
		}
	default:
		return []ApiError{
			{
				Field: func() string {
					if fieldName != "" {
						return fieldName
					} else {
						return "Unknown"
					}
				}(),
				Message: err.Error(),
			},
		}
	}
}

// RegisterCustomValidations wires our custom binding tags into a validator
// instance. Shared between the gin binding engine and standalone validators
// in the queue consumers.
func RegisterCustomValidations(v *validator.Validate) error {
	if err := v.RegisterValidation("strNotEmpty", StrNotEmpty); err != nil {
		return err
	}
	if err := v.RegisterValidation("cmin", CustomMin); err != nil {
		return err
	}
	if err := v.RegisterValidation("cmax", CustomMax); err != nil {
		return err
	}
	return nil
}

// check if string is empty, after trimming spaces
// Usage: `binding:"strNotEmpty"`
func StrNotEmpty(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return false
	}

	return len(strings.TrimSpace(field.String())) != 0
}

// check if string has length of at least the minimum value, after trimming spaces
// Usage: `binding:"cmin=3"`
func CustomMin(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return false
	}

	minLengthInt, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}

	return len(strings.TrimSpace(field.String())) >= minLengthInt
}

// check if string has length of at most the maximum value, after trimming spaces
// Usage: `binding:"cmax=3"`
func CustomMax(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return false
	}

	maxLengthInt, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}

	return len(strings.TrimSpace(field.String())) <= maxLengthInt
}
