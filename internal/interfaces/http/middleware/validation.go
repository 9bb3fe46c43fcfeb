package middleware

import (
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// SetupValidator configures gin's validator to report field names from
// json/form tags instead of Go struct fields
func SetupValidator() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			}
			return name
		})
	}
}

// ValidationMessage flattens a binding error into one readable line
func ValidationMessage(err error) string {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		switch e.Tag() {
		case "required":
			parts = append(parts, e.Field()+" is required")
		case "min":
			parts = append(parts, e.Field()+" must be at least "+e.Param())
		case "max":
			parts = append(parts, e.Field()+" must be at most "+e.Param())
		case "uuid":
			parts = append(parts, e.Field()+" must be a valid UUID")
		default:
			parts = append(parts, e.Field()+" is invalid")
		}
	}
	return strings.Join(parts, "; ")
}
