// Package validator validates request payloads against struct tags.
package validator

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	vd "github.com/go-playground/validator/v10"
	"github.com/ncobase/passport/ecode"
)

var (
	validate *vd.Validate
	once     sync.Once
)

func instance() *vd.Validate {
	once.Do(func() {
		validate = vd.New(vd.WithRequiredStructEnabled())
		// report fields by their json name so errors line up with the payload
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// ValidateStruct validates s and returns one field error per violation.
// A nil slice means the payload is valid.
func ValidateStruct(s any) []ecode.FieldError {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}
	verrs, ok := err.(vd.ValidationErrors)
	if !ok {
		return []ecode.FieldError{{
			Field:   "",
			Code:    "INVALID_PAYLOAD",
			Message: err.Error(),
		}}
	}
	out := make([]ecode.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, ecode.FieldError{
			Field:         fe.Field(),
			Code:          strings.ToUpper(fe.Tag()),
			Message:       messageFor(fe),
			RejectedValue: rejected(fe),
		})
	}
	return out
}

func messageFor(fe vd.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// rejected echoes the offending value back, except for secrets.
func rejected(fe vd.FieldError) any {
	if strings.Contains(strings.ToLower(fe.Field()), "password") {
		return nil
	}
	return fe.Value()
}
