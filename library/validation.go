package library

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	mobilePattern = regexp.MustCompile(`^[0-9]{10}$`)
	otpPattern    = regexp.MustCompile(`^[0-9]{6}$`)
)

// loginForm is the trimmed input of the sign-in step.
type loginForm struct {
	Name   string `json:"name" validate:"required,min=2"`
	Mobile string `json:"mobile" validate:"required,mobile"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	err := v.RegisterValidation("mobile", func(fl validator.FieldLevel) bool {
		return mobilePattern.MatchString(fl.Field().String())
	})
	if err != nil {
		panic(fmt.Sprintf("register mobile validation: %v", err))
	}
	return v
}

// validateLogin returns nil or a ValidationErrors describing each bad field.
func validateLogin(form loginForm) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{Field: fe.Field(), Message: loginMessage(fe.Field(), fe.Tag())})
	}
	return out
}

func loginMessage(field, tag string) string {
	switch field {
	case "name":
		if tag == "required" {
			return "Name is required"
		}
		return "Name must be at least 2 characters"
	case "mobile":
		if tag == "required" {
			return "Mobile number is required"
		}
		return "Please enter a valid 10-digit mobile number"
	default:
		return field + " is invalid"
	}
}

// ValidOTP reports whether code is a complete 6-digit entry. The digits
// themselves are not checked.
func ValidOTP(code string) bool {
	return otpPattern.MatchString(strings.TrimSpace(code))
}
