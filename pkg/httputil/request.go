package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

// validate is the shared validator instance. Field names in reported
// failures come from the json struct tag so they match the wire shape
// clients actually sent.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// FieldError is a single request-validation failure.
type FieldError struct {
	Field  string
	Reason string
}

// ValidationError aggregates every validation failure for a request body,
// in the order the validator reports them.
type ValidationError struct {
	Fields []FieldError
}

// Error joins the individual failures as "<field>: <reason>" pairs
// separated by ", ".
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Reason
	}
	return strings.Join(parts, ", ")
}

// DecodeAndValidate decodes the JSON request body into dest and runs
// struct validation on it. Both malformed JSON and schema mismatches
// surface as *ValidationError, which translates to a 400 envelope;
// malformed JSON reports a single "body" field.
func DecodeAndValidate(r *http.Request, dest interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return &ValidationError{Fields: []FieldError{{Field: "body", Reason: "invalid JSON: " + err.Error()}}}
	}

	if err := validate.Struct(dest); err != nil {
		var fieldErrs validator.ValidationErrors
		if !asValidationErrors(err, &fieldErrs) {
			return err
		}
		valErr := &ValidationError{Fields: make([]FieldError, 0, len(fieldErrs))}
		for _, fe := range fieldErrs {
			valErr.Fields = append(valErr.Fields, FieldError{Field: fe.Field(), Reason: reasonFor(fe)})
		}
		return valErr
	}

	return nil
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return false
	}
	*target = ve
	return true
}

// reasonFor renders a human-readable reason for a single field failure.
func reasonFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must have at least " + fe.Param() + " items or characters"
	case "max":
		return "must have at most " + fe.Param() + " items or characters"
	case "gte":
		return "must be " + fe.Param() + " or greater"
	case "lte":
		return "must be " + fe.Param() + " or less"
	case "gtefield":
		return "must be greater than or equal to " + fe.Param()
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return fmt.Sprintf("failed '%s' validation", fe.Tag())
	}
}

// GetPathVars returns all path variables from the request
func GetPathVars(r *http.Request) map[string]string {
	return mux.Vars(r)
}
