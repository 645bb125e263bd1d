// Package validator decodes and validates request bodies with
// go-playground/validator. Besides the built-in tags it registers:
//
//	tenant_ref  a branch UUID, "all" or "none"
package validator

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/ghuser/bookcirc/pkg/httpx"
	"github.com/ghuser/bookcirc/pkg/tenancy"
)

// CodeInvalidInput is the machine code of a 422 validation response.
const CodeInvalidInput = "invalid_input"

var (
	validate = newValidate()
	json     = jsoniter.ConfigCompatibleWithStandardLibrary
)

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON name so messages match the request body.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	if err := v.RegisterValidation("tenant_ref", validTenantRef); err != nil {
		panic(err)
	}
	return v
}

func validTenantRef(fl validator.FieldLevel) bool {
	s := strings.TrimSpace(fl.Field().String())
	switch strings.ToLower(s) {
	case "", tenancy.RequestAll, tenancy.RequestNone:
		return true
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// Validate runs struct-level validation using go-playground/validator tags.
func Validate(s any) error {
	return validate.Struct(s)
}

// FormatValidationErrors maps each failing field to a readable message.
// Errors that are not validator.ValidationErrors yield an empty map.
func FormatValidationErrors(err error) map[string]string {
	out := make(map[string]string)
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return out
	}
	for _, e := range ve {
		out[e.Field()] = formatFieldError(e)
	}
	return out
}

func formatFieldError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "required_without":
		return fmt.Sprintf("Required when %s is not given", jsonName(e.Param()))
	case "uuid", "uuid4":
		return "Must be a valid UUID"
	case "tenant_ref":
		return `Must be a branch id, "all" or "none"`
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", strings.ReplaceAll(e.Param(), " ", ", "))
	case "min":
		if isNumber(e.Kind()) {
			return fmt.Sprintf("Must be at least %s", e.Param())
		}
		return fmt.Sprintf("Minimum length is %s", e.Param())
	case "max":
		if isNumber(e.Kind()) {
			return fmt.Sprintf("Must be at most %s", e.Param())
		}
		return fmt.Sprintf("Maximum length is %s", e.Param())
	case "gte":
		return fmt.Sprintf("Must be greater than or equal to %s", e.Param())
	case "lte":
		return fmt.Sprintf("Must be less than or equal to %s", e.Param())
	default:
		return fmt.Sprintf("Validation failed on '%s'", e.Tag())
	}
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// jsonName turns a Go field name such as ItemID into its body key item_id.
func jsonName(field string) string {
	var b strings.Builder
	for i, r := range field {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && field[i-1] >= 'a' && field[i-1] <= 'z' {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ValidationErrorBody is the 422 payload written when field validation fails.
type ValidationErrorBody struct {
	Error  string            `json:"error" example:"Validation failed"`
	Code   string            `json:"code" example:"invalid_input"`
	Fields map[string]string `json:"fields"`
} // @name ValidationErrorResponse

// ValidateRequest decodes the JSON request body into T and validates it.
// On failure it writes 400 (malformed JSON) or 422 (field errors) and
// returns false.
func ValidateRequest[T any](w http.ResponseWriter, r *http.Request) (*T, bool) {
	return validateRequest[T](w, r, false)
}

// ValidateOptionalRequest is ValidateRequest for endpoints whose body may
// be omitted. An empty body validates the zero T.
func ValidateOptionalRequest[T any](w http.ResponseWriter, r *http.Request) (*T, bool) {
	return validateRequest[T](w, r, true)
}

func validateRequest[T any](w http.ResponseWriter, r *http.Request, optional bool) (*T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !(optional && errors.Is(err, io.EOF)) {
		httpx.JSONError(w, http.StatusBadRequest, "Invalid JSON")
		return nil, false
	}
	if err := Validate(&req); err != nil {
		httpx.JSON(w, http.StatusUnprocessableEntity, ValidationErrorBody{
			Error:  "Validation failed",
			Code:   CodeInvalidInput,
			Fields: FormatValidationErrors(err),
		})
		return nil, false
	}
	return &req, true
}
