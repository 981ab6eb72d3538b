package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// FieldError describes one rejected request field by its JSON name.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message,omitempty"`
}

func newFieldError(field, rule, param string) FieldError {
	return FieldError{Field: field, Rule: rule, Param: param, Message: ruleMessage(rule, param)}
}

// BindJSON decodes and validates the request body into out, a pointer to
// one of the flat request structs. On failure it writes the 400 envelope
// and returns false.
func BindJSON(ctx *gin.Context, out any) bool {
	err := ctx.ShouldBindJSON(out)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		RespondBadRequest(ctx, "Request body too large", gin.H{"limit": tooLarge.Limit})
	case errors.Is(err, io.EOF):
		RespondBadRequest(ctx, "Missing request body", nil)
	default:
		RespondBadRequest(ctx, "Invalid request body", bindErrorDetails(err, out))
	}

	return false
}

// RespondInvalidFields writes the same envelope BindJSON uses for rule
// violations checked outside the validator.
func RespondInvalidFields(ctx *gin.Context, fields ...FieldError) {
	RespondBadRequest(ctx, "Invalid request body", gin.H{"fields": fields})
}

func bindErrorDetails(err error, out any) gin.H {
	var (
		invalid   validator.ValidationErrors
		badSyntax *json.SyntaxError
		wrongType *json.UnmarshalTypeError
	)

	switch {
	case errors.As(err, &invalid):
		dto := newRequestFields(out)
		fields := make([]FieldError, 0, len(invalid))
		for _, fe := range invalid {
			fields = append(fields, newFieldError(dto.jsonName(fe.StructField()), fe.Tag(), fe.Param()))
		}
		return gin.H{"fields": fields}

	case errors.As(err, &badSyntax):
		return gin.H{"json": "invalid_json_syntax"}

	case errors.As(err, &wrongType):
		// encoding/json already reports the offending key by its JSON name.
		field := wrongType.Field
		return gin.H{
			"json":  "invalid_json_type",
			"field": field,
			"fields": []FieldError{{
				Field:   field,
				Rule:    "type",
				Message: "must be of type " + wrongType.Type.String(),
			}},
		}
	}

	return gin.H{"reason": err.Error()}
}

// requestFields is the struct type behind a bind target.
type requestFields struct{ t reflect.Type }

func newRequestFields(out any) requestFields {
	t := reflect.TypeOf(out)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return requestFields{}
	}
	return requestFields{t: t}
}

// jsonName maps a Go field name to the key clients send.
func (r requestFields) jsonName(goName string) string {
	if r.t == nil {
		return goName
	}

	sf, ok := r.t.FieldByName(goName)
	if !ok {
		return goName
	}

	name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return goName
	}
	return name
}

func ruleMessage(rule, param string) string {
	switch rule {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "gt":
		return "must be greater than " + param
	case "min":
		return "must be at least " + param
	case "max":
		return "must be at most " + param
	case "len":
		return "must be exactly " + param
	case "oneof":
		return "must be one of " + strings.ReplaceAll(param, " ", ", ")
	}

	if param != "" {
		return fmt.Sprintf("failed %s validation (%s)", rule, param)
	}
	return "failed " + rule + " validation"
}
