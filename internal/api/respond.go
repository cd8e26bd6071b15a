package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/apperr"
)

const (
	dateLayout = "2006-01-02"

	unauthorizedMessage = "authentication required"
	internalMessage     = "internal server error"
)

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, errorType, message string) {
	writeJSON(w, status, ErrorResponse{Message: message, ErrorType: errorType})
}

// decodeAndValidate decodes the JSON body into dst and runs struct tags.
func decodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return decodeError(err)
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return apperr.Validation(describe(verrs))
		}
		return apperr.Validation(err.Error())
	}
	return nil
}

// decodeError names the offending field when the body is well formed JSON
// but a value has the wrong shape.
func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	var parseErr *time.ParseError
	switch {
	case errors.Is(err, io.EOF):
		return apperr.Validation("request body is required")
	case errors.As(err, &typeErr) && typeErr.Field != "":
		return apperr.Validation(typeErr.Field + " must be a " + jsonKind(typeErr.Type) + ", got " + typeErr.Value)
	case errors.As(err, &parseErr):
		return apperr.Validation("invalid timestamp " + strconv.Quote(parseErr.Value))
	default:
		return apperr.Validation("request body must be valid JSON")
	}
}

func jsonKind(t reflect.Type) string {
	if t == nil {
		return "value"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "array"
	default:
		return "object"
	}
}

func describe(verrs validator.ValidationErrors) string {
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			parts = append(parts, field+" is required")
		case "uuid":
			parts = append(parts, field+" must be a valid UUID")
		case "datetime":
			parts = append(parts, field+" must match "+fe.Param())
		case "email":
			parts = append(parts, field+" must be a valid email")
		default:
			parts = append(parts, field+" failed "+fe.Tag())
		}
	}
	return strings.Join(parts, "; ")
}

// writeServiceError maps an error kind to its HTTP status and body.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch apperr.CodeOf(err) {
	case apperr.CodeValidation:
		writeError(w, http.StatusBadRequest, "validation", publicMessage(err))
	case apperr.CodeInvalidTransition:
		writeError(w, http.StatusBadRequest, "invalid_transition", publicMessage(err))
	case apperr.CodeNotFound:
		writeError(w, http.StatusNotFound, "not_found", publicMessage(err))
	case apperr.CodeConflict:
		var ce *appointment.ConflictError
		if errors.As(err, &ce) {
			t := ce.ConflictTime.UTC()
			writeJSON(w, http.StatusConflict, ErrorResponse{
				Message:      "the doctor already has an appointment within 30 minutes of the requested time",
				ErrorType:    "doctor_unavailable",
				ConflictTime: &t,
			})
			return
		}
		writeError(w, http.StatusConflict, "doctor_busy", publicMessage(err))
	case apperr.CodeAuth:
		zerolog.Ctx(r.Context()).Debug().Err(err).Msg("request not authenticated")
		writeError(w, http.StatusUnauthorized, "unauthorized", unauthorizedMessage)
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal", internalMessage)
	}
}

func publicMessage(err error) string {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return err.Error()
}
