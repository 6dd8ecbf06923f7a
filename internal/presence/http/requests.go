package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"regexp"
	"strings"

	"github.com/rollcallhq/presence/pkg/httpx"

	"github.com/go-playground/validator/v10"
)

// maxBodySize bounds request bodies; every payload here is a handful of
// short identifier fields.
const maxBodySize = 1 << 16

var (
	sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9\-_:]{3,80}$`)
	studentIDPattern = regexp.MustCompile(`^\d{6,12}$`)
	proofCodePattern = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report errors against the wire field names, not Go struct names
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, "session_id", sessionIDPattern)
	mustRegister(v, "student_id", studentIDPattern)
	mustRegister(v, "proof_code", proofCodePattern)

	return v
}

func mustRegister(v *validator.Validate, tag string, pattern *regexp.Regexp) {
	err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return pattern.MatchString(fl.Field().String())
	})
	if err != nil {
		panic("http: failed to register validation " + tag + ": " + err.Error())
	}
}

// decodeJSON parses and validates a JSON request body into dst. On failure it
// writes the invalid_input error response and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httpx.WriteError(w, http.StatusBadRequest,
			"invalid_input", "Request body must be valid JSON")
		return false
	}

	return validateRequest(w, dst)
}

// validateRequest runs struct validation on dst, writing the invalid_input
// response on failure.
func validateRequest(w http.ResponseWriter, dst any) bool {
	err := validate.Struct(dst)
	if err == nil {
		return true
	}

	description := "Invalid request"
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		description = "Invalid value for field " + fieldErrs[0].Field()
	}

	httpx.WriteError(w, http.StatusBadRequest, "invalid_input", description)
	return false
}

// connectionKey derives the server-side identity of one page session. Client
// payloads only ever mix into the key; the IP and user agent come from the
// transport, so a token relayed to a different connection cannot spend.
func connectionKey(r *http.Request, sid, phase, pageSessionID string) string {
	return strings.Join([]string{
		httpx.IPKeyExtractor(r),
		r.UserAgent(),
		sid,
		phase,
		pageSessionID,
	}, "|")
}

// deviceKey derives the physical-device identity used by the lock table. The
// optional client-supplied device id is mixed in, never substituted.
func deviceKey(r *http.Request, sid, phase, deviceID string) string {
	key := strings.Join([]string{
		httpx.IPKeyExtractor(r),
		r.UserAgent(),
		sid,
		phase,
	}, "|")
	if deviceID != "" {
		key += "|" + deviceID
	}
	return key
}
