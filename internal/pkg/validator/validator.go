package validator

import (
	"errors"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	playground "github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string
	Message string
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	var msgs []string
	for _, err := range v {
		msgs = append(msgs, err.Field+": "+err.Message)
	}
	return strings.Join(msgs, "; ")
}

func (v ValidationErrors) ToMap() map[string]string {
	result := make(map[string]string)
	for _, err := range v {
		result[err.Field] = err.Message
	}
	return result
}

// Add appends a field error.
func (v *ValidationErrors) Add(field, message string) {
	*v = append(*v, ValidationError{Field: field, Message: message})
}

// OrNil returns nil when no errors were collected, so callers can return it as error directly.
func (v ValidationErrors) OrNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

var (
	structValidator     *playground.Validate
	structValidatorOnce sync.Once
)

func instance() *playground.Validate {
	structValidatorOnce.Do(func() {
		structValidator = playground.New(playground.WithRequiredStructEnabled())
		// Report JSON names instead of Go field names.
		structValidator.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return structValidator
}

// Struct runs `validate:"..."` tag rules and converts failures into ValidationErrors.
func Struct(s interface{}) ValidationErrors {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs playground.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return ValidationErrors{{Field: "body", Message: err.Error()}}
	}

	errs := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs = append(errs, ValidationError{Field: fe.Field(), Message: tagMessage(fe)})
	}
	return errs
}

func tagMessage(fe playground.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "max":
		return "must not exceed " + fe.Param() + " characters"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "failed on the '" + fe.Tag() + "' rule"
	}
}

// IsEmpty checks if a string is empty after trimming whitespace.
func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Email validation
func IsValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// Numeric validation
var numericRegex = regexp.MustCompile(`^[0-9]+$`)

func IsNumeric(s string) bool {
	return numericRegex.MatchString(s)
}

// Date validation
func IsValidDate(dateStr string) (time.Time, bool) {
	date, err := time.Parse("2006-01-02", dateStr)
	return date, err == nil
}

// IsValidYear accepts a 4-digit year.
func IsValidYear(year string) bool {
	return len(year) == 4 && IsNumeric(year) && year >= "1900"
}

// NormalizeMonth zero-pads "1".."12" to "01".."12". ok is false for anything else.
func NormalizeMonth(month string) (string, bool) {
	month = strings.TrimSpace(month)
	if !IsNumeric(month) || len(month) > 2 {
		return "", false
	}
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return "", false
	}
	if m < 10 {
		return "0" + strconv.Itoa(m), true
	}
	return strconv.Itoa(m), true
}

// ParseAmount parses an integer currency amount. Thousands separators and the won sign are tolerated.
func ParseAmount(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "₩")
	s = strings.TrimSuffix(s, "원")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
