package validators

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"userapi/src/models"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("simple_email", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// FieldError describes one failed rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is the ordered list of rule failures for one payload.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, fe := range v {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return strings.Join(parts, ", ")
}

// Message renders the text used in a VALIDATION_ERROR envelope.
func (v ValidationErrors) Message() string {
	return "Invalid input: " + v.Error()
}

func (v *ValidationErrors) add(field, format string, args ...any) {
	*v = append(*v, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// ValidateCreateUser checks a decoded JSON object against the user creation
// rules. Every rule runs, so all violations are reported together. On
// success the returned NewUser carries trimmed name and email and the error
// list is nil.
func ValidateCreateUser(payload map[string]any) (models.NewUser, ValidationErrors) {
	var (
		errs ValidationErrors
		in   models.NewUser
	)

	// Length is checked on the trimmed name; surrounding whitespace is not stored.
	name, ok := payload["name"].(string)
	name = strings.TrimSpace(name)
	switch {
	case !ok || validate.Var(name, "required") != nil:
		errs.add("name", "Name is required")
	case validate.Var(name, fmt.Sprintf("max=%d", models.NameMaxLength)) != nil:
		errs.add("name", "Name must be %d characters or fewer", models.NameMaxLength)
	default:
		in.Name = name
	}

	email, ok := payload["email"].(string)
	switch {
	case !ok || validate.Var(email, "required") != nil:
		errs.add("email", "Email is required")
	case validate.Var(email, "simple_email") != nil:
		errs.add("email", "Email must be a valid email address")
	case validate.Var(email, fmt.Sprintf("max=%d", models.EmailMaxLength)) != nil:
		errs.add("email", "Email must be %d characters or fewer", models.EmailMaxLength)
	default:
		in.Email = strings.TrimSpace(email)
	}

	raw, present := payload["age"]
	if !present || raw == nil {
		errs.add("age", "Age is required")
	} else if age, isInt := asInteger(raw); !isInt {
		errs.add("age", "Age must be an integer")
	} else if validate.Var(age, fmt.Sprintf("gte=%d,lte=%d", models.AgeMin, models.AgeMax)) != nil {
		errs.add("age", "Age must be between %d and %d", models.AgeMin, models.AgeMax)
	} else {
		in.Age = int(age)
	}

	if len(errs) > 0 {
		return models.NewUser{}, errs
	}
	return in, nil
}

// asInteger accepts JSON numbers without a fractional part. Strings and
// booleans are rejected even when they look numeric.
func asInteger(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return float64(i), true
		}
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Trunc(f) != f {
		return 0, false
	}
	return f, true
}
