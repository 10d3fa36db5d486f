package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their json name so messages match what callers send.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return fld.Name
		}
		return name
	})

	enums := map[string]func(string) bool{
		"difficulty":  func(s string) bool { return Difficulty(s).Valid() },
		"task_status": func(s string) bool { return TaskStatus(s).Valid() },
		"break_type":  func(s string) bool { return BreakType(s).Valid() },
		"goal_type":   func(s string) bool { return GoalType(s).Valid() },
		"goal_period": func(s string) bool { return GoalPeriod(s).Valid() },
	}
	for tag, ok := range enums {
		if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return ok(fl.Field().String())
		}); err != nil {
			panic(err)
		}
	}
	return v
}

// Struct validates a tagged input struct and reports the first failing
// field as a ValidationFailed error.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return ValidationFailed(fe.Field(), describe(fe))
	}
	return ValidationFailed("", err.Error())
}

func describe(fe validator.FieldError) string {
	unit := ""
	if fe.Kind() == reflect.String {
		unit = " characters"
	}
	switch fe.Tag() {
	case "required", "required_without":
		return "is required"
	case "min", "gte":
		return fmt.Sprintf("must be at least %s%s", fe.Param(), unit)
	case "max", "lte":
		return fmt.Sprintf("must be at most %s%s", fe.Param(), unit)
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "oneof":
		return "must be one of " + fe.Param()
	case "hexcolor":
		return "must be a hex color like #6C63FF"
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	case "difficulty", "task_status", "break_type", "goal_type", "goal_period":
		return fmt.Sprintf("%q is not a valid %s", fe.Value(), strings.ReplaceAll(fe.Tag(), "_", " "))
	}
	return fmt.Sprintf("failed %s check", fe.Tag())
}

// RequireString checks that the trimmed value has between min and max runes.
func RequireString(field, value string, min, max int) error {
	n := utf8.RuneCountInString(strings.TrimSpace(value))
	if n == 0 && min > 0 {
		return ValidationFailed(field, "is required")
	}
	if n < min {
		return ValidationFailed(field, fmt.Sprintf("must be at least %d characters", min))
	}
	if n > max {
		return ValidationFailed(field, fmt.Sprintf("must be at most %d characters", max))
	}
	return nil
}

func IntRange(field string, value, min, max int) error {
	if value < min || value > max {
		return ValidationFailed(field, fmt.Sprintf("must be between %d and %d", min, max))
	}
	return nil
}

// ParseDate parses a YYYY-MM-DD calendar day as UTC midnight.
func ParseDate(field, value string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(value), time.UTC)
	if err != nil {
		return time.Time{}, ValidationFailed(field, "must be a date in YYYY-MM-DD format")
	}
	return t, nil
}
