package api

import (
	"card-scheduler/appointment"
	"card-scheduler/scheduler"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = validate.RegisterValidation("hhmm", validateClock)
	_ = validate.RegisterValidation("weekday", validateWeekday)
	_ = validate.RegisterValidation("isodate", validateDate)
}

func validateClock(fl validator.FieldLevel) bool {
	_, err := scheduler.ParseClock(fl.Field().String())
	return err == nil
}

func validateWeekday(fl validator.FieldLevel) bool {
	_, err := scheduler.ParseWeekday(fl.Field().String())
	return err == nil
}

func validateDate(fl validator.FieldLevel) bool {
	_, err := time.Parse(appointment.DateLayout, fl.Field().String())
	return err == nil
}

var validationMessages = map[string]string{
	"required": "is required",
	"uuid":     "must be a UUID",
	"gt":       "must be greater than %s",
	"hhmm":     "must be a HH:MM time",
	"weekday":  "must be a weekday name",
	"isodate":  "must be a YYYY-MM-DD date",
}

// validateRequest checks s against its validate tags and returns the first failure as
// "field message" wrapped in appointment.ErrValidation.
func validateRequest(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%w: %w", appointment.ErrValidation, err)
	}

	first := verrs[0]
	msg, ok := validationMessages[first.Tag()]
	if !ok {
		msg = "is invalid"
	}
	if strings.Contains(msg, "%s") {
		msg = fmt.Sprintf(msg, first.Param())
	}
	return fmt.Errorf("%w: %s %s", appointment.ErrValidation, first.Field(), msg)
}
