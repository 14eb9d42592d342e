package config

import (
	"github.com/robfig/cron/v3"
	"gopkg.in/go-playground/validator.v9"
)

var cronScheduleTag = "cronSchedule"

var cronScheduleValidator validator.Func = func(fl validator.FieldLevel) bool {
	if s, ok := fl.Field().Interface().(string); ok && len(s) > 0 {
		if _, err := cron.ParseStandard(s); err != nil {
			return false
		}
	}
	return true
}

// Validate checks the App config
func Validate(app *App) error {
	v := validator.New()
	if err := v.RegisterValidation(cronScheduleTag, cronScheduleValidator); err != nil {
		return err
	}
	return v.Struct(app)
}
