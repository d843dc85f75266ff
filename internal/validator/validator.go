// internal/validator/validator.go
package validator

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var Validate *validator.Validate

var (
	nonSpace   = regexp.MustCompile(`\S`)
	maxPercent = decimal.NewFromInt(100)
)

func init() {
	Validate = validator.New()

	// в ошибках отдаём имя поля из json-тега
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return fld.Name
		}
		return name
	})

	// Регистрируем валидацию: строка не пустая и не только пробелы
	_ = Validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return nonSpace.MatchString(fl.Field().String())
	})

	// decimal.Decimal отдаём валидатору строкой, без округления через float64
	Validate.RegisterCustomTypeFunc(func(v reflect.Value) interface{} {
		d, ok := v.Interface().(decimal.Decimal)
		if !ok {
			return nil
		}
		return d.String()
	}, decimal.Decimal{})

	// percent: десятичное число в [0, 100], сравнение точное
	_ = Validate.RegisterValidation("percent", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		if err != nil {
			return false
		}
		return !d.IsNegative() && d.LessThanOrEqual(maxPercent)
	})
}

// Reason turns a field error into a short human message without the field name.
func Reason(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "notblank":
		return "must not be blank"
	case "min":
		if e.Param() == "1" {
			return "must not be empty"
		}
		return "is too short"
	case "max":
		return "is too long"
	case "percent":
		return "must be between 0 and 100"
	case "gte", "lte":
		return "is out of range"
	case "oneof":
		return "must be one of: " + e.Param()
	default:
		return "is invalid"
	}
}
