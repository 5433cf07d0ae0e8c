// Package validation настраивает валидатор входных данных HTTP-обработчиков.
package validation

import (
	"reflect"

	"github.com/go-playground/validator"
	"github.com/shopspring/decimal"
)

// New возвращает валидатор, который понимает денежные поля decimal.Decimal.
// Для проверок вида gte/lte такие поля приводятся к float64.
func New() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{}, decimal.NullDecimal{})
	return v
}

func decimalValue(field reflect.Value) any {
	switch d := field.Interface().(type) {
	case decimal.Decimal:
		f, _ := d.Float64()
		return f
	case decimal.NullDecimal:
		if !d.Valid {
			return nil
		}
		f, _ := d.Decimal.Float64()
		return f
	}
	return nil
}
