package serverutils

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateRequest runs struct tag validation and converts failures into a
// 400 AppError with a readable field list.
func ValidateRequest(req interface{}) error {
	if err := validate.Struct(req); err != nil {
		var fields []string
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, v := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", v.Field(), v.Tag()))
			}
			return NewValidationError("Invalid request: " + strings.Join(fields, ", "))
		}
		return NewValidationError("Invalid request")
	}
	return nil
}
