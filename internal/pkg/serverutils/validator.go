package serverutils

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func ValidateRequest(req interface{}) error {
	if err := validate.Struct(req); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			return BadRequest(fmt.Sprintf("validation failed on field '%s' (%s)", verrs[0].Field(), verrs[0].Tag()))
		}
		return BadRequest(err.Error())
	}
	return nil
}
