package middleware

import (
	"errors"

	"github.com/SscSPs/cyberlearn_backend/internal/utils"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators adds the custom binding tags used by the request DTOs:
// "strongpassword" and "username".
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding engine is not go-playground/validator")
	}
	if err := v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
		return utils.IsStrongPassword(fl.Field().String())
	}); err != nil {
		return err
	}
	return v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return utils.IsValidUsername(fl.Field().String())
	})
}
