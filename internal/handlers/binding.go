package handlers

import (
	"errors"
	"fmt"

	"github.com/SscSPs/cyberlearn_backend/internal/apperrors"
	"github.com/SscSPs/cyberlearn_backend/internal/core/domain"
	"github.com/SscSPs/cyberlearn_backend/internal/core/services"
	"github.com/SscSPs/cyberlearn_backend/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// bindJSON binds the body into obj and records a 400 on failure.
func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		_ = c.Error(apperrors.NewBadRequestError(validationMessage(err)))
		return false
	}
	return true
}

// validationMessage turns the first field error into a client message.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request body"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return "Please provide a valid email address"
	case "strongpassword":
		return services.MsgWeakPassword
	case "username":
		return fmt.Sprintf("Username must be %d-%d characters of letters, digits, '.', '_' or '-'", utils.MinUsernameLength, utils.MaxUsernameLength)
	case "len", "numeric":
		return fmt.Sprintf("%s must be a %d digit code", fe.Field(), utils.OTPLength)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

func loginRecord(c *gin.Context) domain.LoginRecord {
	return domain.LoginRecord{
		Address:   c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}
