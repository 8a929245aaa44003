package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/cyberlearn_backend/internal/apperrors"
	portssvc "github.com/SscSPs/cyberlearn_backend/internal/core/ports/services"
	"github.com/SscSPs/cyberlearn_backend/internal/dto"
	"github.com/SscSPs/cyberlearn_backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// userHandler handles the administrative user endpoints.
type userHandler struct {
	userService portssvc.UserSvcFacade
}

func newUserHandler(us portssvc.UserSvcFacade) *userHandler {
	return &userHandler{
		userService: us,
	}
}

// listUsers godoc
// @Summary List users
// @Description Retrieves a paginated list of users. Admin and superadmin only.
// @Tags admin
// @Produce json
// @Param limit query int false "Number of users to return" default(20)
// @Param offset query int false "Number of users to skip" default(0)
// @Success 200 {object} dto.ListUsersResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/admin/users [get]
func (h *userHandler) listUsers(c *gin.Context) {
	admin, ok := middleware.GetUserFromContext(c)
	if !ok {
		_ = c.Error(apperrors.NewUnauthorizedError("Unauthorized"))
		return
	}

	var params dto.ListUsersParams
	if err := c.ShouldBindQuery(&params); err != nil {
		_ = c.Error(apperrors.NewBadRequestError("Invalid pagination parameters"))
		return
	}

	users, err := h.userService.ListUsers(c.Request.Context(), params.Limit, params.Offset)
	if err != nil {
		_ = c.Error(err)
		return
	}

	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Admin listed users",
		slog.String("admin_id", admin.UserID),
		slog.Int("count", len(users)))
	c.JSON(http.StatusOK, dto.ToListUserResponse(users, params.Limit, params.Offset))
}
