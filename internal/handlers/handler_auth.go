package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/cyberlearn_backend/internal/apperrors"
	portssvc "github.com/SscSPs/cyberlearn_backend/internal/core/ports/services"
	"github.com/SscSPs/cyberlearn_backend/internal/dto"
	"github.com/SscSPs/cyberlearn_backend/internal/middleware"
	"github.com/SscSPs/cyberlearn_backend/internal/utils"
	"github.com/gin-gonic/gin"
)

const (
	msgOTPSent             = "OTP sent to your email"
	msgRegistered          = "Account verified successfully"
	msgLoggedIn            = "Login successful"
	msgLoggedOut           = "Logged out successfully"
	msgResetRequested      = "If an account exists for that email, a password reset link has been sent"
	msgPasswordResetDone   = "Password has been reset successfully"
	msgAuthenticatedNoUser = "User not found"
)

// authHandler serves the local account endpoints.
type authHandler struct {
	registration portssvc.RegistrationSvc
	auth         portssvc.AuthSvc
	users        portssvc.UserSvcFacade
	cookies      sessionCookies
	posthog      *utils.PosthogClientWrapper
}

func newAuthHandler(services *portssvc.ServiceContainer, cookies sessionCookies, posthogClient *utils.PosthogClientWrapper) *authHandler {
	return &authHandler{
		registration: services.Registration,
		auth:         services.Auth,
		users:        services.User,
		cookies:      cookies,
		posthog:      posthogClient,
	}
}

// register godoc
// @Summary Start a registration
// @Description Validates the signup, mails a one-time code and returns a signed pending token. Nothing is stored until the code is verified.
// @Tags auth
// @Accept json
// @Produce json
// @Param register body dto.RegisterRequest true "Registration details"
// @Success 200 {object} dto.RegisterResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 429 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/users/register [post]
func (h *authHandler) register(c *gin.Context) {
	var req dto.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	pendingToken, err := h.registration.Register(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.RegisterResponse{Message: msgOTPSent, PendingToken: pendingToken})
}

// verifyOTP godoc
// @Summary Complete a registration
// @Description Redeems the pending token with the mailed code and creates the verified account.
// @Tags auth
// @Accept json
// @Produce json
// @Param verify body dto.VerifyOTPRequest true "Code and pending token"
// @Success 201 {object} dto.AuthUserResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/users/verify-otp [post]
func (h *authHandler) verifyOTP(c *gin.Context) {
	var req dto.VerifyOTPRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.registration.VerifyOTP(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	middleware.PosthogEvent(c, h.posthog, user.UserID, utils.EventUserRegistered, map[string]any{
		"auth_provider": string(user.AuthProvider),
	})
	c.JSON(http.StatusCreated, dto.AuthUserResponse{
		Success: true,
		Message: msgRegistered,
		User:    dto.ToUserResponse(user),
	})
}

// login godoc
// @Summary Log in with email and password
// @Description Verifies the credentials, sets the accessToken cookie and returns the profile.
// @Tags auth
// @Accept json
// @Produce json
// @Param login body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.AuthUserResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse "Account not verified"
// @Failure 429 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/users/login [post]
func (h *authHandler) login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Email, req.Password, loginRecord(c))
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.cookies.set(c, result.AccessToken)
	middleware.PosthogEvent(c, h.posthog, result.User.UserID, utils.EventUserLoggedIn, map[string]any{
		"auth_provider": string(result.User.AuthProvider),
	})
	c.JSON(http.StatusOK, dto.AuthUserResponse{
		Success: true,
		Message: msgLoggedIn,
		User:    dto.ToUserResponse(result.User),
		Token:   result.AccessToken,
	})
}

// me godoc
// @Summary Current user
// @Description Returns the profile of the authenticated user.
// @Tags auth
// @Produce json
// @Success 200 {object} dto.MeResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/users/me [get]
func (h *authHandler) me(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		_ = c.Error(apperrors.NewUnauthorizedError("Unauthorized"))
		return
	}

	user, err := h.users.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			_ = c.Error(apperrors.NewUnauthorizedError(msgAuthenticatedNoUser))
			return
		}
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.MeResponse{User: dto.ToUserResponse(user)})
}

// forgotPassword godoc
// @Summary Request a password reset
// @Description Mails a reset link when a local account exists. The response never reveals whether it does.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.ForgotPasswordRequest true "Account email"
// @Success 200 {object} dto.MessageResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 429 {object} dto.ErrorResponse
// @Router /api/users/forgot-password [post]
func (h *authHandler) forgotPassword(c *gin.Context) {
	var req dto.ForgotPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.auth.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		// The neutral answer is kept even when delivery fails.
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("Password reset request failed", slog.String("error", err.Error()))
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Success: true, Message: msgResetRequested})
}

// resetPassword godoc
// @Summary Reset a password
// @Description Sets a new password using a mailed reset token.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.ResetPasswordRequest true "Reset token and new password"
// @Success 200 {object} dto.MessageResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/users/reset-password [post]
func (h *authHandler) resetPassword(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.auth.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Success: true, Message: msgPasswordResetDone})
}

// logout godoc
// @Summary Log out
// @Description Clears the accessToken cookie.
// @Tags auth
// @Produce json
// @Success 200 {object} dto.MessageResponse
// @Router /auth/logout [post]
func (h *authHandler) logout(c *gin.Context) {
	h.cookies.clear(c)
	c.JSON(http.StatusOK, dto.MessageResponse{Success: true, Message: msgLoggedOut})
}
