package dto

// RegisterRequest starts an OTP-gated signup. Password strength is enforced by
// the registration service after the uniqueness checks.
type RegisterRequest struct {
	UserName string `json:"userName" binding:"required,username"`
	FullName string `json:"fullName" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegisterResponse carries the signed pending token the client must echo back.
type RegisterResponse struct {
	Message      string `json:"message"`
	PendingToken string `json:"pendingToken"`
}

// VerifyOTPRequest completes a signup.
type VerifyOTPRequest struct {
	OTP          string `json:"otp" binding:"required,len=6,numeric"`
	PendingToken string `json:"pendingToken" binding:"required"`
}

// LoginRequest represents the local credential login body.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthUserResponse is returned by verify-otp and login.
type AuthUserResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
	// Token is the session token also set in the accessToken cookie, for bearer clients.
	Token string `json:"token,omitempty"`
}

// MeResponse wraps the authenticated user's profile.
type MeResponse struct {
	User UserResponse `json:"user"`
}

// ForgotPasswordRequest asks for a password reset email.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest sets a new password using a mailed reset token.
type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,strongpassword"`
}

// MessageResponse is a generic success body.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
