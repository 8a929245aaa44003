package dto

import (
	"time"

	"github.com/SscSPs/cyberlearn_backend/internal/core/domain"
)

// UserResponse is the public profile of a user. It never carries the password hash.
type UserResponse struct {
	UserID       string              `json:"id"`
	Username     string              `json:"userName"`
	FullName     string              `json:"fullName"`
	Email        string              `json:"email"`
	IsVerified   bool                `json:"isVerified"`
	Role         domain.UserRole     `json:"role"`
	AuthProvider domain.AuthProvider `json:"authProvider"`
	AvatarURL    string              `json:"avatar,omitempty"`
	LastLoginAt  *time.Time          `json:"lastLogin,omitempty"`
	CreatedAt    time.Time           `json:"createdAt"`
}

// ToUserResponse converts a domain.User to its response DTO.
func ToUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		UserID:       user.UserID,
		Username:     user.Username,
		FullName:     user.FullName,
		Email:        user.Email,
		IsVerified:   user.IsVerified,
		Role:         user.Role,
		AuthProvider: user.AuthProvider,
		AvatarURL:    user.AvatarURL,
		LastLoginAt:  user.LastLoginAt,
		CreatedAt:    user.CreatedAt,
	}
}

// ListUsersParams defines query parameters for listing users.
type ListUsersParams struct {
	Limit  int `form:"limit,default=20" binding:"min=1,max=100"`
	Offset int `form:"offset,default=0" binding:"min=0"`
}

// ListUsersResponse wraps the list of users.
type ListUsersResponse struct {
	Users  []UserResponse `json:"users"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// ToListUserResponse converts a slice of domain.User to ListUsersResponse DTO
func ToListUserResponse(users []domain.User, limit, offset int) ListUsersResponse {
	userResponses := make([]UserResponse, len(users))
	for i := range users {
		userResponses[i] = ToUserResponse(&users[i])
	}
	return ListUsersResponse{
		Users:  userResponses,
		Limit:  limit,
		Offset: offset,
	}
}
