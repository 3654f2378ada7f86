package dto

import (
	"github.com/SscSPs/mining_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateUserRequest registers a user profile with the ledger.
type CreateUserRequest struct {
	UserID     string  `json:"userID" binding:"required,max=64"`
	Name       string  `json:"name" binding:"required,max=200"`
	Email      string  `json:"email" binding:"required,email"`
	ReferrerID *string `json:"referrerID" binding:"omitempty,max=64"`
}

type UserResponse struct {
	UserID         string                `json:"userID"`
	Name           string                `json:"name"`
	Email          string                `json:"email"`
	ReferrerID     *string               `json:"referrerID,omitempty"`
	ReferralStatus domain.ReferralStatus `json:"referralStatus"`
	Discount       decimal.Decimal       `json:"discount"`
}

// ToUserResponse converts a domain.User to its API shape.
func ToUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		UserID:         user.UserID,
		Name:           user.Name,
		Email:          user.Email,
		ReferrerID:     user.ReferrerID,
		ReferralStatus: user.ReferralStatus,
		Discount:       user.Discount.Round(2),
	}
}

// ListUsersResponse wraps a list of users.
type ListUsersResponse struct {
	Users []UserResponse `json:"users"`
	Total int            `json:"total"`
}

// ToListUserResponse converts a slice of domain.User to ListUsersResponse DTO
func ToListUserResponse(users []domain.User) ListUsersResponse {
	userResponses := make([]UserResponse, len(users))
	for i := range users {
		userResponses[i] = ToUserResponse(&users[i])
	}
	return ListUsersResponse{
		Users: userResponses,
		Total: len(userResponses),
	}
}
