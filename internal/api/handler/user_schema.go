package handler

import "github.com/welzyne/courier-system/internal/core/domain"

type updateProfileRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"   validate:"omitempty,email"`
	Phone    *string `json:"phone"`
	Bio      *string `json:"bio"`
	Address  *string `json:"address"`
}

type profileResponse struct {
	Success bool         `json:"success"`
	User    *domain.User `json:"user"`
}

type updateUserStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=Active Inactive"`
}
