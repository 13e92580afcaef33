package usecase

import (
	"github.com/fizyostok/stok-api/internal/application/dto"
	"github.com/fizyostok/stok-api/internal/domain/entity"
)

// EntityToUserResponse convierte un usuario a DTO (sin hash).
func EntityToUserResponse(u *entity.User) *dto.UserResponse {
	if u == nil {
		return nil
	}
	return &dto.UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
