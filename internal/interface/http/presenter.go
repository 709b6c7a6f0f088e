package handlers

import (
	"time"

	"github.com/eohue/ibookee-web-sub000/internal/domain/entity"
)

// UserResponse is the client view of a user. It never carries the password
// credential or raw provider account ids.
type UserResponse struct {
	ID              string            `json:"id"`
	Email           string            `json:"email,omitempty"`
	Role            entity.Role       `json:"role"`
	Nickname        string            `json:"nickname,omitempty"`
	FirstName       string            `json:"firstName,omitempty"`
	LastName        string            `json:"lastName,omitempty"`
	ProfileImageURL string            `json:"profileImageUrl,omitempty"`
	IsVerified      bool              `json:"isVerified"`
	RealName        string            `json:"realName,omitempty"`
	PhoneNumber     string            `json:"phoneNumber,omitempty"`
	Providers       []entity.Provider `json:"providers"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

func presentUser(u *entity.User) UserResponse {
	providers := u.LinkedProviders()
	if providers == nil {
		providers = []entity.Provider{}
	}
	return UserResponse{
		ID:              u.ID,
		Email:           u.Email,
		Role:            u.Role,
		Nickname:        u.Nickname,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		ProfileImageURL: u.ProfileImageURL,
		IsVerified:      u.IsVerified,
		RealName:        u.RealName,
		PhoneNumber:     u.PhoneNumber,
		Providers:       providers,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}
