package httpdto

import (
	"messenger/internal/domain/user"
)

// AddListMemberRequest is used for POST /lists/:kind
type AddListMemberRequest struct {
	Login string `json:"login" binding:"required"`
}

// ListMembersResponse is returned by GET /lists/:kind
type ListMembersResponse struct {
	Kind    string   `json:"kind"`
	Members []string `json:"members"`
}

// UpdateStatusRequest is used for PUT /account/status
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type ProfileDTO struct {
	Login  string `json:"login"`
	Phone  string `json:"phone,omitempty"`
	Status string `json:"status,omitempty"`
}

func ToProfileDTO(u user.User) ProfileDTO {
	return ProfileDTO{
		Login:  u.Login,
		Phone:  u.Phone.String,
		Status: u.Status.String,
	}
}
