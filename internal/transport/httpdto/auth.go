package httpdto

// RegisterRequest is used for POST /auth/register
type RegisterRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
	Phone    string `json:"phone,omitempty"`
}

// LoginRequest is used for POST /auth/login
type LoginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse is returned after registration and login
type AuthResponse struct {
	Login       string `json:"login"`
	AccessToken string `json:"access_token"`
	SessionID   string `json:"session_id"`
	ExpiresAt   string `json:"expires_at"`
}

// LogoutResponse reports how many unfinished chats were cleaned up
type LogoutResponse struct {
	PrunedChats int `json:"pruned_chats"`
}
