package models

// Request models
type LoginRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type RejectRequest struct {
	Reason string `json:"reason"`
}

// Response models
type SessionResponse struct {
	Status        string `json:"status"`
	Authenticated bool   `json:"authenticated"`
	Email         string `json:"email,omitempty"`
}

type Notification struct {
	Level   string `json:"level"` // "success" or "error"
	Message string `json:"message"`
}

type ActionResponse struct {
	Status        string         `json:"status"`
	ID            string         `json:"id"`
	Notifications []Notification `json:"notifications"`
}

type ErrorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
