package dto

import "time"

type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type CreateSessionResponse struct {
	Success   bool      `json:"success"`
	Token     string    `json:"token"`
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expires_at"`
	Status    string    `json:"status"`
}

type SessionResponse struct {
	Success bool `json:"success"`
	Session any  `json:"session"`
}

type VerifyResponse struct {
	Success      bool `json:"success"`
	Session      any  `json:"session"`
	Verification any  `json:"verification"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}
