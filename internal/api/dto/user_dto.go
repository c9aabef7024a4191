package dto

import "time"

// UserRegisterRequest payload for new citizens.
type UserRegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserLoginRequest payload for login.
type UserLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserStatsResponse summarizes the caller's activity.
type UserStatsResponse struct {
	MemberSince time.Time `json:"member_since"`
	TotalIssues int64     `json:"total_issues"`
}
