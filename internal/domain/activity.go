package domain

import "time"

const (
	ActionEmailVerified     = "EMAIL_VERIFIED"
	ActionLogin             = "LOGIN"
	ActionForgotPassword    = "FORGOT_PASSWORD"
	ActionPasswordReset     = "PASSWORD_RESET"
	ActionProfileUpdated    = "PROFILE_UPDATED"
	ActionEmailChanged      = "EMAIL_CHANGED"
	ActionSessionTerminated = "SESSION_TERMINATED"
)

type Activity struct {
	ActivityID string    `json:"id" dynamodbav:"activity_id"`
	UserID     string    `json:"userId" dynamodbav:"user_id"`
	Action     string    `json:"action" dynamodbav:"action"`
	Details    string    `json:"details" dynamodbav:"details"`
	IPAddress  string    `json:"ipAddress" dynamodbav:"ip_address"`
	UserAgent  string    `json:"userAgent" dynamodbav:"user_agent"`
	Timestamp  time.Time `json:"timestamp" dynamodbav:"timestamp"`
}
