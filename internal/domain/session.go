package domain

import "time"

// Fingerprint identifies a client for session deduplication.
type Fingerprint struct {
	DeviceName      string
	Browser         string
	OperatingSystem string
	IPAddress       string
	Location        string
	UserAgent       string
}

type Session struct {
	SessionID       string    `json:"id" dynamodbav:"session_id"`
	UserID          string    `json:"-" dynamodbav:"user_id"`
	DeviceName      string    `json:"deviceName" dynamodbav:"device_name"`
	Browser         string    `json:"browser" dynamodbav:"browser"`
	OperatingSystem string    `json:"operatingSystem" dynamodbav:"operating_system"`
	IPAddress       string    `json:"ipAddress" dynamodbav:"ip_address"`
	Location        string    `json:"location" dynamodbav:"location"`
	LoginTime       time.Time `json:"loginTime" dynamodbav:"login_time"`
	LastActive      time.Time `json:"lastActive" dynamodbav:"last_active"`
	Status          string    `json:"status" dynamodbav:"status"`
}

// Active reports whether the session has not been terminated.
func (s *Session) Active() bool { return s.Status == StatusActive }
