package services

import "time"

const (
	KeyUserSession = "user:%s:session:%s"
	KeyUserEvents  = "user:%s:events"
	KeyRateLimit   = "ratelimit:%s:%s"

	TTLUserSession = 24 * time.Hour
)
