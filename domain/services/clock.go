package services

import "time"

// SystemClock reads the wall clock in UTC
type SystemClock struct{}

// NewSystemClock creates a clock backed by time.Now
func NewSystemClock() *SystemClock {
	return &SystemClock{}
}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
