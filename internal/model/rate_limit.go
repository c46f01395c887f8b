package model

// RateDecision is the outcome of spending one token from a bucket.
type RateDecision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter int // seconds
}
