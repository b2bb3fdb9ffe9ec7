package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// maxCodeAttempts bounds the number of full code-generation attempts when
	// a unique violation slips past the in-transaction existence check.
	maxCodeAttempts = 10

	// codeBackoffMin/Max bound the randomized delay between attempts.
	codeBackoffMin = 10 * time.Millisecond
	codeBackoffMax = 50 * time.Millisecond

	// maxCollisionProbes bounds the in-transaction increment-and-recheck loop
	// before the candidate code is inserted.
	maxCollisionProbes = 100

	// accrualSweepPageSize is how many candidates one sweep page fetches.
	accrualSweepPageSize = 500

	// defaultAccountCacheTTL bounds staleness of the cached default account.
	defaultAccountCacheTTL = 5 * time.Minute
)
