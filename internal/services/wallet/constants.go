package wallet

import "time"

// Cache durations
const (
	CacheDuration = 5 * time.Minute
)

// Paging defaults for ledger listings
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// ReferralReferencePrefix makes referral credits one-shot per referee.
const ReferralReferencePrefix = "referral:"

// invalidTypeLabel replaces unknown transaction types in metrics so the
// label set stays bounded.
const invalidTypeLabel = "invalid"
