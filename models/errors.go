package models

import "errors"

// Sentinel errors for expected business outcomes. Handlers map these to
// HTTP statuses; everything else is a server error.
var (
	// ErrNotFound covers both genuinely absent benefits and benefits hidden
	// by the access guard. The two are indistinguishable to callers so that
	// blacklisted users cannot enumerate private or inactive benefits.
	ErrNotFound = errors.New("benefit not found")

	// ErrForbidden is an authorization failure on a visible benefit, e.g. a
	// wrong access secret or a non-creator touching creator-only data.
	ErrForbidden = errors.New("forbidden")

	// ErrAlreadyClaimed is returned both by the optimistic pre-check and by
	// the allocation transaction when a concurrent claim won the race.
	ErrAlreadyClaimed = errors.New(MsgAlreadyClaimed)

	// ErrBenefitExhausted means the content ceiling was reached or the code
	// pool ran dry, whether detected before or inside the transaction.
	ErrBenefitExhausted = errors.New(MsgBenefitExhausted)

	// ErrUpstreamUnavailable means the forum activity endpoint failed; the
	// caller may retry, nothing was committed.
	ErrUpstreamUnavailable = errors.New("activity data unavailable, try again later")
)

// Denial messages shared between the eligibility pre-check and the
// allocation transaction, so that losing a race reads exactly like failing
// the pre-check.
const (
	MsgAlreadyClaimed   = "you have already claimed this benefit"
	MsgBenefitExhausted = "benefit has been fully claimed"
)
