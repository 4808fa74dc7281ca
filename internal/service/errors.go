package service

import "errors"

// Sentinel errors surfaced to callers. Validation and authentication style
// failures carry a user-facing message wrapped around the sentinel, so both
// errors.Is checks and message display work at the call site.
var (
	ErrValidation       = errors.New("validation failed")
	ErrAuthentication   = errors.New("account not found or wrong password")
	ErrReservedName     = errors.New("nickname is reserved")
	ErrNotAuthenticated = errors.New("no active session")
	ErrNotOwner         = errors.New("owner privilege required")
	ErrInvalidCoupon    = errors.New("coupon invalid or expired")
	ErrCouponRedeemed   = errors.New("coupon already redeemed")
	ErrCreditsRequired  = errors.New("insufficient credits, payment required")
)
