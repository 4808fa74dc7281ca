package models

import "time"

type PlanID string

const (
	PlanFree  PlanID = "free"
	PlanLight PlanID = "light"
	PlanPlus  PlanID = "plus"
	PlanUltra PlanID = "ultra"
)

type PaymentKind string

const (
	PaymentKindPlan       PaymentKind = "plan"
	PaymentKindGeneration PaymentKind = "generation"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentApproved PaymentStatus = "approved"
	PaymentRejected PaymentStatus = "rejected"
)

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAnswered RequestStatus = "answered"
)

const (
	BadgeOwner   = "⭐ Dono"
	BadgePremium = "🌟 Premium"
)

type Profile struct {
	DisplayName string
	AvatarURL   string
	BannerURL   string
	Bio         string
	Badges      []string
	Theme       string
}

// AccessStatus is the subscription state of an account. ExpiresAt is nil for
// the free plan and for lifetime plans.
type AccessStatus struct {
	Plan      PlanID
	ExpiresAt *time.Time
}

type Account struct {
	ID           string
	Email        string
	Nickname     string
	PasswordHash string
	Profile      Profile
	Access       AccessStatus
	// Credits maps generator id to the remaining per-tool balance.
	Credits map[string]int
	// CouponsUsed is insert-only; a code present here can never be redeemed again.
	CouponsUsed []string
	// WalletBalance only carries meaning for the Owner account.
	WalletBalance float64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (a *Account) HasBadge(badge string) bool {
	for _, b := range a.Profile.Badges {
		if b == badge {
			return true
		}
	}
	return false
}

func (a *Account) IsOwner() bool {
	return a.HasBadge(BadgeOwner)
}

func (a *Account) HasRedeemed(code string) bool {
	for _, c := range a.CouponsUsed {
		if c == code {
			return true
		}
	}
	return false
}

// Expired reports whether the subscription window has closed at the given
// instant. Accounts without an expiry (free or lifetime) never expire.
func (a *Account) Expired(now time.Time) bool {
	return a.Access.ExpiresAt != nil && now.After(*a.Access.ExpiresAt)
}

type PaymentRequest struct {
	ID        string
	AccountID string
	Email     string
	Nickname  string
	Kind      PaymentKind
	ItemID    string
	PixCode   string
	Status    PaymentStatus
	CreatedAt time.Time
}

type ProductRequest struct {
	ID        string
	AccountID string
	Nickname  string
	Text      string
	Status    RequestStatus
	Links     []string
	CreatedAt time.Time
}
