package intervention

import (
	"time"
)

// Type classifies why an agent is handing control to a person.
type Type string

const (
	TypeCaptcha           Type = "captcha"
	TypeLoginRequired     Type = "login_required"
	TypeTwoFactorAuth     Type = "two_factor_auth"
	TypeSecurityCheck     Type = "security_check"
	TypeCookiesConsent    Type = "cookies_consent"
	TypeAntiBotProtection Type = "anti_bot_protection"
	TypeComplexDataEntry  Type = "complex_data_entry"
	TypeAgeVerification   Type = "age_verification"
	TypeCustom            Type = "custom"
)

// KnownTypes lists every accepted intervention type.
var KnownTypes = []Type{
	TypeCaptcha, TypeLoginRequired, TypeTwoFactorAuth, TypeSecurityCheck,
	TypeCookiesConsent, TypeAntiBotProtection, TypeComplexDataEntry,
	TypeAgeVerification, TypeCustom,
}

// KnownType reports whether t is an accepted intervention type.
func KnownType(t Type) bool {
	for _, k := range KnownTypes {
		if k == t {
			return true
		}
	}
	return false
}

// Status is the lifecycle state of an intervention request.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusTimeout   Status = "timeout"
	StatusFailed    Status = "failed"
)

// Terminal reports whether s is a terminal state. Terminal states never
// change again.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusTimeout, StatusFailed:
		return true
	}
	return false
}

// Request is one human-intervention hand-off.
type Request struct {
	ID           string         `json:"id"`
	Type         Type           `json:"type"`
	Status       Status         `json:"status"`
	Message      string         `json:"message"`
	Instructions string         `json:"instructions,omitempty"`
	URL          string         `json:"url,omitempty"`
	Context      map[string]any `json:"context,omitempty"`
	// Screenshot of the page at request time, base64 PNG.
	Screenshot string `json:"screenshot_base64,omitempty"`

	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	// Lifetime of the pending state. A zero timeout expires on the first
	// status check.
	Timeout time.Duration `json:"timeout"`

	CompletionNote string `json:"completion_note,omitempty"`
	CancelReason   string `json:"cancel_reason,omitempty"`
}

// Clone returns a deep enough copy that mutating it never touches the
// original: the context map and resolution timestamp are duplicated.
func (r *Request) Clone() *Request {
	cp := *r
	if r.ResolvedAt != nil {
		t := *r.ResolvedAt
		cp.ResolvedAt = &t
	}
	if r.Context != nil {
		cp.Context = make(map[string]any, len(r.Context))
		for k, v := range r.Context {
			cp.Context[k] = v
		}
	}
	return &cp
}

// Expired reports whether a pending request has outlived its timeout at
// the given instant.
func (r *Request) Expired(now time.Time) bool {
	if r.Status != StatusPending {
		return false
	}
	return !now.Before(r.CreatedAt.Add(r.Timeout))
}

// RemainingSeconds returns the whole seconds left before expiry, floored
// at zero.
func (r *Request) RemainingSeconds(now time.Time) int {
	remaining := r.CreatedAt.Add(r.Timeout).Sub(now)
	if remaining < 0 {
		return 0
	}
	return int(remaining.Seconds())
}
