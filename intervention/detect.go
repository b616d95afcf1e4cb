package intervention

import (
	"context"

	"go.uber.org/zap"

	"github.com/BaSui01/browserpilot/dom"
)

// Detection is the outcome of one auto-detect pass.
type Detection struct {
	Detected bool `json:"intervention_needed"`
	// Types found, in fixed probe order.
	Types []Type `json:"detected_types,omitempty"`
	// Human-readable evidence per detected type.
	Reasons map[Type]string `json:"reasons,omitempty"`
	// Suggested next step for the agent.
	Recommendation string `json:"recommendation,omitempty"`
}

// detectJS probes the page with read-only DOM queries. It must not click,
// type, navigate, or otherwise mutate page state.
const detectJS = `(() => {
	const body = (document.body && document.body.innerText || "").toLowerCase();
	const q = (sel) => document.querySelector(sel) !== null;
	return {
		captcha: q('iframe[src*="recaptcha"]') || q('iframe[src*="hcaptcha"]') ||
			q('.g-recaptcha') || q('.h-captcha') || q('.cf-turnstile') ||
			q('[class*="captcha"]') || q('#captcha'),
		login: q('input[type="password"]') &&
			(q('form') || body.includes("sign in") || body.includes("log in")),
		two_factor: body.includes("verification code") || body.includes("two-factor") ||
			body.includes("one-time password") || body.includes("authenticator app") ||
			q('input[autocomplete="one-time-code"]'),
		security: body.includes("unusual traffic") || body.includes("are you a robot") ||
			body.includes("security check") || body.includes("verify you are human"),
		cookies: q('#onetrust-banner-sdk') || q('[id*="cookie-banner"]') ||
			q('[class*="cookie-consent"]') || q('[aria-label*="cookie"]'),
		anti_bot: body.includes("checking your browser") || body.includes("just a moment") ||
			body.includes("ddos protection") || q('#challenge-running')
	};
})()`

type probeWire struct {
	Captcha   bool `json:"captcha"`
	Login     bool `json:"login"`
	TwoFactor bool `json:"two_factor"`
	Security  bool `json:"security"`
	Cookies   bool `json:"cookies"`
	AntiBot   bool `json:"anti_bot"`
}

// Checks selects which probe families a detect pass reports. The zero
// value reports nothing; use AllChecks to enable everything.
type Checks struct {
	// Captcha widgets (recaptcha, hcaptcha, turnstile).
	Captcha bool
	// Login covers credential entry and two-factor prompts.
	Login bool
	// Security covers "unusual traffic" style verification pages.
	Security bool
	// AntiBot covers challenge interstitials (Cloudflare et al).
	AntiBot bool
	// Cookies covers consent banners.
	Cookies bool
}

// AllChecks enables every probe family.
func AllChecks() Checks {
	return Checks{Captcha: true, Login: true, Security: true, AntiBot: true, Cookies: true}
}

// Detector inspects the current page for conditions a browser agent
// cannot get past on its own.
type Detector struct {
	logger *zap.Logger
}

// NewDetector creates a detector.
func NewDetector(logger *zap.Logger) *Detector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{logger: logger.With(zap.String("component", "intervention_detector"))}
}

// Detect probes the page and reports which of the requested intervention
// types apply. Detection never creates an intervention request; the
// agent decides whether to hand off based on the result.
func (d *Detector) Detect(ctx context.Context, ev dom.Evaluator, checks Checks) (*Detection, error) {
	var wire probeWire
	if err := ev.Evaluate(ctx, detectJS, &wire); err != nil {
		return nil, err
	}

	det := &Detection{Reasons: make(map[Type]string)}
	add := func(t Type, reason string) {
		det.Types = append(det.Types, t)
		det.Reasons[t] = reason
	}

	if checks.Captcha && wire.Captcha {
		add(TypeCaptcha, "captcha widget present on the page")
	}
	if checks.AntiBot && wire.AntiBot {
		add(TypeAntiBotProtection, "anti-bot challenge interstitial detected")
	}
	if checks.Security && wire.Security {
		add(TypeSecurityCheck, "security verification text detected")
	}
	if checks.Login && wire.TwoFactor {
		add(TypeTwoFactorAuth, "one-time code entry detected")
	}
	if checks.Login && wire.Login {
		add(TypeLoginRequired, "password entry form present")
	}
	if checks.Cookies && wire.Cookies {
		add(TypeCookiesConsent, "cookie consent banner present")
	}

	det.Detected = len(det.Types) > 0
	if det.Detected {
		det.Recommendation = recommendationFor(det.Types[0])
		d.logger.Info("intervention conditions detected",
			zap.Int("count", len(det.Types)),
			zap.String("first", string(det.Types[0])))
	}
	return det, nil
}

func recommendationFor(t Type) string {
	switch t {
	case TypeCaptcha:
		return "request a captcha intervention and wait for a person to solve it"
	case TypeAntiBotProtection:
		return "request an anti_bot_protection intervention; automated retries will make it worse"
	case TypeSecurityCheck:
		return "request a security_check intervention for manual verification"
	case TypeTwoFactorAuth:
		return "request a two_factor_auth intervention; a person must provide the code"
	case TypeLoginRequired:
		return "request a login_required intervention for manual credential entry"
	case TypeCookiesConsent:
		return "a cookies_consent intervention or a direct click on the consent button may proceed"
	default:
		return "request a custom intervention describing what is blocking progress"
	}
}
