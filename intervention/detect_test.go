package intervention

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// probeEvaluator replays a canned probe result and records the
// expressions it was asked to run.
type probeEvaluator struct {
	payload     string
	err         error
	expressions []string
}

func (p *probeEvaluator) Evaluate(_ context.Context, expression string, out any) error {
	p.expressions = append(p.expressions, expression)
	if p.err != nil {
		return p.err
	}
	return json.Unmarshal([]byte(p.payload), out)
}

func TestDetect(t *testing.T) {
	ctx := context.Background()

	t.Run("clean page", func(t *testing.T) {
		ev := &probeEvaluator{payload: `{}`}
		det, err := NewDetector(nil).Detect(ctx, ev, AllChecks())
		require.NoError(t, err)
		assert.False(t, det.Detected)
		assert.Empty(t, det.Types)
		assert.Empty(t, det.Recommendation)
	})

	t.Run("captcha outranks login in the recommendation", func(t *testing.T) {
		ev := &probeEvaluator{payload: `{"captcha": true, "login": true}`}
		det, err := NewDetector(nil).Detect(ctx, ev, AllChecks())
		require.NoError(t, err)
		assert.True(t, det.Detected)
		assert.Equal(t, []Type{TypeCaptcha, TypeLoginRequired}, det.Types)
		assert.Contains(t, det.Recommendation, "captcha")
		assert.Contains(t, det.Reasons[TypeCaptcha], "captcha widget")
	})

	t.Run("every probe maps to its type", func(t *testing.T) {
		ev := &probeEvaluator{payload: `{
			"captcha": true, "login": true, "two_factor": true,
			"security": true, "cookies": true, "anti_bot": true
		}`}
		det, err := NewDetector(nil).Detect(ctx, ev, AllChecks())
		require.NoError(t, err)
		assert.ElementsMatch(t, []Type{
			TypeCaptcha, TypeLoginRequired, TypeTwoFactorAuth,
			TypeSecurityCheck, TypeCookiesConsent, TypeAntiBotProtection,
		}, det.Types)
		for _, typ := range det.Types {
			assert.NotEmpty(t, det.Reasons[typ])
		}
	})

	t.Run("disabled checks filter the result", func(t *testing.T) {
		ev := &probeEvaluator{payload: `{"captcha": true, "two_factor": true, "cookies": true}`}
		det, err := NewDetector(nil).Detect(ctx, ev, Checks{Login: true, Cookies: true})
		require.NoError(t, err)
		require.True(t, det.Detected)
		assert.Equal(t, []Type{TypeTwoFactorAuth, TypeCookiesConsent}, det.Types)
		assert.NotContains(t, det.Types, TypeCaptcha)
	})

	t.Run("zero checks report nothing", func(t *testing.T) {
		ev := &probeEvaluator{payload: `{"captcha": true, "login": true}`}
		det, err := NewDetector(nil).Detect(ctx, ev, Checks{})
		require.NoError(t, err)
		assert.False(t, det.Detected)
		assert.Empty(t, det.Types)
	})

	t.Run("evaluate failure surfaces", func(t *testing.T) {
		ev := &probeEvaluator{err: errors.New("page gone")}
		_, err := NewDetector(nil).Detect(ctx, ev, AllChecks())
		require.Error(t, err)
	})

	t.Run("probe script is read only", func(t *testing.T) {
		ev := &probeEvaluator{payload: `{}`}
		_, err := NewDetector(nil).Detect(ctx, ev, AllChecks())
		require.NoError(t, err)
		require.Len(t, ev.expressions, 1)
		for _, verb := range []string{".click(", ".submit(", ".focus(", "location.href =", "innerHTML ="} {
			assert.NotContains(t, ev.expressions[0], verb)
		}
	})
}

func TestRecommendationFor(t *testing.T) {
	for _, typ := range KnownTypes {
		assert.NotEmpty(t, recommendationFor(typ), string(typ))
	}
	// unlisted types still get actionable advice
	assert.True(t, strings.Contains(recommendationFor(TypeComplexDataEntry), "custom"))
}
