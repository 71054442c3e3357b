package captcha

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/maltedev/shopping-price-tracker/internal/artifacts"
	"github.com/maltedev/shopping-price-tracker/internal/browser"
)

// Marker is a structural sign of a challenge page: a form and an input
// that only appear together on the interstitial.
type Marker struct {
	Form  string
	Input string
}

type Config struct {
	URLPatterns []string
	Selectors   []string
	Marker      Marker
	// Phrases are matched case-insensitively against the page text.
	Phrases []string
	// PhraseThreshold is the number of distinct phrases required. A single
	// phrase is common in unrelated copy.
	PhraseThreshold int
	SettleDelay     time.Duration
}

func DefaultConfig() Config {
	return Config{
		URLPatterns: []string{
			"/sorry/",
			"google.com/sorry",
			"recaptcha",
			"/captcha",
		},
		Selectors: []string{
			"iframe[src*='recaptcha']",
			"iframe[title*='reCAPTCHA']",
			"#recaptcha",
			".g-recaptcha",
			"#captcha-form",
		},
		Marker: Marker{
			Form:  `id="captcha-form"`,
			Input: `name="g-recaptcha-response"`,
		},
		Phrases: []string{
			"unusual traffic",
			"not a robot",
			"verify you are human",
			"automated queries",
			"حركة مرور غير عادية",
			"لست برنامج روبوت",
			"طلبات آلية",
			"trafic exceptionnel",
			"pas un robot",
			"requêtes automatiques",
		},
		PhraseThreshold: 2,
		SettleDelay:     3 * time.Second,
	}
}

// Gate detects challenge interstitials and hands them to a human.
type Gate struct {
	cfg       Config
	confirmer Confirmer
	recorder  *artifacts.Recorder
	logger    *slog.Logger
}

func NewGate(cfg Config, confirmer Confirmer, recorder *artifacts.Recorder, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PhraseThreshold < 1 {
		cfg.PhraseThreshold = 1
	}
	return &Gate{
		cfg:       cfg,
		confirmer: confirmer,
		recorder:  recorder,
		logger:    logger.With("component", "captcha"),
	}
}

// Detect reports whether the page is a challenge. Checks run cheapest first
// and stop at the first positive.
func (g *Gate) Detect(page browser.Page) bool {
	current := strings.ToLower(page.URL())
	for _, pattern := range g.cfg.URLPatterns {
		if strings.Contains(current, pattern) {
			g.logger.Info("challenge detected", "signal", "url", "pattern", pattern)
			return true
		}
	}

	for _, selector := range g.cfg.Selectors {
		count, err := page.Count(selector)
		if err != nil {
			g.logger.Debug("selector check failed", "selector", selector, "error", err)
			continue
		}
		if count > 0 {
			g.logger.Info("challenge detected", "signal", "selector", "selector", selector)
			return true
		}
	}

	if g.hasMarker(page) {
		g.logger.Info("challenge detected", "signal", "marker")
		return true
	}

	if matched := g.matchedPhrases(page); len(matched) >= g.cfg.PhraseThreshold {
		g.logger.Info("challenge detected", "signal", "phrases", "phrases", matched)
		return true
	}

	return false
}

func (g *Gate) hasMarker(page browser.Page) bool {
	if g.cfg.Marker.Form == "" || g.cfg.Marker.Input == "" {
		return false
	}

	html, err := page.Content()
	if err != nil {
		g.logger.Debug("failed to read content", "error", err)
		return false
	}
	return strings.Contains(html, g.cfg.Marker.Form) && strings.Contains(html, g.cfg.Marker.Input)
}

func (g *Gate) matchedPhrases(page browser.Page) []string {
	text, err := page.Text()
	if err != nil {
		g.logger.Debug("failed to read page text", "error", err)
		return nil
	}

	lowered := strings.ToLower(text)
	var matched []string
	for _, phrase := range g.cfg.Phrases {
		if strings.Contains(lowered, strings.ToLower(phrase)) {
			matched = append(matched, phrase)
		}
	}
	return matched
}

// Resolve suspends the flow until a human confirms the challenge is solved.
// There is no timeout; only ctx cancellation ends the wait early.
func (g *Gate) Resolve(ctx context.Context, page browser.Page) (bool, error) {
	if _, err := g.recorder.Screenshot(page, artifacts.KindCaptcha, "challenge"); err != nil {
		g.logger.Warn("failed to capture challenge screenshot", "error", err)
	}

	if g.confirmer == nil {
		return false, fmt.Errorf("no confirmer configured for challenge at %s", page.URL())
	}

	g.logger.Warn("waiting for manual challenge resolution", "url", page.URL())

	prompt := fmt.Sprintf("CAPTCHA detected at %s. Solve it in the browser window, then press Enter to continue...", page.URL())
	if err := g.confirmer.Confirm(ctx, prompt); err != nil {
		return false, fmt.Errorf("challenge confirmation: %w", err)
	}

	if err := browser.Sleep(ctx, g.cfg.SettleDelay); err != nil {
		return false, err
	}

	g.logger.Info("challenge resolution confirmed", "url", page.URL())
	return true, nil
}

// CheckAndResolve returns whether a challenge was present and handled.
func (g *Gate) CheckAndResolve(ctx context.Context, page browser.Page) (bool, error) {
	if !g.Detect(page) {
		return false, nil
	}
	return g.Resolve(ctx, page)
}
