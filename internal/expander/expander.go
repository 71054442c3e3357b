package expander

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/maltedev/shopping-price-tracker/internal/browser"
)

// ClickableSelector is scanned by the text-match strategy.
const ClickableSelector = "button, [role='button'], a[role='link'], [role='link']"

// Reason explains why an expansion run ended.
type Reason string

const (
	ReasonBudgetReached     Reason = "budget_reached"
	ReasonExhausted         Reason = "no_more_pages"
	ReasonSufficient        Reason = "sufficient_content"
	ReasonNotFound          Reason = "control_not_found"
	ReasonAttemptsExhausted Reason = "attempts_exhausted"
	ReasonClickFailed       Reason = "click_failed"
	ReasonChallenge         Reason = "challenge_unresolved"
	ReasonCancelled         Reason = "cancelled"
)

// Success reports whether the run ended because the section was fully or
// sufficiently expanded.
func (r Reason) Success() bool {
	switch r {
	case ReasonBudgetReached, ReasonExhausted, ReasonSufficient:
		return true
	default:
		return false
	}
}

type Result struct {
	Section string
	Clicks  int
	Reason  Reason
}

// ChallengeChecker is consulted before expanding and after a failed locate,
// since a missing control is often an interstitial.
type ChallengeChecker interface {
	CheckAndResolve(ctx context.Context, page browser.Page) (bool, error)
}

type Options struct {
	SettleDelay  time.Duration
	ClickTimeout time.Duration
}

func DefaultOptions() Options {
	return Options{
		SettleDelay:  time.Second,
		ClickTimeout: 5 * time.Second,
	}
}

type Expander struct {
	opts   Options
	gate   ChallengeChecker
	logger *slog.Logger
}

func New(opts Options, gate ChallengeChecker, logger *slog.Logger) *Expander {
	if logger == nil {
		logger = slog.Default()
	}
	return &Expander{
		opts:   opts,
		gate:   gate,
		logger: logger.With("component", "expander"),
	}
}

// Expand clicks the section's "show more" control up to maxClicks times and
// returns how many activations succeeded. It never fails; the reason in
// the result says how the run ended.
func (e *Expander) Expand(ctx context.Context, page browser.Page, section Section, maxClicks int, clickDelay time.Duration) Result {
	log := e.logger.With("section", section.Name)
	result := Result{Section: section.Name}

	if !e.checkChallenge(ctx, page, log) {
		result.Reason = ReasonChallenge
		return result
	}

	state := NewState(maxClicks)

	for {
		switch NextAction(state) {
		case Stop:
			if result.Reason == "" {
				result.Reason = ReasonBudgetReached
			}
			result.Clicks = state.Clicks
			log.Info("section expansion finished", "clicks", result.Clicks, "reason", result.Reason)
			return result
		case GiveUp:
			result.Clicks = state.Clicks
			result.Reason = ReasonAttemptsExhausted
			if state.Misses >= state.MaxMisses {
				result.Reason = ReasonNotFound
			}
			log.Warn("section expansion gave up", "clicks", result.Clicks, "attempts", state.Attempts, "reason", result.Reason)
			return result
		}

		if err := browser.Sleep(ctx, e.opts.SettleDelay); err != nil {
			return e.cancelled(result, state, log)
		}
		state.Attempts++

		control, strategy := e.Locate(page, section)
		if control == nil {
			state.Misses++
			log.Debug("show-more control not found", "attempt", state.Attempts, "misses", state.Misses)

			if e.sufficient(page, section, log) {
				state.Done = true
				result.Reason = ReasonSufficient
				continue
			}

			if !e.checkChallenge(ctx, page, log) {
				result.Clicks = state.Clicks
				result.Reason = ReasonChallenge
				return result
			}
			continue
		}
		state.Misses = 0

		if err := control.ScrollIntoView(); err != nil {
			log.Debug("scroll into view failed", "error", err)
		}

		clickStrategy, err := e.click(page, control)
		if err != nil {
			log.Warn("all click strategies failed", "locate", strategy, "error", err)
			state.Done = true
			result.Reason = ReasonClickFailed
			continue
		}
		state.Clicks++
		log.Debug("show-more activated", "clicks", state.Clicks, "locate", strategy, "click", clickStrategy)

		if err := browser.Sleep(ctx, clickDelay); err != nil {
			return e.cancelled(result, state, log)
		}

		if state.Clicks < state.MaxClicks {
			if next, _ := e.Locate(page, section); next == nil {
				state.Done = true
				result.Reason = ReasonExhausted
			}
		}
	}
}

func (e *Expander) cancelled(result Result, state State, log *slog.Logger) Result {
	result.Clicks = state.Clicks
	result.Reason = ReasonCancelled
	log.Warn("section expansion cancelled", "clicks", result.Clicks)
	return result
}

func (e *Expander) checkChallenge(ctx context.Context, page browser.Page, log *slog.Logger) bool {
	if e.gate == nil {
		return true
	}
	handled, err := e.gate.CheckAndResolve(ctx, page)
	if err != nil {
		log.Warn("challenge check failed", "error", err)
		return false
	}
	if handled {
		log.Info("challenge resolved during expansion")
	}
	return true
}

func (e *Expander) sufficient(page browser.Page, section Section, log *slog.Logger) bool {
	if section.ItemSelector == "" {
		return false
	}
	count, err := page.CountVisible(section.ItemSelector)
	if err != nil {
		log.Debug("failed to count items", "error", err)
		return false
	}
	if count > section.SufficiencyThreshold {
		log.Info("control missing but content sufficient", "items", count, "threshold", section.SufficiencyThreshold)
		return true
	}
	return false
}

type locateStrategy struct {
	name string
	find func(page browser.Page, section Section) (browser.Element, error)
}

var locateStrategies = []locateStrategy{
	{name: "selector", find: bySelector},
	{name: "alternate", find: byAlternates},
	{name: "text", find: byRoleText},
	{name: "xpath", find: byXPath},
}

// Locate runs the location cascade and returns the first visible control
// with the name of the strategy that found it.
func (e *Expander) Locate(page browser.Page, section Section) (browser.Element, string) {
	for _, s := range locateStrategies {
		el, err := s.find(page, section)
		if err != nil {
			e.logger.Debug("locate strategy failed", "strategy", s.name, "section", section.Name, "error", err)
			continue
		}
		if el != nil {
			return el, s.name
		}
	}
	return nil, ""
}

func bySelector(page browser.Page, section Section) (browser.Element, error) {
	if section.Selector == "" {
		return nil, nil
	}
	return page.Query(section.Selector)
}

func byAlternates(page browser.Page, section Section) (browser.Element, error) {
	for _, selector := range section.AlternateSelectors {
		el, err := page.Query(selector)
		if err != nil {
			return nil, err
		}
		if el != nil {
			return el, nil
		}
	}
	return nil, nil
}

func byRoleText(page browser.Page, section Section) (browser.Element, error) {
	if len(section.Phrases) == 0 {
		return nil, nil
	}

	candidates, err := page.QueryAll(ClickableSelector)
	if err != nil {
		return nil, err
	}

	for _, phrase := range section.Phrases {
		want := strings.ToLower(phrase)
		for _, el := range candidates {
			visible, err := el.IsVisible()
			if err != nil || !visible {
				continue
			}
			text, err := el.Text()
			if err != nil {
				continue
			}
			if strings.Contains(strings.ToLower(strings.TrimSpace(text)), want) {
				return el, nil
			}
		}
	}
	return nil, nil
}

func byXPath(page browser.Page, section Section) (browser.Element, error) {
	for _, phrase := range section.Phrases {
		el, err := page.Query(TextXPath(phrase))
		if err != nil {
			return nil, err
		}
		if el != nil {
			return el, nil
		}
	}
	return nil, nil
}

// TextXPath selects elements whose own text contains phrase.
func TextXPath(phrase string) string {
	return fmt.Sprintf("xpath=//*[contains(normalize-space(text()), %s)]", xpathLiteral(phrase))
}

func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	return "concat('" + strings.Join(parts, `', "'", '`) + "')"
}

var errNoBoundingBox = errors.New("control has no bounding box")

// click runs the click cascade: native click, dispatched event, then a
// synthesized press at the center of the element.
func (e *Expander) click(page browser.Page, el browser.Element) (string, error) {
	var errs []error

	err := el.Click(e.opts.ClickTimeout)
	if err == nil {
		return "native", nil
	}
	errs = append(errs, fmt.Errorf("native: %w", err))

	err = el.DispatchClick()
	if err == nil {
		return "dispatch", nil
	}
	errs = append(errs, fmt.Errorf("dispatch: %w", err))

	box, err := el.BoundingBox()
	if err == nil && box == nil {
		err = errNoBoundingBox
	}
	if err == nil {
		x, y := box.Center()
		if err = page.MouseClick(x, y); err == nil {
			return "mouse", nil
		}
	}
	errs = append(errs, fmt.Errorf("mouse: %w", err))

	return "", errors.Join(errs...)
}
