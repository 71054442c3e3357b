package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/maltedev/shopping-price-tracker/internal/artifacts"
	"github.com/maltedev/shopping-price-tracker/internal/browser"
	"github.com/maltedev/shopping-price-tracker/internal/storage"
)

var ErrLaunch = errors.New("browser launch failed")

type State string

const (
	StateHeadless   State = "headless"
	StateEscalating State = "escalating"
	StateVisible    State = "visible"
	// StateDegraded: the visible browser could not start, so a fresh
	// headless page is returned without navigating.
	StateDegraded State = "degraded"
	StateFailed   State = "failed"
)

// Detector is the challenge gate as seen by the controller.
type Detector interface {
	Detect(page browser.Page) bool
	Resolve(ctx context.Context, page browser.Page) (bool, error)
}

type Config struct {
	// Domain scopes restored cookies and is written to the session metadata.
	Domain            string
	NavigationTimeout time.Duration
	StaleAfter        time.Duration
	Humanize          bool
}

func DefaultConfig() Config {
	return Config{
		Domain:            "google.com",
		NavigationTimeout: 60 * time.Second,
		StaleAfter:        12 * time.Hour,
		Humanize:          true,
	}
}

// Handle is a ready page and the browser instance that owns it.
type Handle struct {
	Instance browser.Instance
	Page     browser.Page
	State    State
	// Navigated is false in degraded mode; the caller must navigate.
	Navigated bool
}

func (h *Handle) Close() error {
	if h == nil || h.Instance == nil {
		return nil
	}
	return h.Instance.Close()
}

type Controller struct {
	launcher browser.Launcher
	gate     Detector
	store    storage.SessionStore
	recorder *artifacts.Recorder
	cfg      Config
	now      func() time.Time
	logger   *slog.Logger
}

func NewController(launcher browser.Launcher, gate Detector, store storage.SessionStore, recorder *artifacts.Recorder, cfg Config, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		launcher: launcher,
		gate:     gate,
		store:    store,
		recorder: recorder,
		cfg:      cfg,
		now:      time.Now,
		logger:   logger.With("component", "session"),
	}
}

// Open launches headless, navigates to url and escalates to a visible
// browser when a challenge is detected.
func (c *Controller) Open(ctx context.Context, url string) (*Handle, error) {
	handle, err := c.launch(ctx, true)
	if err != nil {
		c.transition(StateFailed, "url", url, "error", err)
		return nil, err
	}
	c.transition(StateHeadless, "url", url)

	if err := handle.Page.Navigate(ctx, url, c.cfg.NavigationTimeout); err != nil {
		c.recorder.Capture(handle.Page, artifacts.KindError, "navigation")
		handle.Close()
		return nil, fmt.Errorf("headless navigation: %w", err)
	}
	handle.Navigated = true

	if c.cfg.Humanize {
		if err := browser.Humanize(ctx, handle.Page); err != nil {
			c.logger.Debug("humanize failed", "error", err)
		}
	}

	if !c.gate.Detect(handle.Page) {
		return handle, nil
	}

	return c.escalate(ctx, handle, url)
}

func (c *Controller) escalate(ctx context.Context, headless *Handle, url string) (*Handle, error) {
	c.transition(StateEscalating, "url", url)

	if _, err := c.recorder.Screenshot(headless.Page, artifacts.KindCaptcha, "headless-detected"); err != nil {
		c.logger.Warn("failed to capture challenge screenshot", "error", err)
	}
	if err := headless.Close(); err != nil {
		c.logger.Warn("failed to close headless browser", "error", err)
	}

	visible, err := c.launch(ctx, false)
	if err != nil {
		c.logger.Warn("visible browser unavailable, falling back to headless", "error", err)
		return c.degrade(ctx)
	}
	c.transition(StateVisible, "url", url)

	if err := visible.Page.Navigate(ctx, url, c.cfg.NavigationTimeout); err != nil {
		c.recorder.Capture(visible.Page, artifacts.KindError, "visible-navigation")
		visible.Close()
		return nil, fmt.Errorf("visible navigation: %w", err)
	}
	visible.Navigated = true

	if _, err := c.gate.Resolve(ctx, visible.Page); err != nil {
		visible.Close()
		return nil, fmt.Errorf("challenge resolution: %w", err)
	}

	if err := c.Persist(visible); err != nil {
		c.logger.Warn("failed to persist session after challenge", "error", err)
	}

	return visible, nil
}

func (c *Controller) degrade(ctx context.Context) (*Handle, error) {
	handle, err := c.launch(ctx, true)
	if err != nil {
		c.transition(StateFailed, "error", err)
		return nil, err
	}
	handle.State = StateDegraded
	c.transition(StateDegraded)
	return handle, nil
}

func (c *Controller) launch(ctx context.Context, headless bool) (*Handle, error) {
	inst, err := c.launcher.Launch(ctx, headless)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLaunch, err)
	}

	c.restoreCookies(inst)

	page, err := inst.NewPage()
	if err != nil {
		inst.Close()
		return nil, fmt.Errorf("%w: %v", ErrLaunch, err)
	}

	state := StateHeadless
	if !headless {
		state = StateVisible
	}
	return &Handle{Instance: inst, Page: page, State: state}, nil
}

// restoreCookies loads the stored session into inst. Failures only degrade
// to a cookie-less session.
func (c *Controller) restoreCookies(inst browser.Instance) {
	if c.store == nil {
		return
	}

	sess, err := c.store.Load()
	if err != nil {
		c.logger.Warn("failed to load stored session", "error", err)
		return
	}
	if sess == nil {
		c.logger.Debug("no stored session")
		return
	}

	if !sess.Metadata.LastUsed.IsZero() {
		if age := c.now().Sub(sess.Metadata.LastUsed); age > c.cfg.StaleAfter {
			c.logger.Warn("stored session is stale, using it anyway", "age", age.Round(time.Minute))
		}
	}

	cookies := filterDomain(sess.Cookies, c.cfg.Domain)
	if len(cookies) == 0 {
		return
	}

	if err := inst.AddCookies(cookies); err != nil {
		c.logger.Warn("failed to restore cookies", "error", err)
		return
	}
	c.logger.Debug("cookies restored", "count", len(cookies))
}

// Persist snapshots the handle's cookies. It is a no-op without cookies.
func (c *Controller) Persist(h *Handle) error {
	if c.store == nil || h == nil || h.Instance == nil {
		return nil
	}

	cookies, err := h.Instance.Cookies()
	if err != nil {
		return err
	}
	if len(cookies) == 0 {
		return nil
	}

	err = c.store.Save(&storage.Session{
		Cookies: cookies,
		Metadata: storage.Metadata{
			Domain:   c.cfg.Domain,
			LastUsed: c.now(),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}

	c.logger.Debug("session persisted", "cookies", len(cookies))
	return nil
}

func (c *Controller) transition(state State, args ...any) {
	c.logger.Info("session state", append([]any{"state", state}, args...)...)
}

func filterDomain(cookies []browser.Cookie, domain string) []browser.Cookie {
	if domain == "" {
		return cookies
	}

	var out []browser.Cookie
	for _, ck := range cookies {
		host := strings.TrimPrefix(ck.Domain, ".")
		if host == domain || strings.HasSuffix(host, "."+domain) {
			out = append(out, ck)
		}
	}
	return out
}
