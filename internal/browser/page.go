package browser

import (
	"context"
	"time"
)

// Page is the subset of a live browser tab the scraper drives. Calls on a
// single Page must not be issued concurrently.
type Page interface {
	URL() string
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	WaitForSelector(selector string, timeout time.Duration) error
	Content() (string, error)
	// Text returns the rendered text of the document body.
	Text() (string, error)
	Count(selector string) (int, error)
	CountVisible(selector string) (int, error)
	// Query returns the first visible element matching selector, or nil.
	Query(selector string) (Element, error)
	QueryAll(selector string) ([]Element, error)
	MouseMove(x, y float64) error
	// MouseClick presses and releases the primary button at x, y.
	MouseClick(x, y float64) error
	Scroll(deltaY float64) error
	Screenshot(path string) error
	Close() error
}

type Element interface {
	Text() (string, error)
	IsVisible() (bool, error)
	ScrollIntoView() error
	Click(timeout time.Duration) error
	// DispatchClick fires a click event without pointer simulation.
	DispatchClick() error
	BoundingBox() (*Box, error)
}

type Box struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Center returns the midpoint of the box.
func (b Box) Center() (float64, float64) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// Cookie mirrors the browser cookie shape so snapshots can be written as a
// plain JSON array.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite,omitempty"`
}

// Instance is one launched browser with a single context.
type Instance interface {
	NewPage() (Page, error)
	Cookies() ([]Cookie, error)
	AddCookies(cookies []Cookie) error
	Headless() bool
	Close() error
}

type Launcher interface {
	Launch(ctx context.Context, headless bool) (Instance, error)
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
