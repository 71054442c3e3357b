// Package browsertest provides scriptable in-memory implementations of the
// browser interfaces for tests.
package browsertest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/maltedev/shopping-price-tracker/internal/browser"
)

type Page struct {
	mu sync.Mutex

	CurrentURL string
	HTML       string
	BodyText   string

	// Elements maps a selector to the elements it matches.
	Elements map[string][]*Element
	// Counts overrides Count/CountVisible for a selector.
	Counts map[string]int

	NavigateErr error
	// OnNavigate runs after a successful navigation.
	OnNavigate func(p *Page, url string)
	// WaitErrs are returned by successive WaitForSelector calls; nil once exhausted.
	WaitErrs []error

	Navigations []string
	Waits       []string
	Screenshots []string
	MouseMoves  int
	Scrolls     int
	Closed      bool
}

func NewPage(url string) *Page {
	return &Page{
		CurrentURL: url,
		Elements:   make(map[string][]*Element),
		Counts:     make(map[string]int),
	}
}

// Add registers an element under selector and returns it.
func (p *Page) Add(selector string, el *Element) *Element {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Elements[selector] = append(p.Elements[selector], el)
	return el
}

func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.CurrentURL
}

func (p *Page) Navigate(ctx context.Context, url string, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	p.Navigations = append(p.Navigations, url)
	if p.NavigateErr != nil {
		err := p.NavigateErr
		p.mu.Unlock()
		return err
	}
	p.CurrentURL = url
	hook := p.OnNavigate
	p.mu.Unlock()

	if hook != nil {
		hook(p, url)
	}
	return nil
}

func (p *Page) WaitForSelector(selector string, _ time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Waits = append(p.Waits, selector)
	if len(p.WaitErrs) == 0 {
		return nil
	}
	err := p.WaitErrs[0]
	p.WaitErrs = p.WaitErrs[1:]
	return err
}

func (p *Page) Content() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.HTML, nil
}

func (p *Page) Text() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.BodyText, nil
}

func (p *Page) Count(selector string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n, ok := p.Counts[selector]; ok {
		return n, nil
	}
	return len(p.Elements[selector]), nil
}

func (p *Page) CountVisible(selector string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n, ok := p.Counts[selector]; ok {
		return n, nil
	}
	n := 0
	for _, el := range p.Elements[selector] {
		if el.visible() {
			n++
		}
	}
	return n, nil
}

func (p *Page) Query(selector string) (browser.Element, error) {
	p.mu.Lock()
	elements := append([]*Element(nil), p.Elements[selector]...)
	p.mu.Unlock()

	for _, el := range elements {
		if el.visible() {
			return el, nil
		}
	}
	return nil, nil
}

func (p *Page) QueryAll(selector string) ([]browser.Element, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]browser.Element, 0, len(p.Elements[selector]))
	for _, el := range p.Elements[selector] {
		out = append(out, el)
	}
	return out, nil
}

func (p *Page) MouseMove(_, _ float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.MouseMoves++
	return nil
}

// MouseClick activates the first visible element whose box contains the point.
func (p *Page) MouseClick(x, y float64) error {
	p.mu.Lock()
	var target *Element
	for _, elements := range p.Elements {
		for _, el := range elements {
			if el.visible() && el.contains(x, y) {
				target = el
				break
			}
		}
		if target != nil {
			break
		}
	}
	p.mu.Unlock()

	if target != nil {
		target.activate()
	}
	return nil
}

func (p *Page) Scroll(_ float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Scrolls++
	return nil
}

func (p *Page) Screenshot(path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Screenshots = append(p.Screenshots, path)
	return nil
}

func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Closed = true
	return nil
}

type Element struct {
	mu sync.Mutex

	Label   string
	Hidden  bool
	Box     *browser.Box
	OnClick func()

	ClickErr    error
	DispatchErr error

	Clicks     int
	Dispatches int
	MouseHits  int
}

func NewElement(label string) *Element {
	return &Element{Label: label}
}

// Hide makes the element invisible to Query, as if removed from the page.
func (e *Element) Hide() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Hidden = true
}

func (e *Element) visible() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.Hidden
}

func (e *Element) contains(x, y float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Box == nil {
		return false
	}
	return x >= e.Box.X && x <= e.Box.X+e.Box.Width && y >= e.Box.Y && y <= e.Box.Y+e.Box.Height
}

func (e *Element) activate() {
	e.mu.Lock()
	e.MouseHits++
	hook := e.OnClick
	e.mu.Unlock()
	if hook != nil {
		hook()
	}
}

func (e *Element) Text() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Label, nil
}

func (e *Element) IsVisible() (bool, error) {
	return e.visible(), nil
}

func (e *Element) ScrollIntoView() error {
	return nil
}

func (e *Element) Click(_ time.Duration) error {
	e.mu.Lock()
	if e.ClickErr != nil {
		err := e.ClickErr
		e.mu.Unlock()
		return err
	}
	e.Clicks++
	hook := e.OnClick
	e.mu.Unlock()

	if hook != nil {
		hook()
	}
	return nil
}

func (e *Element) DispatchClick() error {
	e.mu.Lock()
	if e.DispatchErr != nil {
		err := e.DispatchErr
		e.mu.Unlock()
		return err
	}
	e.Dispatches++
	hook := e.OnClick
	e.mu.Unlock()

	if hook != nil {
		hook()
	}
	return nil
}

func (e *Element) BoundingBox() (*browser.Box, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Box == nil {
		return nil, errors.New("element has no bounding box")
	}
	box := *e.Box
	return &box, nil
}

type Instance struct {
	mu sync.Mutex

	Pages      []*Page
	Jar        []browser.Cookie
	IsHeadless bool
	Closed     bool
	PageErr    error

	opened int
}

func NewInstance(headless bool, pages ...*Page) *Instance {
	return &Instance{Pages: pages, IsHeadless: headless}
}

func (i *Instance) NewPage() (browser.Page, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.PageErr != nil {
		return nil, i.PageErr
	}
	if i.opened < len(i.Pages) {
		p := i.Pages[i.opened]
		i.opened++
		return p, nil
	}
	p := NewPage("about:blank")
	i.Pages = append(i.Pages, p)
	i.opened++
	return p, nil
}

func (i *Instance) Cookies() ([]browser.Cookie, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]browser.Cookie(nil), i.Jar...), nil
}

func (i *Instance) AddCookies(cookies []browser.Cookie) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.Jar = append(i.Jar, cookies...)
	return nil
}

func (i *Instance) Headless() bool {
	return i.IsHeadless
}

func (i *Instance) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.Closed = true
	return nil
}

// Launcher hands out instances from Factory and records every launch mode.
type Launcher struct {
	mu sync.Mutex

	Factory  func(headless bool) (*Instance, error)
	Launches []bool
}

func (l *Launcher) Launch(ctx context.Context, headless bool) (browser.Instance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.Launches = append(l.Launches, headless)
	factory := l.Factory
	l.mu.Unlock()

	inst, err := factory(headless)
	if err != nil {
		return nil, err
	}
	return inst, nil
}
