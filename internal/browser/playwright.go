package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

type playwrightPage struct {
	page playwright.Page
}

func (p *playwrightPage) URL() string {
	return p.page.URL()
}

func (p *playwrightPage) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

func (p *playwrightPage) WaitForSelector(selector string, timeout time.Duration) error {
	return p.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
}

func (p *playwrightPage) Content() (string, error) {
	return p.page.Content()
}

func (p *playwrightPage) Text() (string, error) {
	return p.page.Locator("body").InnerText()
}

func (p *playwrightPage) Count(selector string) (int, error) {
	return p.page.Locator(selector).Count()
}

func (p *playwrightPage) CountVisible(selector string) (int, error) {
	elements, err := p.QueryAll(selector)
	if err != nil {
		return 0, err
	}

	visible := 0
	for _, el := range elements {
		if ok, err := el.IsVisible(); err == nil && ok {
			visible++
		}
	}
	return visible, nil
}

func (p *playwrightPage) Query(selector string) (Element, error) {
	elements, err := p.QueryAll(selector)
	if err != nil {
		return nil, err
	}

	for _, el := range elements {
		if ok, err := el.IsVisible(); err == nil && ok {
			return el, nil
		}
	}
	return nil, nil
}

func (p *playwrightPage) QueryAll(selector string) ([]Element, error) {
	locators, err := p.page.Locator(selector).All()
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", selector, err)
	}

	elements := make([]Element, 0, len(locators))
	for _, loc := range locators {
		elements = append(elements, &playwrightElement{locator: loc})
	}
	return elements, nil
}

func (p *playwrightPage) MouseMove(x, y float64) error {
	return p.page.Mouse().Move(x, y, playwright.MouseMoveOptions{Steps: playwright.Int(5)})
}

func (p *playwrightPage) MouseClick(x, y float64) error {
	mouse := p.page.Mouse()
	if err := mouse.Move(x, y); err != nil {
		return err
	}
	if err := mouse.Down(); err != nil {
		return err
	}
	return mouse.Up()
}

func (p *playwrightPage) Scroll(deltaY float64) error {
	_, err := p.page.Evaluate(`(dy) => window.scrollBy(0, dy)`, deltaY)
	return err
}

func (p *playwrightPage) Screenshot(path string) error {
	_, err := p.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	})
	return err
}

func (p *playwrightPage) Close() error {
	return p.page.Close()
}

type playwrightElement struct {
	locator playwright.Locator
}

func (e *playwrightElement) Text() (string, error) {
	return e.locator.InnerText()
}

func (e *playwrightElement) IsVisible() (bool, error) {
	return e.locator.IsVisible()
}

func (e *playwrightElement) ScrollIntoView() error {
	return e.locator.ScrollIntoViewIfNeeded()
}

func (e *playwrightElement) Click(timeout time.Duration) error {
	return e.locator.Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
}

func (e *playwrightElement) DispatchClick() error {
	return e.locator.DispatchEvent("click", nil)
}

func (e *playwrightElement) BoundingBox() (*Box, error) {
	rect, err := e.locator.BoundingBox()
	if err != nil {
		return nil, err
	}
	if rect == nil {
		return nil, fmt.Errorf("element has no bounding box")
	}
	return &Box{X: rect.X, Y: rect.Y, Width: rect.Width, Height: rect.Height}, nil
}
