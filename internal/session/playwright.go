package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/playwright-community/playwright-go"
)

// PlaywrightProvider is the alternate engine (BROWSER_ENGINE=playwright).
// Same protocol as ChromeProvider: one isolated context, one navigation,
// one cookie read, unconditional teardown.
type PlaywrightProvider struct {
	entryURL   string
	cookieName string
	timeout    time.Duration
}

func NewPlaywrightProvider(entryURL, cookieName string, timeout time.Duration) *PlaywrightProvider {
	return &PlaywrightProvider{
		entryURL:   entryURL,
		cookieName: cookieName,
		timeout:    timeout,
	}
}

func (p *PlaywrightProvider) Acquire(ctx context.Context) (Credential, error) {
	// playwright-go carries its own timeouts; the context still gates entry.
	if err := ctx.Err(); err != nil {
		return Credential{}, err
	}

	pw, err := playwright.Run()
	if err != nil {
		return Credential{}, fmt.Errorf("start playwright: %w", err)
	}
	defer pw.Stop()

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		return Credential{}, fmt.Errorf("launch browser: %w", err)
	}
	defer browser.Close()

	browserCtx, err := browser.NewContext()
	if err != nil {
		return Credential{}, fmt.Errorf("new browser context: %w", err)
	}
	defer browserCtx.Close()

	page, err := browserCtx.NewPage()
	if err != nil {
		return Credential{}, fmt.Errorf("new page: %w", err)
	}

	slog.Info("Acquiring session credential", "engine", "playwright", "url", p.entryURL)

	if _, err := page.Goto(p.entryURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   playwright.Float(float64(p.timeout.Milliseconds())),
	}); err != nil {
		return Credential{}, fmt.Errorf("navigate to %s: %w", p.entryURL, err)
	}

	cookies, err := browserCtx.Cookies()
	if err != nil {
		return Credential{}, fmt.Errorf("read cookie jar: %w", err)
	}

	for _, c := range cookies {
		if c.Name == p.cookieName {
			slog.Info("Session credential acquired", "cookie", p.cookieName)
			return Credential{Token: c.Value, AcquiredAt: time.Now()}, nil
		}
	}
	return Credential{}, fmt.Errorf("cookie %q: %w", p.cookieName, ErrCredentialNotFound)
}
