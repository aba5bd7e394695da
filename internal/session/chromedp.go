package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
)

// ChromeProvider drives a headless Chrome instance via the DevTools protocol
// to pick up the named cookie from the source's entry page.
type ChromeProvider struct {
	entryURL   string
	cookieName string
	timeout    time.Duration
}

func NewChromeProvider(entryURL, cookieName string, timeout time.Duration) *ChromeProvider {
	return &ChromeProvider{
		entryURL:   entryURL,
		cookieName: cookieName,
		timeout:    timeout,
	}
}

// Acquire launches an isolated browser context, navigates to the entry page,
// waits for it to settle and extracts the cookie. The context is torn down
// on every exit path via the deferred cancels.
func (p *ChromeProvider) Acquire(ctx context.Context) (Credential, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, chromedp.DefaultExecAllocatorOptions[:]...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	runCtx, cancelRun := context.WithTimeout(browserCtx, p.timeout)
	defer cancelRun()

	slog.Info("Acquiring session credential", "engine", "chromedp", "url", p.entryURL)

	var cookies []*network.Cookie
	err := chromedp.Run(runCtx,
		chromedp.Navigate(p.entryURL),
		chromedp.WaitReady("body"),
		// The gate sets its cookies from scripts that run after load; give
		// the page a moment to settle before reading the jar.
		chromedp.Sleep(2*time.Second),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			cookies, err = storage.GetCookies().Do(ctx)
			return err
		}),
	)
	if err != nil {
		return Credential{}, fmt.Errorf("browser navigation to %s failed: %w", p.entryURL, err)
	}

	for _, c := range cookies {
		if c.Name == p.cookieName {
			slog.Info("Session credential acquired", "cookie", p.cookieName)
			return Credential{Token: c.Value, AcquiredAt: time.Now()}, nil
		}
	}
	return Credential{}, fmt.Errorf("cookie %q: %w", p.cookieName, ErrCredentialNotFound)
}
