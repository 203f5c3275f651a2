package viewer

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

const (
	navigationTimeout = 30 * time.Second
	actionTimeout     = 15 * time.Second
	screenshotQuality = 85
)

// nextPageSelectors are tried in order when advancing the embedded preview
// viewer. Publishers vary in which control the embed renders.
var nextPageSelectors = []string{
	`div[aria-label="Next page"]`,
	`div[title="Next Page"]`,
	`#next_btn`,
	`button[jsname="next"]`,
}

// ChromeFactory builds headless Chrome sessions via chromedp.
type ChromeFactory struct {
	logger  *zap.Logger
	options []chromedp.ExecAllocatorOption
}

func NewChromeFactory(logger *zap.Logger) *ChromeFactory {
	return &ChromeFactory{
		logger: logger,
		options: append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.DisableGPU,
			chromedp.NoSandbox,
			chromedp.Headless,
			chromedp.UserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),

			chromedp.Flag("accept-language", "en-US,en;q=0.9"),
			chromedp.Flag("disable-blink-features", "AutomationControlled"),
			chromedp.Flag("exclude-switches", "enable-automation"),
			chromedp.Flag("disable-extensions", ""),
			chromedp.WindowSize(1280, 1696),
		),
	}
}

func (f *ChromeFactory) NewSession(ctx context.Context) (Session, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, f.options...)
	taskCtx, taskCancel := chromedp.NewContext(allocCtx)

	// Starting the browser is deferred until the first Run; force it here so
	// acquisition failures surface at session creation, not mid-loop.
	startCtx, startCancel := context.WithTimeout(taskCtx, navigationTimeout)
	defer startCancel()
	if err := chromedp.Run(startCtx); err != nil {
		taskCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	return &chromeSession{
		ctx:    taskCtx,
		logger: f.logger,
		cancel: func() {
			taskCancel()
			allocCancel()
		},
	}, nil
}

type chromeSession struct {
	ctx    context.Context
	logger *zap.Logger
	cancel context.CancelFunc
	closed bool
}

func (s *chromeSession) Open(ctx context.Context, url string) error {
	runCtx, cancel := s.bound(ctx, navigationTimeout)
	defer cancel()

	s.logger.Info("opening preview viewer", zap.String("url", url))

	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitVisible("body"),
		chromedp.Evaluate(`
			Object.defineProperty(navigator, 'webdriver', {
				get: () => undefined,
			});
		`, nil),
		chromedp.Sleep(2*time.Second),
	)
	if err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

func (s *chromeSession) Screenshot(ctx context.Context) ([]byte, error) {
	runCtx, cancel := s.bound(ctx, actionTimeout)
	defer cancel()

	var buf []byte
	if err := chromedp.Run(runCtx, chromedp.FullScreenshot(&buf, screenshotQuality)); err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}
	return buf, nil
}

// NextPage activates the viewer's page-turn control. A missing control is
// reported as ErrNoNextPage so callers can tell end-of-preview apart from a
// hard navigation fault.
func (s *chromeSession) NextPage(ctx context.Context) error {
	runCtx, cancel := s.bound(ctx, actionTimeout)
	defer cancel()

	for _, sel := range nextPageSelectors {
		var nodes []*cdp.Node
		err := chromedp.Run(runCtx,
			chromedp.Nodes(sel, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)),
		)
		if err != nil {
			return fmt.Errorf("failed to query next-page control: %w", err)
		}
		if len(nodes) == 0 {
			continue
		}

		err = chromedp.Run(runCtx,
			chromedp.MouseClickNode(nodes[0]),
			chromedp.Sleep(1500*time.Millisecond),
		)
		if err != nil {
			return fmt.Errorf("failed to click next-page control: %w", err)
		}
		return nil
	}

	return ErrNoNextPage
}

func (s *chromeSession) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.cancel()
}

// bound merges the caller's deadline with the session's browser context so
// chromedp actions honor per-request cancellation.
func (s *chromeSession) bound(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	runCtx, cancel1 := context.WithTimeout(s.ctx, timeout)
	stop := context.AfterFunc(ctx, cancel1)
	return runCtx, func() {
		stop()
		cancel1()
	}
}

// PreviewURL builds the embedded-viewer entry point for a provider volume
// id, opened at the first preview page.
func PreviewURL(providerID string) string {
	return fmt.Sprintf("https://books.google.com/books?id=%s&pg=PA1&output=embed", providerID)
}
