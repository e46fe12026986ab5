package decathlon

import (
	"context"
	"fmt"
	"log/slog"
	"pesterer/pkg/models"
	"time"

	"github.com/chromedp/chromedp"
)

// Browser fetches availability through a headless Chrome instance, for
// when plain HTTP requests get bot-blocked. Each fetch opens its own tab.
type Browser struct {
	Endpoint string
	Timeout  time.Duration
	Now      func() time.Time

	browserCtx  context.Context
	cancelAlloc context.CancelFunc
	cancel      context.CancelFunc
}

func NewBrowser(opts Options) (*Browser, error) {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(opts.UserAgent),
		chromedp.WindowSize(1920, 1080),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, cancel := chromedp.NewContext(allocCtx)

	// start the browser up front so tabs can be opened concurrently
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		cancelAlloc()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	return &Browser{
		Endpoint:    opts.Endpoint,
		Timeout:     opts.Timeout,
		Now:         time.Now,
		browserCtx:  browserCtx,
		cancelAlloc: cancelAlloc,
		cancel:      cancel,
	}, nil
}

func (b *Browser) Fetch(ctx context.Context, product models.Product, store models.Store) (models.Reading, error) {
	target, err := BuildURL(b.Endpoint, store.FullID, product.ID, b.Now())
	if err != nil {
		return models.Reading{}, err
	}

	tabCtx, cancelTab := chromedp.NewContext(b.browserCtx)
	defer cancelTab()

	// tie the tab to the caller's context
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	if b.Timeout > 0 {
		var cancelTimeout context.CancelFunc
		tabCtx, cancelTimeout = context.WithTimeout(tabCtx, b.Timeout)
		defer cancelTimeout()
	}

	var body string
	err = chromedp.Run(tabCtx,
		chromedp.Navigate(target),
		chromedp.WaitReady(`body`, chromedp.ByQuery),
		chromedp.Evaluate(`document.body.innerText`, &body),
	)
	if err != nil {
		if ctx.Err() != nil {
			return models.Reading{}, ctx.Err()
		}
		slog.Debug("browser fetch failed", "url", target, "err", err)
		return models.Reading{}, fmt.Errorf("chromedp %s: %w", target, err)
	}

	return Decode([]byte(body), product.ID, store)
}

func (b *Browser) Close() error {
	b.cancel()
	b.cancelAlloc()
	return nil
}
