// Package snapshot renders the dashboard to a PNG through headless
// Chromium, for sharing or embedding the weekly plan outside the app.
package snapshot

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/chromedp"
)

const (
	DefaultWidth   = 800
	DefaultHeight  = 1200
	defaultTimeout = 30 * time.Second
)

// Options defines one capture.
type Options struct {
	// URL of the page to render, e.g. "http://127.0.0.1:8080/".
	URL string
	// OutputPath is where the PNG is written.
	OutputPath string
	// Width / Height are viewport pixels; zero uses the defaults.
	Width  int
	Height int
	// Timeout bounds the whole capture; zero uses a sane default.
	Timeout time.Duration
}

// CapturePNG navigates a headless Chromium to opts.URL, waits for the page
// body, and writes a full screenshot to opts.OutputPath. The dashboard is a
// static page, so body visibility is a sufficient readiness signal.
func CapturePNG(parentCtx context.Context, opts Options) error {
	if opts.URL == "" {
		return fmt.Errorf("snapshot: URL is required")
	}
	if opts.OutputPath == "" {
		return fmt.Errorf("snapshot: OutputPath is required")
	}
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()
	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	var png []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
		chromedp.Navigate(opts.URL),
		chromedp.WaitVisible("body", chromedp.ByQuery),
		// Small settle delay for final paints.
		chromedp.Sleep(300 * time.Millisecond),
		chromedp.FullScreenshot(&png, 100),
	}

	if err := chromedp.Run(ctx, tasks); err != nil {
		return fmt.Errorf("snapshot: chromedp run failed: %w", err)
	}
	if err := os.WriteFile(opts.OutputPath, png, 0o644); err != nil {
		return fmt.Errorf("snapshot: write PNG: %w", err)
	}
	return nil
}
