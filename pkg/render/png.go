package render

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/chromedp/chromedp"
)

// PNGOption configures PNG conversion.
type PNGOption func(*pngConverter)

type pngConverter struct {
	scale float64
}

// WithScale sets the device scale factor (default 2.0 for 2x resolution).
func WithScale(s float64) PNGOption {
	return func(c *pngConverter) {
		if s > 0 {
			c.scale = s
		}
	}
}

// ToPNG rasterizes an SVG document with a headless browser. The SVG is
// loaded as a data URI so no temp file is written. Requires a Chrome or
// Chromium binary on PATH.
func ToPNG(ctx context.Context, svg []byte, opts ...PNGOption) ([]byte, error) {
	c := pngConverter{scale: 2.0}
	for _, opt := range opts {
		opt(&c)
	}

	dataURI := "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString(svg)

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Headless,
		chromedp.DisableGPU,
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var shot []byte
	tasks := chromedp.Tasks{
		chromedp.Navigate(dataURI),
		chromedp.WaitVisible(`svg`, chromedp.ByQuery),
		chromedp.ScreenshotScale(`svg`, c.scale, &shot, chromedp.ByQuery),
	}
	if err := chromedp.Run(browserCtx, tasks); err != nil {
		return nil, fmt.Errorf("rasterize svg: %w", err)
	}
	if len(shot) == 0 {
		return nil, fmt.Errorf("rasterize svg: empty screenshot")
	}
	return shot, nil
}
