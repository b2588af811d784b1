// Package progress wraps the progress bar used for multi-file store
// operations. All methods are no-ops when disabled, so callers never
// need to branch on visibility.
package progress

import (
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
)

const updateInterval = 50 * time.Millisecond

// Bar displays operation progress on stderr.
type Bar struct {
	bar *progressbar.ProgressBar
}

// New creates a progress bar over total steps. If enabled=false, all
// methods are no-ops. Use total=-1 for spinner mode.
func New(enabled bool, total int64) *Bar {
	if !enabled {
		return &Bar{}
	}

	opts := []progressbar.Option{
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionThrottle(updateInterval),
		progressbar.OptionClearOnFinish(),
	}

	if total < 0 {
		opts = append(opts,
			progressbar.OptionSpinnerType(14),
			progressbar.OptionSetElapsedTime(false),
		)
		return &Bar{bar: progressbar.NewOptions(-1, opts...)}
	}

	opts = append(opts, progressbar.OptionSetWidth(40))
	return &Bar{bar: progressbar.NewOptions64(total, opts...)}
}

// Describe updates the text shown next to the bar.
func (b *Bar) Describe(desc string) {
	if b.bar != nil {
		b.bar.Describe(desc)
	}
}

// Add advances the bar by n steps.
func (b *Bar) Add(n int) {
	if b.bar != nil {
		_ = b.bar.Add(n)
	}
}

// Finish completes and clears the bar.
func (b *Bar) Finish() {
	if b.bar != nil {
		_ = b.bar.Finish()
	}
}
