package main

import (
	"os"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// barProgress renders semantic build progress on stderr.
type barProgress struct {
	desc string
	bar  *progressbar.ProgressBar
}

// newProgress returns a progress reporter, or nil when progress is disabled
// or stderr is not a terminal.
func newProgress(enabled bool, desc string) *barProgress {
	if !enabled || !term.IsTerminal(int(os.Stderr.Fd())) {
		return nil
	}
	return &barProgress{desc: desc}
}

// OnProgress implements semantic.ProgressReporter.
func (p *barProgress) OnProgress(current, total int) {
	if p == nil || total <= 0 {
		return
	}
	if p.bar == nil {
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription(p.desc),
			progressbar.OptionSetWidth(32),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "=",
				SaucerHead:    ">",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
	}
	_ = p.bar.Set(current)
}

// Finish clears the bar.
func (p *barProgress) Finish() {
	if p == nil || p.bar == nil {
		return
	}
	_ = p.bar.Finish()
}
