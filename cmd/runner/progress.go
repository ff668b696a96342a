package main

import (
	"io"

	"github.com/cheggaaa/pb/v3"
)

// progressBar renders job progress in the terminal. Each job step starts a
// fresh bar.
type progressBar struct {
	out io.Writer
	bar *pb.ProgressBar
}

func newProgressBar(out io.Writer) *progressBar {
	return &progressBar{out: out}
}

func (p *progressBar) Start(total int) {
	p.Finish()
	p.bar = pb.New(total)
	p.bar.SetWriter(p.out)
	p.bar.Start()
}

func (p *progressBar) Increment() {
	if p.bar != nil {
		p.bar.Increment()
	}
}

func (p *progressBar) Finish() {
	if p.bar != nil {
		p.bar.Finish()
		p.bar = nil
	}
}
