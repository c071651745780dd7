package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

type Progress struct {
	total   int
	current int
	out     io.Writer
	mu      sync.Mutex
}

func NewProgress(total int) *Progress {
	return &Progress{total: total, out: os.Stdout}
}

func (p *Progress) Set(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = min(n, p.total)
	p.draw()
}

func (p *Progress) draw() {
	width := 30
	percent := 1.0
	if p.total > 0 {
		percent = float64(p.current) / float64(p.total)
	}
	filled := int(float64(width) * percent)

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	// \r kembali ke awal baris
	fmt.Fprintf(p.out, "\r [FORGING] [%s] %d%% (%d/%d tracks)", bar, int(percent*100), p.current, p.total)
	if p.current == p.total {
		fmt.Fprintln(p.out)
	}
}
