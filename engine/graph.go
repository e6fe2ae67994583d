// Package engine plays sources through the render chain into an audio sink
// and keeps the playlist.
package engine

import (
	"io"
	"sync/atomic"

	"github.com/noriah/whisker/input"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "engine")

type pending struct {
	src input.Source
}

// Graph is the render path: it pulls PCM from the current source, runs it
// through the chain and hands it to the sink that reads it. Read is called
// from the sink goroutine only; the other methods are safe from any
// goroutine.
type Graph struct {
	chain input.Chain

	// OnEnd is called on the render goroutine when the current source is
	// exhausted. It returns the source to continue with, or nil for silence
	// until the next SetSource. It must not block. Set it before the first
	// Read.
	OnEnd func() input.Source

	next   atomic.Pointer[pending]
	flush  atomic.Bool
	reset  atomic.Bool
	format atomic.Pointer[input.Format]

	// render state
	src input.Source
	fb  int
}

func NewGraph(chain input.Chain) *Graph {
	g := &Graph{chain: chain}
	g.format.Store(&input.Format{})
	return g
}

// SetSource queues src to replace the current source at the next read. A
// source queued earlier and not yet picked up is closed.
func (g *Graph) SetSource(src input.Source) {
	if old := g.next.Swap(&pending{src: src}); old != nil && old.src != nil {
		old.src.Close()
	}
}

// Flush marks a discontinuity for the chain at the next read.
func (g *Graph) Flush() {
	g.flush.Store(true)
}

// Stop drops the current source and resets the chain at the next read.
func (g *Graph) Stop() {
	g.SetSource(nil)
	g.reset.Store(true)
}

// Format returns the format of the current source.
func (g *Graph) Format() input.Format {
	return *g.format.Load()
}

func (g *Graph) Read(p []byte) (int, error) {
	if next := g.next.Swap(nil); next != nil {
		g.switchTo(next.src)
	}

	if g.reset.Swap(false) {
		g.chain.Reset()
	}

	if g.flush.Swap(false) {
		g.chain.Flush()
	}

	filled := 0

	// a source that ends mid buffer hands over to the next one
	for g.src != nil && filled < len(p) {
		want := len(p) - filled
		want -= want % g.fb
		if want == 0 {
			break
		}

		n, err := io.ReadFull(g.src, p[filled:filled+want])
		n -= n % g.fb

		if n > 0 {
			buf := p[filled : filled+n]
			if out := g.chain.Process(buf); &out[0] != &buf[0] {
				copy(buf, out)
			}
			filled += n
		}

		if err != nil {
			g.end(err)
		}
	}

	clear(p[filled:])

	return len(p), nil
}

func (g *Graph) switchTo(src input.Source) {
	if g.src != nil {
		g.src.Close()
	}

	g.src = src

	if src == nil {
		f := input.Format{}
		g.format.Store(&f)
		return
	}

	f := src.Format()
	g.fb = f.FrameBytes()
	if g.fb == 0 {
		log.WithFields(f.Fields()).Warn("source has no usable format, skipping")
		g.end(errors.New("bad format"))
		return
	}

	g.chain.Flush()
	g.chain.Configure(f)
	g.format.Store(&f)
}

func (g *Graph) end(err error) {
	if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		log.WithError(err).Warn("source failed")
	}

	var next input.Source
	if g.OnEnd != nil {
		next = g.OnEnd()
	}

	g.switchTo(next)
}

// Close closes the current and queued sources. The sink must be stopped.
func (g *Graph) Close() error {
	if next := g.next.Swap(nil); next != nil && next.src != nil {
		next.src.Close()
	}

	if g.src != nil {
		g.src.Close()
		g.src = nil
	}

	g.chain.Reset()

	return nil
}
