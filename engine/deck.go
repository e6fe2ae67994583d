package engine

import (
	"sync"
	"sync/atomic"

	"github.com/noriah/whisker/input"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Opener starts the source for one playlist item.
type Opener func(item string) (input.Source, error)

type DeckConfig struct {
	Items []string
	Open  Opener
	// Format, when valid, is the only format the sink can play. Items in
	// any other format are skipped.
	Format input.Format
	// OnActive is told whenever playback starts or stops.
	OnActive func(active bool)
}

// Deck is a playlist playing through a graph into a sink. It is the
// transport the fading player drives.
//
// Sources are only opened on the deck's loader goroutine or on the caller's
// goroutine in Load, Next and Previous. While an item plays the loader opens
// the one after it, and the render goroutine swaps that in at the end of the
// current source without waiting on anything.
type Deck struct {
	graph *Graph
	sink  Sink
	cfg   DeckConfig

	mu            sync.Mutex
	index         int
	playWhenReady bool
	finished      bool
	done          chan struct{}

	// opening serializes every open and the hand over that follows it.
	// The render goroutine never takes it.
	opening sync.Mutex

	// gen moves on every Load or seek, so a queued item or an end of source
	// from before it is ignored.
	gen    atomic.Uint64
	queued atomic.Pointer[queuedItem]
	taken  atomic.Pointer[queuedItem]

	// starved is gen+1 when a source ended with nothing queued.
	starved atomic.Uint64

	wake    chan struct{}
	quit    chan struct{}
	stopped chan struct{}
	start   sync.Once
}

type queuedItem struct {
	src   input.Source
	index int
	gen   uint64
}

// NewDeck wires the deck to g, whose end of source advances the playlist.
func NewDeck(g *Graph, sink Sink, cfg DeckConfig) *Deck {
	d := &Deck{
		graph:   g,
		sink:    sink,
		cfg:     cfg,
		index:   -1,
		done:    make(chan struct{}),
		wake:    make(chan struct{}, 1),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
	}

	g.OnEnd = d.advance

	return d
}

// Load queues the first playable item at or after index.
func (d *Deck) Load(index int) error {
	d.opening.Lock()
	defer d.opening.Unlock()

	src, idx, ok := d.openFrom(index, 1)
	if !ok {
		return errors.New("no playable item in the playlist")
	}

	d.jump(src, idx)

	d.start.Do(func() { go d.run() })
	d.signal()

	return nil
}

// openFrom opens the first item from start moving by step. It must be called
// with d.opening held and d.mu free.
func (d *Deck) openFrom(start, step int) (input.Source, int, bool) {
	for idx := start; idx >= 0 && idx < len(d.cfg.Items); idx += step {
		item := d.cfg.Items[idx]

		src, err := d.cfg.Open(item)
		if err != nil {
			log.WithError(err).WithField("item", item).Warn("skipping item")
			continue
		}

		f := src.Format()
		if d.cfg.Format.Valid() && f != d.cfg.Format {
			log.WithFields(logrus.Fields{
				"item":   item,
				"format": f.String(),
				"output": d.cfg.Format.String(),
			}).Warn("skipping item in a format the output cannot play")

			src.Close()
			continue
		}

		log.WithFields(f.Fields()).WithField("index", idx).Debug("opened ", item)

		return src, idx, true
	}

	return nil, -1, false
}

// jump drops whatever was queued and hands src to the graph. It must be
// called with d.opening held.
func (d *Deck) jump(src input.Source, idx int) {
	d.gen.Add(1)
	d.taken.Store(nil)

	if q := d.queued.Swap(nil); q != nil {
		q.src.Close()
	}

	d.commit(src, idx)
}

func (d *Deck) commit(src input.Source, idx int) {
	d.mu.Lock()
	d.index = idx
	d.mu.Unlock()

	log.WithField("index", idx).Info("now playing ", d.cfg.Items[idx])

	d.graph.SetSource(src)
}

// advance runs on the render goroutine when a source ends. It only takes
// an item the loader already opened, and otherwise leaves the graph silent
// until the loader catches up.
func (d *Deck) advance() input.Source {
	gen := d.gen.Load()

	var src input.Source
	if q := d.queued.Load(); q != nil && q.gen == gen && d.queued.CompareAndSwap(q, nil) {
		d.taken.Store(q)
		src = q.src
	}

	if src == nil {
		d.starved.Store(gen + 1)
	}

	d.signal()

	return src
}

func (d *Deck) signal() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// run is the loader goroutine.
func (d *Deck) run() {
	defer close(d.stopped)

	for {
		select {
		case <-d.quit:
			return
		case <-d.wake:
		}

		d.opening.Lock()

		d.handleEnd()
		d.preload()

		d.opening.Unlock()
	}
}

// handleEnd follows up on the sources that ended since it last ran.
func (d *Deck) handleEnd() {
	gen := d.gen.Load()

	d.syncTaken()

	// an end from before the last seek is stale
	if d.starved.Swap(0) != gen+1 {
		return
	}

	// nothing was queued in time
	if q := d.queued.Swap(nil); q != nil {
		d.commit(q.src, q.index)
		return
	}

	src, idx, ok := d.openFrom(d.CurrentIndex()+1, 1)
	if ok {
		d.commit(src, idx)
		return
	}

	d.finish()
}

// syncTaken moves the index to the item the render goroutine last took.
func (d *Deck) syncTaken() {
	t := d.taken.Swap(nil)
	if t == nil || t.gen != d.gen.Load() {
		return
	}

	d.mu.Lock()
	d.index = t.index
	d.mu.Unlock()

	log.WithField("index", t.index).Info("now playing ", d.cfg.Items[t.index])
}

// preload opens the item after the current one unless it is already queued.
func (d *Deck) preload() {
	if d.queued.Load() != nil {
		return
	}

	// with nothing queued the render goroutine cannot take another item
	d.syncTaken()

	d.mu.Lock()
	idx, finished := d.index, d.finished
	d.mu.Unlock()

	if finished {
		return
	}

	src, next, ok := d.openFrom(idx+1, 1)
	if !ok {
		return
	}

	d.queued.Store(&queuedItem{src: src, index: next, gen: d.gen.Load()})
}

func (d *Deck) finish() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.setActive(false)

	if !d.finished {
		d.finished = true
		d.playWhenReady = false
		close(d.done)

		log.Info("playlist finished")
	}
}

// Done is closed when the last item has ended.
func (d *Deck) Done() <-chan struct{} {
	return d.done
}

func (d *Deck) setActive(active bool) {
	if d.cfg.OnActive != nil {
		d.cfg.OnActive(active)
	}
}

func (d *Deck) Play() {
	d.mu.Lock()
	d.playWhenReady = true
	d.setActive(true)
	d.mu.Unlock()

	d.sink.Play()
}

func (d *Deck) Pause() {
	d.mu.Lock()
	d.playWhenReady = false
	d.setActive(false)
	d.mu.Unlock()

	d.sink.Pause()
}

func (d *Deck) IsPlaying() bool {
	return d.sink.IsPlaying()
}

func (d *Deck) PlayWhenReady() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.playWhenReady
}

func (d *Deck) Volume() float64 {
	return d.sink.Volume()
}

func (d *Deck) SetVolume(v float64) {
	d.sink.SetVolume(v)
}

// Next moves to the next playable item. It stays put at the end of the
// playlist.
func (d *Deck) Next() {
	d.seek(1)
}

// Previous moves to the previous playable item. It stays put at the start of
// the playlist.
func (d *Deck) Previous() {
	d.seek(-1)
}

func (d *Deck) seek(step int) {
	d.opening.Lock()
	defer d.opening.Unlock()

	cur := d.CurrentIndex()

	src, idx, ok := d.openFrom(cur+step, step)
	if !ok {
		log.WithField("index", cur).Debug("no item to move to")
		return
	}

	d.jump(src, idx)
	d.signal()
}

func (d *Deck) CurrentIndex() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.index
}

// Len returns the number of playlist items.
func (d *Deck) Len() int {
	return len(d.cfg.Items)
}

// Close stops the loader and the sink and releases the sources.
func (d *Deck) Close() error {
	close(d.quit)

	started := true
	d.start.Do(func() { started = false })
	if started {
		<-d.stopped
	}

	if q := d.queued.Swap(nil); q != nil {
		q.src.Close()
	}

	err := d.sink.Close()
	d.graph.Close()
	return err
}
