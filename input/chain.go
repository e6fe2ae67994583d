package input

// Processor is one stage of the render path. Configure is called whenever
// the stream format changes and returns the format the stage emits. Process
// runs on the render goroutine once per buffer; it must not block and may
// return its input or a buffer it owns. Flush marks a discontinuity such as
// a seek; Reset marks a stop.
type Processor interface {
	Configure(Format) Format
	Process([]byte) []byte
	Flush()
	Reset()
}

// Chain runs processors in order.
type Chain []Processor

// Configure configures every stage with the format emitted by the previous
// one and returns the format of the last stage.
func (c Chain) Configure(f Format) Format {
	for _, p := range c {
		f = p.Configure(f)
	}
	return f
}

// Process hands buf through every stage.
func (c Chain) Process(buf []byte) []byte {
	for _, p := range c {
		buf = p.Process(buf)
	}
	return buf
}

func (c Chain) Flush() {
	for _, p := range c {
		p.Flush()
	}
}

func (c Chain) Reset() {
	for _, p := range c {
		p.Reset()
	}
}
