// Package chunker splits long content into fixed-size ordered segments.
// Segments never overlap, so concatenating them in order reproduces the
// input exactly.
package chunker

import "unicode/utf8"

// DefaultSegmentSize is the remote's per-segment text limit, in characters
// (Unicode code points).
const DefaultSegmentSize = 2000

// Processor splits content into segments of at most segmentSize runes.
type Processor struct {
	segmentSize int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithSegmentSize sets the segment size in characters.
func WithSegmentSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.segmentSize = size
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		segmentSize: DefaultSegmentSize,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// SegmentSize returns the configured segment size.
func (p *Processor) SegmentSize() int {
	return p.segmentSize
}

// Split cuts content into ceil(L/size) segments, where L is the rune count.
// Empty content produces no segments. Only the last segment may be shorter.
func (p *Processor) Split(content string) []string {
	if content == "" {
		return nil
	}

	total := utf8.RuneCountInString(content)
	segments := make([]string, 0, (total+p.segmentSize-1)/p.segmentSize)

	start, count := 0, 0
	for i := range content {
		if count == p.segmentSize {
			segments = append(segments, content[start:i])
			start, count = i, 0
		}
		count++
	}
	segments = append(segments, content[start:])

	return segments
}
