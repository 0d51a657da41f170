package document

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

const (
	// DefaultBatchSize is the number of chunks collected before a flush.
	DefaultBatchSize = 250

	// DefaultMaxChunkBytes bounds a single line or delimited chunk.
	DefaultMaxChunkBytes = 16 * 1024 * 1024

	// DefaultFlushWorkers bounds concurrent flushes per document.
	DefaultFlushWorkers = 2

	// sniffLen is how much of the file is checked for NUL bytes.
	sniffLen = 512
)

var (
	// ErrNonUTF8 reports content that is not valid UTF-8 text.
	ErrNonUTF8 = errors.New("content is not valid UTF-8 text")

	// ErrEmptyDelimiter rejects delimiter patterns that match the empty string.
	ErrEmptyDelimiter = errors.New("delimiter pattern matches the empty string")
)

// WordFunc receives one distinct word of a batch together with its document.
// It may be called from several goroutines at once.
type WordFunc func(word, doc string)

// Options configures a Processor.
type Options struct {
	// Delimiter separates chunks. Nil means one chunk per line.
	Delimiter *regexp.Regexp

	// Tokenizer splits a chunk into words. Nil means DefaultTokenizer when
	// Delimiter is nil, and "the whole chunk is one word" otherwise.
	Tokenizer Tokenizer

	// BatchSize is the number of chunks per flush.
	BatchSize int

	// MaxChunkBytes bounds a single chunk. Longer chunks are skipped and
	// counted; the rest of the document is still read.
	MaxChunkBytes int

	// FlushWorkers bounds concurrent flushes per document.
	FlushWorkers int
}

// DefaultOptions returns line chunking with the default tokenizer.
func DefaultOptions() Options {
	return Options{
		BatchSize:     DefaultBatchSize,
		MaxChunkBytes: DefaultMaxChunkBytes,
		FlushWorkers:  DefaultFlushWorkers,
	}
}

// WithDefaults fills zero numeric fields from DefaultOptions.
func (o Options) WithDefaults() Options {
	d := DefaultOptions()
	if o.BatchSize <= 0 {
		o.BatchSize = d.BatchSize
	}
	if o.MaxChunkBytes <= 0 {
		o.MaxChunkBytes = d.MaxChunkBytes
	}
	if o.FlushWorkers <= 0 {
		o.FlushWorkers = d.FlushWorkers
	}
	return o
}

// Processor extracts words from documents. It is safe for concurrent use.
type Processor struct {
	opts     Options
	split    bufio.SplitFunc
	tokenize Tokenizer
}

// NewProcessor validates opts and builds a Processor.
func NewProcessor(opts Options) (*Processor, error) {
	opts = opts.WithDefaults()

	p := &Processor{opts: opts, split: bufio.ScanLines, tokenize: opts.Tokenizer}
	if opts.Delimiter != nil {
		if opts.Delimiter.MatchString("") {
			return nil, fmt.Errorf("%w: %q", ErrEmptyDelimiter, opts.Delimiter.String())
		}
		p.split = delimiterSplit(opts.Delimiter)
		if p.tokenize == nil {
			p.tokenize = wholeChunk
		}
	} else if p.tokenize == nil {
		p.tokenize = DefaultTokenizer
	}

	return p, nil
}

// ExtractWords streams doc and calls fn once per distinct word of each
// batch. All calls to fn have returned when ExtractWords returns. It also
// returns how many chunks were skipped for exceeding MaxChunkBytes.
//
// Invalid UTF-8 or NUL bytes near the start of the file yield an error
// matching ErrNonUTF8. Other read failures are returned as they are.
func (p *Processor) ExtractWords(ctx context.Context, doc string, fn WordFunc) (int, error) {
	f, err := os.Open(doc)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	head, err := br.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return 0, err
	}
	if bytes.IndexByte(head, 0) >= 0 {
		return 0, fmt.Errorf("%s: binary content: %w", doc, ErrNonUTF8)
	}

	split := &boundedSplit{split: p.split, max: p.opts.MaxChunkBytes}
	scanner := bufio.NewScanner(transform.NewReader(br, encoding.UTF8Validator))
	scanner.Buffer(make([]byte, 0, min(64*1024, p.opts.MaxChunkBytes)), p.opts.MaxChunkBytes)
	scanner.Split(split.next)

	var g errgroup.Group
	g.SetLimit(p.opts.FlushWorkers)

	batch := make([]string, 0, p.opts.BatchSize)
	flush := func(chunks []string) {
		g.Go(func() error {
			for word := range p.distinctWords(chunks) {
				fn(word, doc)
			}
			return nil
		})
	}

	var readErr error
	for scanner.Scan() {
		batch = append(batch, scanner.Text())
		if len(batch) < p.opts.BatchSize {
			continue
		}
		flush(batch)
		batch = make([]string, 0, p.opts.BatchSize)

		if err := ctx.Err(); err != nil {
			readErr = err
			break
		}
	}
	if readErr == nil {
		readErr = scanner.Err()
	}
	if readErr == nil && len(batch) > 0 {
		flush(batch)
	}

	_ = g.Wait()
	return split.skipped, classify(doc, readErr)
}

// distinctWords tokenizes chunks and deduplicates the result.
func (p *Processor) distinctWords(chunks []string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, chunk := range chunks {
		for _, w := range p.tokenize(chunk) {
			if w != "" {
				words[w] = struct{}{}
			}
		}
	}
	return words
}

func classify(doc string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, encoding.ErrInvalidUTF8):
		return fmt.Errorf("%s: %w", doc, ErrNonUTF8)
	default:
		return err
	}
}

// boundedSplit wraps a split function so that a chunk filling the whole
// scanner buffer is discarded up to its end instead of failing the scan.
type boundedSplit struct {
	split    bufio.SplitFunc
	max      int
	skipping bool
	skipped  int
}

func (b *boundedSplit) next(data []byte, atEOF bool) (int, []byte, error) {
	advance, token, err := b.split(data, atEOF)
	if err != nil {
		return advance, token, err
	}
	if advance > 0 || token != nil {
		if b.skipping {
			// Tail of the oversized chunk.
			b.skipping = false
			return advance, nil, nil
		}
		return advance, token, nil
	}
	if !atEOF && len(data) >= b.max {
		if !b.skipping {
			b.skipping = true
			b.skipped++
		}
		return len(data), nil, nil
	}
	return 0, nil, nil
}

func wholeChunk(chunk string) []string {
	return []string{chunk}
}

// delimiterSplit returns a bufio.SplitFunc yielding the text between
// matches of re. A match touching the end of the buffer is only trusted at
// EOF, since more input could extend it.
func delimiterSplit(re *regexp.Regexp) bufio.SplitFunc {
	return func(data []byte, atEOF bool) (int, []byte, error) {
		if atEOF && len(data) == 0 {
			return 0, nil, nil
		}
		if loc := re.FindIndex(data); loc != nil && (loc[1] < len(data) || atEOF) {
			return loc[1], data[:loc[0]], nil
		}
		if atEOF {
			return len(data), data, nil
		}
		return 0, nil, nil
	}
}
