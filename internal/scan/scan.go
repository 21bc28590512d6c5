// Package scan reads remote objects end to end through rangefs Files.
//
// Each object is read sequentially with a fixed buffer, so every Read is one
// range request of at most the buffer size. The scanner digests the content
// with xxhash and reports how many bytes and requests the read took.
package scan

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/justapithecus/rangefs/rangefs"
)

// DefaultBufferSize is the read size used when none is configured.
const DefaultBufferSize = 1 << 20

// Result describes one scanned object.
type Result struct {
	Handle rangefs.Handle `json:"handle"`

	// Bytes is the number of bytes read from the store.
	Bytes uint64 `json:"bytes"`

	// Decoded is the number of bytes hashed, after optional decompression.
	Decoded uint64 `json:"decoded"`

	// Reads counts the Read calls that returned data, one range request each.
	Reads int `json:"reads"`

	// Digest is the xxhash64 of the hashed bytes.
	Digest uint64 `json:"digest"`

	Elapsed time.Duration `json:"elapsed"`
	Err     error         `json:"-"`
}

// Report aggregates a ScanAll run.
type Report struct {
	RunID    string        `json:"run_id"`
	Results  []Result      `json:"results"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
}

// TotalBytes sums bytes read across successful results.
func (r *Report) TotalBytes() uint64 {
	var n uint64
	for _, res := range r.Results {
		if res.Err == nil {
			n += res.Bytes
		}
	}
	return n
}

// Failed returns the results that ended in error.
func (r *Report) Failed() []Result {
	var failed []Result
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithBufferSize sets the per-Read buffer size.
func WithBufferSize(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.bufferSize = n
		}
	}
}

// WithDecompression inflates objects whose keys end in .gz or .zst.
func WithDecompression(enabled bool) Option {
	return func(s *Scanner) {
		s.decompress = enabled
	}
}

// WithLogger sets the scanner logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Scanner) {
		s.log = l
	}
}

// Scanner reads objects through a transport.
type Scanner struct {
	transport  rangefs.Transport
	bufferSize int
	decompress bool
	log        zerolog.Logger
}

// New creates a Scanner over t.
func New(t rangefs.Transport, opts ...Option) (*Scanner, error) {
	if t == nil {
		return nil, errors.New("scan: transport is required")
	}
	s := &Scanner{
		transport:  t,
		bufferSize: DefaultBufferSize,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Scan reads h to the end.
func (s *Scanner) Scan(ctx context.Context, h rangefs.Handle) (res Result, err error) {
	res.Handle = h
	start := time.Now()
	defer func() { res.Elapsed = time.Since(start) }()

	f, err := h.Open(ctx, s.transport, rangefs.WithFileLogger(s.log))
	if err != nil {
		res.Err = err
		return res, err
	}
	defer func() { _ = f.Close() }()

	counted := &countingReader{r: f}
	var src io.Reader = counted

	if s.decompress {
		// Decompressors issue reads of their own sizing. Every range
		// request stays at the buffer size: bufio batches small reads and
		// cappedReader splits large ones.
		comp := rangefs.CompressorForKey(h.Key)
		in := bufio.NewReaderSize(cappedReader{r: counted, limit: s.bufferSize}, s.bufferSize)
		rc, err := comp.Decompress(in)
		if err != nil {
			res.Err = fmt.Errorf("scan: %s decompress %s: %w", comp.Name(), h, err)
			return res, res.Err
		}
		defer func() { _ = rc.Close() }()
		src = rc
	}

	digest := xxhash.New()
	buf := make([]byte, s.bufferSize)
	decoded, err := io.CopyBuffer(digest, onlyReader{src}, buf)

	res.Bytes = counted.bytes
	res.Reads = counted.reads
	res.Decoded = uint64(decoded)
	res.Digest = digest.Sum64()
	if err != nil {
		res.Err = fmt.Errorf("scan: read %s: %w", h, err)
		return res, res.Err
	}
	return res, nil
}

// ScanAll scans handles with at most concurrency objects in flight. Each
// object gets its own File. Per-object failures are recorded in the report
// and do not stop the run; only context cancellation does.
func (s *Scanner) ScanAll(ctx context.Context, handles []rangefs.Handle, concurrency int) (*Report, error) {
	report := &Report{
		RunID:   uuid.NewString(),
		Results: make([]Result, len(handles)),
		Started: time.Now(),
	}
	log := s.log.With().Str("run_id", report.RunID).Logger()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))

	for i, h := range handles {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				report.Results[i] = Result{Handle: h, Err: err}
				return err
			}
			res, err := s.Scan(gctx, h)
			report.Results[i] = res
			if err != nil {
				log.Warn().Err(err).Str("object", h.String()).Msg("scan failed")
				return nil
			}
			log.Debug().
				Str("object", h.String()).
				Uint64("bytes", res.Bytes).
				Int("reads", res.Reads).
				Msg("object scanned")
			return nil
		})
	}

	err := g.Wait()
	report.Duration = time.Since(report.Started)
	log.Info().
		Int("objects", len(handles)).
		Int("failed", len(report.Failed())).
		Uint64("bytes", report.TotalBytes()).
		Dur("duration", report.Duration).
		Msg("scan complete")
	if err != nil {
		return report, fmt.Errorf("scan: %w", err)
	}
	return report, nil
}

// countingReader counts bytes and data-bearing Read calls.
type countingReader struct {
	r     io.Reader
	bytes uint64
	reads int
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.bytes += uint64(n)
		c.reads++
	}
	return n, err
}

// cappedReader bounds every Read to limit bytes.
type cappedReader struct {
	r     io.Reader
	limit int
}

func (c cappedReader) Read(p []byte) (int, error) {
	if len(p) > c.limit {
		p = p[:c.limit]
	}
	return c.r.Read(p)
}

// onlyReader hides WriterTo implementations so CopyBuffer uses our buffer.
type onlyReader struct {
	io.Reader
}
