package rangefs

import (
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Compressor wraps handle lists and scanned objects with a compression format.
type Compressor interface {
	// Name returns the compressor identifier ("gzip", "zstd" or "noop").
	Name() string

	// Extension returns the file extension (".gz", ".zst" or "").
	Extension() string

	// Compress wraps a writer with compression.
	Compress(w io.Writer) (io.WriteCloser, error)

	// Decompress wraps a reader with decompression.
	Decompress(r io.Reader) (io.ReadCloser, error)
}

// format is a Compressor described by its stream constructors.
type format struct {
	name      string
	aliases   []string
	extension string
	writer    func(io.Writer) (io.WriteCloser, error)
	reader    func(io.Reader) (io.ReadCloser, error)
}

func (f *format) Name() string      { return f.name }
func (f *format) Extension() string { return f.extension }

func (f *format) Compress(w io.Writer) (io.WriteCloser, error) { return f.writer(w) }

func (f *format) Decompress(r io.Reader) (io.ReadCloser, error) { return f.reader(r) }

var (
	gzipFormat = &format{
		name:      "gzip",
		extension: ".gz",
		writer: func(w io.Writer) (io.WriteCloser, error) {
			return gzip.NewWriter(w), nil
		},
		reader: func(r io.Reader) (io.ReadCloser, error) {
			return gzip.NewReader(r)
		},
	}

	zstdFormat = &format{
		name:      "zstd",
		extension: ".zst",
		writer: func(w io.Writer) (io.WriteCloser, error) {
			return zstd.NewWriter(w)
		},
		// One decoder goroutine: the source is usually a File, and reads
		// stay on the caller's goroutine in request order.
		reader: func(r io.Reader) (io.ReadCloser, error) {
			dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
			if err != nil {
				return nil, err
			}
			return dec.IOReadCloser(), nil
		},
	}

	noopFormat = &format{
		name:    "noop",
		aliases: []string{"none", ""},
		writer: func(w io.Writer) (io.WriteCloser, error) {
			return nopWriteCloser{w}, nil
		},
		reader: func(r io.Reader) (io.ReadCloser, error) {
			return io.NopCloser(r), nil
		},
	}

	// formats is ordered for extension matching; noop matches everything.
	formats = []*format{gzipFormat, zstdFormat, noopFormat}
)

// NewGzipCompressor returns the gzip compressor.
func NewGzipCompressor() Compressor { return gzipFormat }

// NewZstdCompressor returns the Zstandard compressor.
func NewZstdCompressor() Compressor { return zstdFormat }

// NewNoOpCompressor returns a compressor that passes data through unchanged.
func NewNoOpCompressor() Compressor { return noopFormat }

// CompressorFor returns the compressor registered under name.
// The empty name and "none" select the noop compressor.
func CompressorFor(name string) (Compressor, error) {
	for _, f := range formats {
		if f.name == name {
			return f, nil
		}
		for _, alias := range f.aliases {
			if alias == name {
				return f, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: compressor %q", ErrUnknownCodec, name)
}

// CompressorForKey picks a compressor from an object key's extension.
// Keys without a recognised extension get the noop compressor.
func CompressorForKey(key string) Compressor {
	for _, f := range formats {
		if strings.HasSuffix(key, f.extension) {
			return f
		}
	}
	return noopFormat
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
