package rangefs

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
	"github.com/parquet-go/parquet-go"
)

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

const maxScanTokenSize = 1024 * 1024 // 1MB, far above any single handle line

// Codec serializes handle lists for persistence or transmission.
type Codec interface {
	// Name returns the codec identifier ("jsonl" or "parquet").
	Name() string

	// Extension returns the file extension, including the dot.
	Extension() string

	// Encode writes handles to w.
	Encode(w io.Writer, handles []Handle) error

	// Decode reads handles from r.
	Decode(r io.Reader) ([]Handle, error)
}

// CodecFor returns the codec registered under name.
func CodecFor(name string) (Codec, error) {
	switch name {
	case "jsonl", "":
		return NewJSONLCodec(), nil
	case "parquet":
		return NewParquetCodec(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
}

// -----------------------------------------------------------------------------
// JSONL Codec
// -----------------------------------------------------------------------------

type jsonlCodec struct{}

// NewJSONLCodec creates a JSON Lines codec: one handle object per line.
func NewJSONLCodec() Codec {
	return &jsonlCodec{}
}

func (j *jsonlCodec) Name() string {
	return "jsonl"
}

func (j *jsonlCodec) Extension() string {
	return ".jsonl"
}

func (j *jsonlCodec) Encode(w io.Writer, handles []Handle) error {
	enc := jsonCodec.NewEncoder(w)
	for _, h := range handles {
		if err := enc.Encode(h); err != nil {
			return err
		}
	}
	return nil
}

func (j *jsonlCodec) Decode(r io.Reader) ([]Handle, error) {
	var handles []Handle
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxScanTokenSize)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var h Handle
		if err := jsonCodec.Unmarshal(line, &h); err != nil {
			return nil, err
		}
		handles = append(handles, h)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return handles, nil
}

// -----------------------------------------------------------------------------
// Parquet Codec
// -----------------------------------------------------------------------------

type parquetCodec struct{}

// NewParquetCodec creates a Parquet codec with one row per handle.
//
// Parquet files carry a trailing footer, so Decode buffers its whole input
// before reading rows.
func NewParquetCodec() Codec {
	return &parquetCodec{}
}

func (c *parquetCodec) Name() string {
	return "parquet"
}

func (c *parquetCodec) Extension() string {
	return ".parquet"
}

func (c *parquetCodec) Encode(w io.Writer, handles []Handle) error {
	writer := parquet.NewGenericWriter[Handle](w)
	if _, err := writer.Write(handles); err != nil {
		_ = writer.Close()
		return fmt.Errorf("parquet: write rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("parquet: close writer: %w", err)
	}
	return nil
}

func (c *parquetCodec) Decode(r io.Reader) ([]Handle, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	handles, err := parquet.Read[Handle](bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parquet: read rows: %w", err)
	}
	return handles, nil
}

// -----------------------------------------------------------------------------
// Handle persistence
// -----------------------------------------------------------------------------

// WriteHandles encodes handles with codec and compresses the output with comp.
func WriteHandles(w io.Writer, handles []Handle, codec Codec, comp Compressor) error {
	cw, err := comp.Compress(w)
	if err != nil {
		return fmt.Errorf("rangefs: %s compressor: %w", comp.Name(), err)
	}
	if err := codec.Encode(cw, handles); err != nil {
		_ = cw.Close()
		return fmt.Errorf("rangefs: %s encode: %w", codec.Name(), err)
	}
	if err := cw.Close(); err != nil {
		return fmt.Errorf("rangefs: %s compressor: %w", comp.Name(), err)
	}
	return nil
}

// ReadHandles reverses WriteHandles.
func ReadHandles(r io.Reader, codec Codec, comp Compressor) ([]Handle, error) {
	rc, err := comp.Decompress(r)
	if err != nil {
		return nil, fmt.Errorf("rangefs: %s decompressor: %w", comp.Name(), err)
	}
	defer closer(rc)()

	handles, err := codec.Decode(rc)
	if err != nil {
		return nil, fmt.Errorf("rangefs: %s decode: %w", codec.Name(), err)
	}
	return handles, nil
}
