package rangefs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/rs/zerolog"
)

// File is a read-only, seekable view of a remote object.
//
// The position lives entirely in the File: Seek only moves it, and each Read
// issues one range fetch for exactly the bytes it returns. File is not safe
// for concurrent use; callers sharing one File must serialize calls. Files
// opened from the same Handle share no state.
type File struct {
	ctx       context.Context
	transport Transport
	log       zerolog.Logger

	container string
	key       string
	size      uint64
	pos       uint64
}

// Compile-time interface checks.
var (
	_ io.ReadSeekCloser = (*File)(nil)
	_ io.ReaderAt       = (*File)(nil)
)

// Name returns "container/key".
func (f *File) Name() string {
	return f.container + "/" + f.key
}

// Size returns the object size captured by the handle.
func (f *File) Size() uint64 {
	return f.size
}

// Position returns the offset of the next Read.
func (f *File) Position() uint64 {
	return f.pos
}

// Read reads up to len(p) bytes at the current position and advances the
// position by the number of bytes returned.
//
// At the end of the object Read returns 0, io.EOF without contacting the
// store. A failed fetch returns an error matching ErrFetch. A body that
// ends early returns the bytes it carried; an empty or broken body returns
// an error matching ErrStream. The position is unchanged on error.
func (f *File) Read(p []byte) (int, error) {
	start, end, ok := rangeWindow(f.pos, len(p), f.size)
	if !ok {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}

	n, err := f.fetch(f.ctx, "read", p, start, end)
	if err != nil {
		return 0, err
	}
	f.pos += uint64(n)
	return n, nil
}

// ReadAt reads len(p) bytes starting at off without moving the position.
// It issues a single range fetch; when fewer than len(p) bytes remain it
// returns the available bytes and io.EOF.
func (f *File) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, newError("readat", ErrOutOfBounds, f.container, f.key, fmt.Errorf("negative offset %d", off))
	}

	start, end, ok := rangeWindow(uint64(off), len(p), f.size)
	if !ok {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}

	n, err := f.fetch(f.ctx, "readat", p, start, end)
	if err != nil {
		return 0, err
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Seek sets the position for the next Read. It performs no I/O.
//
// All three anchors are supported; io.SeekEnd resolves against the captured
// size. Targets that resolve below 0 or above the size fail with
// ErrOutOfBounds and leave the position unchanged.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = int64(f.pos)
	case io.SeekEnd:
		base = int64(f.size)
	default:
		return 0, newError("seek", ErrUnsupportedSeek, f.container, f.key, fmt.Errorf("whence %d", whence))
	}

	if offset > 0 && base > math.MaxInt64-offset {
		return 0, newError("seek", ErrOutOfBounds, f.container, f.key, fmt.Errorf("offset %d overflows", offset))
	}
	target := base + offset
	if target < 0 || uint64(target) > f.size {
		return 0, newError("seek", ErrOutOfBounds, f.container, f.key,
			fmt.Errorf("target %d outside [0, %d]", target, f.size))
	}

	f.pos = uint64(target)
	return target, nil
}

// Close implements io.Closer. A File holds no connection, so Close only
// exists for interface compatibility and may be called repeatedly.
func (f *File) Close() error {
	return nil
}

// fetch fills p[:end-start] from one range request.
func (f *File) fetch(ctx context.Context, op string, p []byte, start, end uint64) (int, error) {
	f.log.Debug().
		Str("container", f.container).
		Str("key", f.key).
		Uint64("start", start).
		Uint64("end", end).
		Msg("range fetch")

	body, total, err := f.transport.FetchRange(ctx, f.container, f.key, start, end)
	if err != nil {
		return 0, newError(op, ErrFetch, f.container, f.key, err)
	}
	defer closer(body)()

	if total != 0 && total != f.size {
		// Stale handles are reported, not corrected.
		f.log.Debug().
			Str("container", f.container).
			Str("key", f.key).
			Uint64("captured_size", f.size).
			Uint64("remote_size", total).
			Msg("object size changed since enumeration")
	}

	n, err := io.ReadFull(body, p[:end-start])
	switch {
	case err == nil:
		return n, nil
	case errors.Is(err, io.ErrUnexpectedEOF):
		// The object shrank under a stale handle; keep what arrived.
		f.log.Debug().
			Str("container", f.container).
			Str("key", f.key).
			Int("want", int(end-start)).
			Int("got", n).
			Msg("short range body")
		return n, nil
	default:
		return 0, newError(op, ErrStream, f.container, f.key, err)
	}
}
