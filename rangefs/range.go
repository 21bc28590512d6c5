package rangefs

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// errMalformedRange is returned when a Range or Content-Range value cannot be parsed.
var errMalformedRange = errors.New("rangefs: malformed range")

// rangeWindow returns the half-open window [start, end) covered by a read of
// n bytes at pos. The window is clamped to size; ok is false when the read
// covers no bytes (n == 0 or pos at or past the end).
func rangeWindow(pos uint64, n int, size uint64) (start, end uint64, ok bool) {
	if n <= 0 || pos >= size {
		return pos, pos, false
	}
	end = size
	if remaining := size - pos; uint64(n) < remaining {
		end = pos + uint64(n)
	}
	return pos, end, true
}

// RangeHeader formats the half-open window [start, end) as an HTTP Range
// header value. HTTP ranges are inclusive, so the last byte is end-1.
// The caller guarantees start < end.
func RangeHeader(start, end uint64) string {
	return fmt.Sprintf("bytes=%d-%d", start, end-1)
}

// ParseRangeHeader parses a single "bytes=first-last" range into the
// half-open window [first, last+1).
func ParseRangeHeader(header string) (start, end uint64, err error) {
	byteRange, ok := strings.CutPrefix(header, "bytes=")
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", errMalformedRange, header)
	}
	firstStr, lastStr, ok := strings.Cut(byteRange, "-")
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", errMalformedRange, header)
	}
	first, err := strconv.ParseUint(firstStr, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", errMalformedRange, header)
	}
	last, err := strconv.ParseUint(lastStr, 10, 64)
	if err != nil || last < first {
		return 0, 0, fmt.Errorf("%w: %q", errMalformedRange, header)
	}
	return first, last + 1, nil
}

// ParseContentRange extracts the total object size from a Content-Range
// value such as "bytes 0-3/10". An unknown total ("*") yields 0.
func ParseContentRange(value string) (uint64, error) {
	_, total, ok := strings.Cut(value, "/")
	if !ok {
		return 0, fmt.Errorf("%w: %q", errMalformedRange, value)
	}
	if total == "*" {
		return 0, nil
	}
	size, err := strconv.ParseUint(strings.TrimSpace(total), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", errMalformedRange, value)
	}
	return size, nil
}
