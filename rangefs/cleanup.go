package rangefs

import "io"

// closer returns a function that closes c, discarding the error.
// Use with defer for response bodies, where a close error carries no
// information the read has not already surfaced.
func closer(c io.Closer) func() {
	return func() { _ = c.Close() }
}
