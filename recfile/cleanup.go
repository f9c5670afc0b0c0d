package recfile

import "io"

// closer returns a function that closes c, discarding the error.
// Use with defer on read-only handles.
func closer(c io.Closer) func() {
	return func() { _ = c.Close() }
}
