package pkg

import (
	"io"

	"go.uber.org/multierr"
)

// CombinedWriter duplicates writes to all of its writers. A failing writer
// does not stop the others; its error is combined into the returned one.
type CombinedWriter struct {
	Writers []io.Writer
}

func NewCombinedWriter(writers ...io.Writer) *CombinedWriter {
	return &CombinedWriter{
		Writers: writers,
	}
}

// Write reports len(p) as written when at least one writer accepted the whole
// payload, so callers (logrus) do not treat a single broken sink as a short write.
func (cw *CombinedWriter) Write(p []byte) (int, error) {
	var err error
	okWrites := 0
	for _, w := range cw.Writers {
		written, werr := w.Write(p)
		if werr != nil {
			err = multierr.Append(err, werr)
			continue
		}
		if written == len(p) {
			okWrites++
		}
	}
	if okWrites == 0 {
		if err == nil {
			err = io.ErrShortWrite
		}
		return 0, err
	}
	return len(p), err
}
