// Minimal server-sent-events reader for the responses protocol.
//
// Deliberately pull-driven: next reads exactly one data payload per
// call, so the connection is never read ahead of the consumer.

package llm

import (
	"bufio"
	"bytes"
	"io"
)

var (
	ssePrefix = []byte("data: ")
	sseDone   = []byte("[DONE]")
)

type sseReader struct {
	scanner *bufio.Scanner
}

func newSSEReader(r io.Reader) *sseReader {
	scanner := bufio.NewScanner(r)
	// Argument deltas can carry large JSON fragments in one line.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &sseReader{scanner: scanner}
}

// next returns the next data payload, or io.EOF at end of stream. Event
// name lines, comments, and blank keep-alives are skipped; the payload
// is copied out of the scanner's buffer.
func (r *sseReader) next() ([]byte, error) {
	for r.scanner.Scan() {
		line := r.scanner.Bytes()
		if len(line) == 0 || line[0] == ':' {
			continue
		}
		if !bytes.HasPrefix(line, ssePrefix) {
			continue
		}
		data := bytes.TrimPrefix(line, ssePrefix)
		if bytes.Equal(data, sseDone) {
			return nil, io.EOF
		}
		return append([]byte(nil), data...), nil
	}
	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}
