// Pull-driven stream cursor over normalized events.
//
// A Stream couples the transport and the protocol interpreter through
// strict pull iteration: the transport is read only when the consumer
// asks for the next event, so it never runs ahead of consumption. One
// Stream serves exactly one call and is not reused.

package llm

import (
	"errors"
	"io"
)

// Stream is a lazy sequence of normalized events. Iterate with Next and
// Current in the usual cursor style:
//
//	for stream.Next() {
//	    ev := stream.Current()
//	    ...
//	}
//	if err := stream.Err(); err != nil { ... }
//
// Abandoning the stream early requires Close, which tears down the
// underlying connection.
type Stream struct {
	// pull reads the transport far enough to produce the next batch of
	// normalized events. It returns io.EOF after the stream is finished
	// and its finalization events have been delivered. An empty batch
	// with a nil error means "nothing to emit for that unit, keep going".
	pull    func() ([]StreamEvent, error)
	release func() error

	queue   []StreamEvent
	current StreamEvent
	err     error
	done    bool
}

func newStream(pull func() ([]StreamEvent, error), release func() error) *Stream {
	return &Stream{pull: pull, release: release}
}

// Next advances the cursor. It returns false at end of stream or on
// error; Err distinguishes the two.
func (s *Stream) Next() bool {
	if s.err != nil || s.done {
		return false
	}
	for len(s.queue) == 0 {
		batch, err := s.pull()
		if errors.Is(err, io.EOF) {
			s.done = true
			s.Close()
			return false
		}
		if err != nil {
			s.err = err
			s.Close()
			return false
		}
		s.queue = append(s.queue, batch...)
	}
	s.current = s.queue[0]
	s.queue = s.queue[1:]
	return true
}

// Current returns the event produced by the last successful Next.
func (s *Stream) Current() StreamEvent {
	return s.current
}

// Err returns the error that terminated the stream, if any.
func (s *Stream) Err() error {
	return s.err
}

// Close releases the underlying connection. Safe to call more than once
// and after the stream has ended naturally.
func (s *Stream) Close() error {
	s.done = true
	if s.release == nil {
		return nil
	}
	release := s.release
	s.release = nil
	return release()
}
