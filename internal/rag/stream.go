package rag

import (
	"context"
	"sync"
)

// Stream delivers answer fragments as the model generates them. Consume
// Fragments until it closes, then check Err for a generation failure.
type Stream struct {
	fragments chan string

	mu  sync.Mutex
	err error
}

func newStream() *Stream {
	return &Stream{fragments: make(chan string)}
}

// Fragments returns the fragment channel. It closes when generation
// finishes or fails.
func (s *Stream) Fragments() <-chan string {
	return s.fragments
}

// Err reports the generation error, if any. Only valid after Fragments
// has closed.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// push delivers one fragment, giving up when ctx is cancelled so a gone
// consumer aborts generation.
func (s *Stream) push(ctx context.Context, fragment string) error {
	select {
	case s.fragments <- fragment:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Stream) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *Stream) finish() {
	close(s.fragments)
}
