package main

import "sync"

// simSession is a software-simulated interfaces.Session: this module does
// not ship a vendor FPGA driver, so the reference binary stands one up
// in-process. A production deployment swaps this for the real backplane
// session without touching device or node.
type simSession struct {
	mu   sync.Mutex
	pins map[uint8]bool
}

func newSimSession() *simSession {
	return &simSession{pins: make(map[uint8]bool)}
}

func (s *simSession) ReadPin(pin uint8) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pins[pin], nil
}

func (s *simSession) WritePin(pin uint8, value bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pins[pin] = value
	return nil
}

func (s *simSession) Close() error {
	return nil
}
