// Package variate draws the random durations that drive a simulation run.
package variate

import (
	"math/rand/v2"
	"sync"

	"github.com/iti/rngstream"
)

// Source yields uniform draws in [0, 1).
// A Source belongs to exactly one run; none of the implementations are safe for concurrent use.
type Source interface {
	Float64() float64
}

// NewSource returns a PCG-backed source. Equal seeds replay equal runs.
func NewSource(seed uint64) Source {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// StreamSource draws from an independent L'Ecuyer MRG32k3a stream.
type StreamSource struct {
	stream *rngstream.RngStream
}

var streamMu sync.Mutex

// SeedStreams restarts the package-wide stream sequence from seed. Streams
// created afterwards, in the same order, replay the same draws.
func SeedStreams(seed uint64) {
	streamMu.Lock()
	defer streamMu.Unlock()
	rngstream.SetRngStreamMasterSeed(seed)
}

// NewStreamSource creates the next stream in the package-wide sequence.
// Streams are handed out in creation order, so create them from one goroutine
// after SeedStreams when runs must be reproducible.
func NewStreamSource(name string) *StreamSource {
	streamMu.Lock()
	defer streamMu.Unlock()
	return &StreamSource{stream: rngstream.New(name)}
}

// NewSeededStreamSource seeds the sequence and takes its first stream.
func NewSeededStreamSource(seed uint64, name string) *StreamSource {
	streamMu.Lock()
	defer streamMu.Unlock()
	rngstream.SetRngStreamMasterSeed(seed)
	return &StreamSource{stream: rngstream.New(name)}
}

// Float64 returns a draw from the open interval (0, 1).
func (s *StreamSource) Float64() float64 {
	return s.stream.RandU01()
}
