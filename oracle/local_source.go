package oracle

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Pikkuherkko/HH-Lotto/raffle"

	log "github.com/sirupsen/logrus"
)

// LocalSource is an in-process oracle for development and tests. It answers
// every request asynchronously with cryptographically random words after a
// short delay, mimicking the request/callback shape of the real oracle.
type LocalSource struct {
	delay   time.Duration
	counter atomic.Uint64

	mu        sync.Mutex
	fulfiller Fulfiller
}

// NewLocalSource creates a local source that fulfills after delay
func NewLocalSource(delay time.Duration) *LocalSource {
	return &LocalSource{delay: delay}
}

// Bind sets the fulfillment target. Must be called before the first request.
func (s *LocalSource) Bind(fulfiller Fulfiller) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fulfiller = fulfiller
}

// Request issues a request id and schedules its asynchronous fulfillment
func (s *LocalSource) Request(ctx context.Context, params raffle.RequestParams) (string, error) {
	s.mu.Lock()
	fulfiller := s.fulfiller
	s.mu.Unlock()
	if fulfiller == nil {
		return "", fmt.Errorf("local oracle has no fulfillment target")
	}

	requestID := fmt.Sprintf("local-%d", s.counter.Add(1))

	words := make([]uint64, params.NumWords)
	for i := range words {
		n, err := rand.Int(rand.Reader, new(big.Int).SetUint64(math.MaxUint64))
		if err != nil {
			return "", fmt.Errorf("failed to generate random word: %w", err)
		}
		words[i] = n.Uint64()
	}

	// The fulfillment outlives the caller's context, like a real callback.
	go func() {
		time.Sleep(s.delay)
		if _, err := fulfiller.DeliverRandomness(context.Background(), requestID, words); err != nil {
			log.WithFields(log.Fields{
				"requestId": requestID,
				"error":     err,
			}).Error("Local oracle fulfillment failed")
		}
	}()

	log.WithField("requestId", requestID).Info("Local oracle request scheduled")
	return requestID, nil
}
