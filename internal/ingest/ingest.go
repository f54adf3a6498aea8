// Package ingest receives hand observations from an external landmark
// extractor over ZeroMQ.
package ingest

import (
	"context"
	"errors"
	"log"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/pebbe/zmq4"

	"github.com/ayusman/mudra/internal/detector"
)

// recvTimeout bounds each receive so cancellation is noticed.
const recvTimeout = 250 * time.Millisecond

// Stream connects a PULL socket to endpoint and returns a channel of
// observations. The channel is closed when ctx is cancelled.
// Undecodable messages are dropped; one in logEvery is logged.
func Stream(ctx context.Context, endpoint string, logEvery int) (<-chan detector.Observation, error) {
	if logEvery < 1 {
		logEvery = 1
	}

	socket, err := zmq4.NewSocket(zmq4.PULL)
	if err != nil {
		return nil, err
	}
	if err := socket.SetRcvtimeo(recvTimeout); err != nil {
		_ = socket.Close()
		return nil, err
	}
	if err := socket.Connect(endpoint); err != nil {
		_ = socket.Close()
		return nil, err
	}

	out := make(chan detector.Observation)
	go func() {
		defer close(out)
		defer socket.Close()

		var skipped atomic.Int64
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			msg, err := socket.RecvBytes(0)
			if err != nil {
				if errors.Is(err, syscall.EAGAIN) {
					continue
				}
				logEveryN(&skipped, logEvery, "ingest recv error: %v", err)
				continue
			}

			m, err := decodeMessage(msg)
			if err != nil {
				logEveryN(&skipped, logEvery, "ingest dropped message: %v", err)
				continue
			}

			select {
			case <-ctx.Done():
				return
			case out <- m.Observation:
			}
		}
	}()

	return out, nil
}

func logEveryN(counter *atomic.Int64, n int, format string, args ...any) {
	if counter.Add(1)%int64(n) == 1%int64(n) {
		log.Printf(format, args...)
	}
}
