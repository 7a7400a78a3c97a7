package asyncio

import (
	"context"
	"io"
	"time"

	"github.com/minio/gwalker/internal/gwerr"
)

// RetryPolicy bounds the exponential-backoff retry loop used for
// short reads before end-of-block.
type RetryPolicy struct {
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// DefaultRetryPolicy retries a short read until it completes or fails
// with IoError.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:        8,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        200 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
}

// ReadFull submits reads against fd at offset until buf is completely
// populated or the retry policy is exhausted, in which case it returns
// an IoError. A short read (n < len(buf) but n > 0 and no error) is
// not itself a failure; the next attempt continues from the new
// offset.
func (s *Submitter) ReadFull(ctx context.Context, policy RetryPolicy, fd int, buf []byte, offset int64) error {
	backoff := policy.InitialBackoff
	attempt := 0
	filled := 0
	for filled < len(buf) {
		resCh, err := s.Submit(ctx, fd, buf[filled:], offset+int64(filled))
		if err != nil {
			return gwerr.IoError("asyncio.ReadFull", "", err)
		}
		select {
		case <-ctx.Done():
			return gwerr.Cancelled("asyncio.ReadFull")
		case res := <-resCh:
			if res.Err != nil {
				attempt++
				if attempt > policy.MaxRetries {
					return gwerr.IoError("asyncio.ReadFull", "", res.Err)
				}
				select {
				case <-time.After(backoff):
				case <-ctx.Done():
					return gwerr.Cancelled("asyncio.ReadFull")
				}
				backoff = minDuration(time.Duration(float64(backoff)*policy.BackoffMultiplier), policy.MaxBackoff)
				continue
			}
			if res.N == 0 {
				// End of file before the buffer filled: the file is
				// shorter than the window the caller asked for.
				return gwerr.IoError("asyncio.ReadFull", "", io.ErrUnexpectedEOF)
			}
			filled += res.N
			attempt = 0
			backoff = policy.InitialBackoff
		}
	}
	return nil
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
