package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/AngelCh415/finsnap/internal/utils"
)

// Fetcher downloads raw source exports.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type retryFetcher struct {
	c       HTTPClient
	backoff utils.Backoff
}

// NewFetcher retries transport errors and 5xx/429 answers with
// exponential backoff. Other 4xx answers fail immediately.
func NewFetcher(c HTTPClient, retries int) Fetcher {
	return &retryFetcher{c: c, backoff: utils.NewBackoff(100*time.Millisecond, retries)}
}

func (f *retryFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, errors.New("empty url")
	}
	var body []byte
	var permanent error
	err := f.backoff.Do(ctx, func(int) error {
		b, err := getBody(ctx, f.c, url)
		if err == nil {
			body = b
			return nil
		}
		var se *statusError
		if errors.As(err, &se) && se.code < 500 && se.code != 429 {
			permanent = err
			return nil
		}
		return err
	})
	if permanent != nil {
		return nil, permanent
	}
	return body, err
}
