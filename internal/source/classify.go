package source

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
)

// classify wraps an RPC failure into the closed FetchError taxonomy. Rate
// limiting is detected here, once, so callers never inspect transport error
// shapes.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	wrapped := fmt.Errorf("%s: %w", op, err)

	var httpErr *jsonrpc.HTTPError
	if errors.As(err, &httpErr) && httpErr.Code == http.StatusTooManyRequests {
		return &FetchError{Kind: KindRateLimited, Err: wrapped}
	}

	// Only the explicit phrase counts. A bare "429" substring can show up
	// in addresses and amounts, so it is not treated as a rate limit.
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "too many requests") {
		return &FetchError{Kind: KindRateLimited, Err: wrapped}
	}

	return &FetchError{Kind: KindTransient, Err: wrapped}
}
