package util

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bsv-blockchain/txgate/errors"
)

// HTTPRequestTimeout applies to requests whose context has no deadline.
var HTTPRequestTimeout = 60 * time.Second

// HTTPResponse is a completed request.
type HTTPResponse struct {
	StatusCode int
	Body       []byte
}

// OK reports a 2xx status.
func (r *HTTPResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// DoHTTPRequest performs a GET, or a JSON POST when a non nil requestBody is given, and reads the whole
// response. Every status code is returned to the caller; transport failures and HTML answers are errors.
func DoHTTPRequest(ctx context.Context, url string, requestBody ...[]byte) (*HTTPResponse, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancelFn context.CancelFunc

		ctx, cancelFn = context.WithTimeout(ctx, HTTPRequestTimeout)
		defer cancelFn()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.NewServiceError("failed to create http request", err)
	}

	// If there is a request body assume we want a POST and write request body
	if len(requestBody) > 0 && requestBody[0] != nil {
		req.Body = io.NopCloser(bytes.NewReader(requestBody[0]))
		req.ContentLength = int64(len(requestBody[0]))
		req.Method = http.MethodPost
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.NewNetworkTimeoutError("http request [%s] timed out", url, err)
		}

		return nil, errors.NewNetworkError("http request [%s] failed", url, err)
	}

	defer resp.Body.Close()

	if strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html") {
		return nil, errors.NewServiceError("http request [%s] returned HTML - assume bad URL", url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewServiceError("http request [%s] failed to read body", url, err)
	}

	return &HTTPResponse{StatusCode: resp.StatusCode, Body: body}, nil
}
