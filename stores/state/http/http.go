// Package http is a state store client for a remote state.Server.
package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bsv-blockchain/txgate/errors"
	"github.com/bsv-blockchain/txgate/model"
	"github.com/bsv-blockchain/txgate/stores/state/options"
	"github.com/bsv-blockchain/txgate/ulogger"
	"github.com/bsv-blockchain/txgate/util/health"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	statePath  = "/state"
	listPath   = "/list"
	healthPath = "/health"
)

type HTTPStore struct {
	baseURL    string
	httpClient *http.Client
	logger     ulogger.Logger
}

func New(logger ulogger.Logger, storeURL *url.URL) (*HTTPStore, error) {
	if storeURL == nil {
		return nil, errors.NewConfigurationError("storeURL is nil")
	}

	base := url.URL{Scheme: storeURL.Scheme, Host: storeURL.Host, Path: storeURL.Path}

	return &HTTPStore{
		baseURL:    base.String(),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger.New("http"),
	}, nil
}

func (s *HTTPStore) Health(ctx context.Context) health.Report {
	resp, err := s.do(ctx, http.MethodGet, healthPath, nil, nil)
	if err != nil {
		return health.Report{Status: health.Unhealthy, Message: fmt.Sprintf("HTTP Store: %v", err)}
	}
	defer resp.Body.Close()

	var report health.Report
	if err = json.NewDecoder(resp.Body).Decode(&report); err != nil || report.Status == "" {
		if resp.StatusCode == http.StatusOK {
			return health.Report{Status: health.Healthy, Message: "HTTP Store"}
		}

		return health.Report{Status: health.Unhealthy, Message: fmt.Sprintf("HTTP Store: status %d", resp.StatusCode)}
	}

	return report
}

func (s *HTTPStore) Read(ctx context.Context, uri string) (*model.Record, error) {
	resp, err := s.do(ctx, http.MethodGet, statePath, url.Values{"uri": {uri}}, nil)
	if err != nil {
		return nil, errors.NewStorageError("[HTTPStore] Read %s failed", uri, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, errors.NewNotFoundError("%s not found", uri)
	}

	if err = checkStatus(resp, http.StatusOK); err != nil {
		return nil, errors.NewStorageError("[HTTPStore] Read %s failed", uri, err)
	}

	return decodeRecord(resp.Body)
}

func (s *HTTPStore) Write(ctx context.Context, uri string, value any) (*model.Record, error) {
	if uri == "" {
		return nil, errors.NewInvalidArgumentError("uri is empty")
	}

	body, err := json.Marshal(value)
	if err != nil {
		return nil, errors.NewInvalidArgumentError("value for %s is not serializable", uri, err)
	}

	resp, err := s.do(ctx, http.MethodPut, statePath, url.Values{"uri": {uri}}, body)
	if err != nil {
		return nil, errors.NewStorageError("[HTTPStore] Write %s failed", uri, err)
	}
	defer resp.Body.Close()

	if err = checkStatus(resp, http.StatusOK); err != nil {
		return nil, errors.NewStorageError("[HTTPStore] Write %s failed", uri, err)
	}

	return decodeRecord(resp.Body)
}

func (s *HTTPStore) List(ctx context.Context, prefix string, opts ...options.ListOption) (*model.ListResult, error) {
	o := options.NewListOptions(opts...)

	query := url.Values{
		"prefix": {prefix},
		"page":   {strconv.Itoa(o.Page)},
		"limit":  {strconv.Itoa(o.Limit)},
	}

	resp, err := s.do(ctx, http.MethodGet, listPath, query, nil)
	if err != nil {
		return nil, errors.NewStorageError("[HTTPStore] List %s failed", prefix, err)
	}
	defer resp.Body.Close()

	if err = checkStatus(resp, http.StatusOK); err != nil {
		return nil, errors.NewStorageError("[HTTPStore] List %s failed", prefix, err)
	}

	var result model.ListResult
	if err = json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, errors.NewNetworkInvalidResponseError("[HTTPStore] List %s returned invalid body", prefix, err)
	}

	if result.Data == nil {
		result.Data = []model.Item{}
	}

	return &result, nil
}

func (s *HTTPStore) Delete(ctx context.Context, uri string) error {
	resp, err := s.do(ctx, http.MethodDelete, statePath, url.Values{"uri": {uri}}, nil)
	if err != nil {
		return errors.NewStorageError("[HTTPStore] Delete %s failed", uri, err)
	}
	defer resp.Body.Close()

	if err = checkStatus(resp, http.StatusNoContent); err != nil {
		return errors.NewStorageError("[HTTPStore] Delete %s failed", uri, err)
	}

	return nil
}

func (s *HTTPStore) Close(_ context.Context) error {
	s.httpClient.CloseIdleConnections()
	return nil
}

func (s *HTTPStore) do(ctx context.Context, method, path string, query url.Values, body []byte) (*http.Response, error) {
	target := s.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.NewContextError("request cancelled", ctx.Err())
		}

		return nil, errors.NewNetworkError("%s %s", method, path, err)
	}

	return resp, nil
}

func checkStatus(resp *http.Response, expected int) error {
	if resp.StatusCode == expected {
		return nil
	}

	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

	if resp.StatusCode == http.StatusServiceUnavailable {
		return errors.NewStorageUnavailableError("status %d: %s", resp.StatusCode, string(msg))
	}

	return errors.NewNetworkInvalidResponseError("status %d: %s", resp.StatusCode, string(msg))
}

func decodeRecord(r io.Reader) (*model.Record, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.NewNetworkError("failed to read response body", err)
	}

	record, err := model.DecodeRecord(b)
	if err != nil {
		return nil, errors.NewNetworkInvalidResponseError("invalid record in response", err)
	}

	return record, nil
}
