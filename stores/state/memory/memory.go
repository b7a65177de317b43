package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/bsv-blockchain/txgate/errors"
	"github.com/bsv-blockchain/txgate/model"
	"github.com/bsv-blockchain/txgate/stores/state/options"
	"github.com/bsv-blockchain/txgate/util/health"
)

// Memory keeps records in a map. Values are stored as given, not copied.
type Memory struct {
	mu      sync.RWMutex
	records map[string]*model.Record
	closed  bool
}

func New() *Memory {
	return &Memory{
		records: make(map[string]*model.Record),
	}
}

func (m *Memory) Health(_ context.Context) health.Report {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return health.Report{Status: health.Unhealthy, Message: "Memory Store closed"}
	}

	return health.Report{Status: health.Healthy, Message: "Memory Store"}
}

func (m *Memory) Read(_ context.Context, uri string) (*model.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.records[uri]
	if !ok {
		return nil, errors.NewNotFoundError("%s not found", uri)
	}

	return record, nil
}

func (m *Memory) Write(_ context.Context, uri string, value any) (*model.Record, error) {
	if uri == "" {
		return nil, errors.NewInvalidArgumentError("uri is empty")
	}

	record := model.NewRecord(value)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, errors.NewStorageUnavailableError("memory store is closed")
	}

	m.records[uri] = record

	return record, nil
}

func (m *Memory) List(_ context.Context, prefix string, opts ...options.ListOption) (*model.ListResult, error) {
	o := options.NewListOptions(opts...)

	m.mu.RLock()
	defer m.mu.RUnlock()

	uris := make([]string, 0)

	for uri := range m.records {
		if strings.HasPrefix(uri, prefix) {
			uris = append(uris, uri)
		}
	}

	sort.Strings(uris)

	start, end := o.Window(len(uris))

	items := make([]model.Item, 0, end-start)
	for _, uri := range uris[start:end] {
		items = append(items, model.Item{URI: uri, Record: *m.records[uri]})
	}

	return &model.ListResult{
		Data:       items,
		Pagination: model.Pagination{Page: o.Page, Limit: o.Limit, Total: len(uris)},
	}, nil
}

func (m *Memory) Delete(_ context.Context, uri string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.records, uri)

	return nil
}

func (m *Memory) Close(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true

	return nil
}
