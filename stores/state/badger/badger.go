// Package badger stores records in an embedded Badger database.
package badger

import (
	"context"
	"sync/atomic"

	"github.com/bsv-blockchain/txgate/errors"
	"github.com/bsv-blockchain/txgate/model"
	"github.com/bsv-blockchain/txgate/stores/state/options"
	"github.com/bsv-blockchain/txgate/ulogger"
	"github.com/bsv-blockchain/txgate/util/health"
	"github.com/dgraph-io/badger/v3"
	"github.com/ordishs/gocore"
)

type Badger struct {
	db     *badger.DB
	logger ulogger.Logger
	closed atomic.Bool
}

// loggerWrapper satisfies badger.Logger, which names its warning method Warningf.
type loggerWrapper struct {
	ulogger.Logger
}

func (l loggerWrapper) Warningf(format string, args ...interface{}) {
	l.Warnf(format, args...)
}

// New opens a Badger database in dir, or in memory when dir is empty.
func New(logger ulogger.Logger, dir string) (*Badger, error) {
	opts := badger.DefaultOptions(dir).
		WithLogger(loggerWrapper{logger}).
		WithLoggingLevel(badger.ERROR)

	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	if gocore.Config().GetBool("badger_limitMemoryLow", false) {
		opts = opts.WithNumMemtables(1).
			WithNumLevelZeroTables(1).
			WithNumLevelZeroTablesStall(2)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.NewStorageError("couldn't open badger at %q", dir, err)
	}

	return &Badger{db: db, logger: logger}, nil
}

func (b *Badger) Health(_ context.Context) health.Report {
	if b.db.IsClosed() {
		return health.Report{Status: health.Unhealthy, Message: "Badger Store closed"}
	}

	return health.Report{Status: health.Healthy, Message: "Badger Store"}
}

func (b *Badger) Read(_ context.Context, uri string) (*model.Record, error) {
	var value []byte

	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(uri))
		if err != nil {
			return err
		}

		value, err = item.ValueCopy(nil)

		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, errors.NewNotFoundError("%s not found", uri)
		}

		return nil, errors.NewStorageError("failed to read %s", uri, err)
	}

	record, err := model.DecodeRecord(value)
	if err != nil {
		return nil, errors.NewStorageError("stored data for %s is corrupt", uri, err)
	}

	return record, nil
}

func (b *Badger) Write(_ context.Context, uri string, value any) (*model.Record, error) {
	if uri == "" {
		return nil, errors.NewInvalidArgumentError("uri is empty")
	}

	record := model.NewRecord(value)

	encoded, err := record.Encode()
	if err != nil {
		return nil, errors.NewInvalidArgumentError("value for %s is not serializable", uri, err)
	}

	if err = b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(uri), encoded)
	}); err != nil {
		return nil, errors.NewStorageError("failed to write %s", uri, err)
	}

	return record, nil
}

func (b *Badger) List(_ context.Context, prefix string, opts ...options.ListOption) (*model.ListResult, error) {
	o := options.NewListOptions(opts...)
	items := make([]model.Item, 0, o.Limit)
	total := 0
	skip := o.Offset()

	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		p := []byte(prefix)

		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			total++

			if total <= skip || len(items) >= o.Limit {
				continue
			}

			item := it.Item()

			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}

			record, err := model.DecodeRecord(value)
			if err != nil {
				return err
			}

			items = append(items, model.Item{URI: string(item.KeyCopy(nil)), Record: *record})
		}

		return nil
	})
	if err != nil {
		return nil, errors.NewStorageError("failed to list %s", prefix, err)
	}

	return &model.ListResult{
		Data:       items,
		Pagination: model.Pagination{Page: o.Page, Limit: o.Limit, Total: total},
	}, nil
}

func (b *Badger) Delete(_ context.Context, uri string) error {
	if err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(uri))
	}); err != nil {
		return errors.NewStorageError("failed to delete %s", uri, err)
	}

	return nil
}

func (b *Badger) Close(_ context.Context) error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}

	return b.db.Close()
}
