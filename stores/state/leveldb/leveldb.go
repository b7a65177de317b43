// Package leveldb stores records in an embedded LevelDB database.
package leveldb

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/bsv-blockchain/txgate/errors"
	"github.com/bsv-blockchain/txgate/model"
	"github.com/bsv-blockchain/txgate/stores/state/options"
	"github.com/bsv-blockchain/txgate/ulogger"
	"github.com/bsv-blockchain/txgate/util/health"
	"github.com/btcsuite/goleveldb/leveldb"
	"github.com/btcsuite/goleveldb/leveldb/opt"
	"github.com/btcsuite/goleveldb/leveldb/storage"
	"github.com/btcsuite/goleveldb/leveldb/util"
)

type LevelDB struct {
	db     *leveldb.DB
	logger ulogger.Logger
	name   string
	closed atomic.Bool
}

// New opens (or creates) the database at dir.
func New(logger ulogger.Logger, dir string) (*LevelDB, error) {
	logger.Infof("[LevelDB] opening %s", dir)

	db, err := leveldb.OpenFile(dir, &opt.Options{})
	if err != nil {
		return nil, errors.NewStorageError("couldn't open LevelDB at %s", dir, err)
	}

	return &LevelDB{db: db, logger: logger, name: dir}, nil
}

// NewMemory opens a database backed by memory only.
func NewMemory(logger ulogger.Logger) (*LevelDB, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, errors.NewStorageError("couldn't open in-memory LevelDB", err)
	}

	return &LevelDB{db: db, logger: logger, name: "memory"}, nil
}

func (l *LevelDB) Health(_ context.Context) health.Report {
	if _, err := l.db.GetProperty("leveldb.num-files-at-level0"); err != nil {
		return health.Report{Status: health.Unhealthy, Message: fmt.Sprintf("LevelDB Store: %v", err)}
	}

	return health.Report{Status: health.Healthy, Message: "LevelDB Store"}
}

func (l *LevelDB) Read(_ context.Context, uri string) (*model.Record, error) {
	b, err := l.db.Get([]byte(uri), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, errors.NewNotFoundError("%s not found", uri)
		}

		return nil, errors.NewStorageError("failed to read %s", uri, err)
	}

	record, err := model.DecodeRecord(b)
	if err != nil {
		return nil, errors.NewStorageError("stored data for %s is corrupt", uri, err)
	}

	return record, nil
}

func (l *LevelDB) Write(_ context.Context, uri string, value any) (*model.Record, error) {
	if uri == "" {
		return nil, errors.NewInvalidArgumentError("uri is empty")
	}

	record := model.NewRecord(value)

	b, err := record.Encode()
	if err != nil {
		return nil, errors.NewInvalidArgumentError("value for %s is not serializable", uri, err)
	}

	if err = l.db.Put([]byte(uri), b, nil); err != nil {
		return nil, errors.NewStorageError("failed to write %s", uri, err)
	}

	return record, nil
}

func (l *LevelDB) List(_ context.Context, prefix string, opts ...options.ListOption) (*model.ListResult, error) {
	o := options.NewListOptions(opts...)

	iter := l.db.NewIterator(util.BytesPrefix([]byte(prefix)), nil)
	defer iter.Release()

	var (
		total int
		items = make([]model.Item, 0, o.Limit)
		skip  = o.Offset()
	)

	// keys come back in byte order, so counting past the page gives the total
	for iter.Next() {
		total++

		if total <= skip || len(items) >= o.Limit {
			continue
		}

		record, err := model.DecodeRecord(iter.Value())
		if err != nil {
			return nil, errors.NewStorageError("stored data for %s is corrupt", string(iter.Key()), err)
		}

		items = append(items, model.Item{URI: string(iter.Key()), Record: *record})
	}

	if err := iter.Error(); err != nil {
		return nil, errors.NewStorageError("failed to list %s", prefix, err)
	}

	return &model.ListResult{
		Data:       items,
		Pagination: model.Pagination{Page: o.Page, Limit: o.Limit, Total: total},
	}, nil
}

func (l *LevelDB) Delete(_ context.Context, uri string) error {
	if err := l.db.Delete([]byte(uri), nil); err != nil {
		return errors.NewStorageError("failed to delete %s", uri, err)
	}

	return nil
}

func (l *LevelDB) Close(_ context.Context) error {
	if !l.closed.CompareAndSwap(false, true) {
		return nil
	}

	l.logger.Infof("[LevelDB] closing %s", l.name)

	return l.db.Close()
}
