// Package redis stores records as JSON strings in Redis, keyed by uri.
package redis

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/bsv-blockchain/txgate/errors"
	"github.com/bsv-blockchain/txgate/model"
	"github.com/bsv-blockchain/txgate/stores/state/options"
	"github.com/bsv-blockchain/txgate/ulogger"
	"github.com/bsv-blockchain/txgate/util/health"
	"github.com/redis/go-redis/v9"
)

type Redis struct {
	url    *url.URL
	rdb    redis.UniversalClient
	logger ulogger.Logger
}

// New connects to redis://[user:password@]host:port[/db].
func New(logger ulogger.Logger, u *url.URL) (*Redis, error) {
	o := &redis.Options{
		Addr: u.Host,
	}

	if u.Path != "" && u.Path != "/" {
		db, err := strconv.Atoi(strings.TrimPrefix(u.Path, "/"))
		if err != nil {
			return nil, errors.NewConfigurationError("redis path must be a database number", err)
		}

		o.DB = db
	}

	if u.User != nil {
		o.Username = u.User.Username()

		if p, ok := u.User.Password(); ok {
			o.Password = p
		}
	}

	return NewWithClient(logger, u, redis.NewClient(o)), nil
}

func NewWithClient(logger ulogger.Logger, u *url.URL, rdb redis.UniversalClient) *Redis {
	return &Redis{url: u, rdb: rdb, logger: logger}
}

func (r *Redis) Health(ctx context.Context) health.Report {
	if err := r.rdb.Ping(ctx).Err(); err != nil {
		return health.Report{Status: health.Unhealthy, Message: fmt.Sprintf("Redis Store: %v", err)}
	}

	return health.Report{Status: health.Healthy, Message: "Redis Store"}
}

func (r *Redis) Read(ctx context.Context, uri string) (*model.Record, error) {
	b, err := r.rdb.Get(ctx, uri).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
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

func (r *Redis) Write(ctx context.Context, uri string, value any) (*model.Record, error) {
	if uri == "" {
		return nil, errors.NewInvalidArgumentError("uri is empty")
	}

	record := model.NewRecord(value)

	b, err := record.Encode()
	if err != nil {
		return nil, errors.NewInvalidArgumentError("value for %s is not serializable", uri, err)
	}

	if err = r.rdb.Set(ctx, uri, b, 0).Err(); err != nil {
		return nil, errors.NewStorageError("failed to write %s", uri, err)
	}

	return record, nil
}

// List scans keys matching the prefix. Redis has no ordered key space, so the keys are sorted here.
func (r *Redis) List(ctx context.Context, prefix string, opts ...options.ListOption) (*model.ListResult, error) {
	o := options.NewListOptions(opts...)

	var uris []string

	iter := r.rdb.Scan(ctx, 0, escapeGlob(prefix)+"*", 500).Iterator()
	for iter.Next(ctx) {
		uris = append(uris, iter.Val())
	}

	if err := iter.Err(); err != nil {
		return nil, errors.NewStorageError("failed to list %s", prefix, err)
	}

	sort.Strings(uris)

	start, end := o.Window(len(uris))
	items := make([]model.Item, 0, end-start)

	for _, uri := range uris[start:end] {
		record, err := r.Read(ctx, uri)
		if err != nil {
			// deleted between scan and read
			if errors.Is(err, errors.ErrNotFound) {
				continue
			}

			return nil, err
		}

		items = append(items, model.Item{URI: uri, Record: *record})
	}

	return &model.ListResult{
		Data:       items,
		Pagination: model.Pagination{Page: o.Page, Limit: o.Limit, Total: len(uris)},
	}, nil
}

func (r *Redis) Delete(ctx context.Context, uri string) error {
	if err := r.rdb.Del(ctx, uri).Err(); err != nil {
		return errors.NewStorageError("failed to delete %s", uri, err)
	}

	return nil
}

func (r *Redis) Close(_ context.Context) error {
	if err := r.rdb.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
		return err
	}

	return nil
}

func escapeGlob(s string) string {
	return strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`).Replace(s)
}
