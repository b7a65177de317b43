package state

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/bsv-blockchain/txgate/errors"
	"github.com/bsv-blockchain/txgate/stores/state/badger"
	"github.com/bsv-blockchain/txgate/stores/state/cache"
	httpstore "github.com/bsv-blockchain/txgate/stores/state/http"
	"github.com/bsv-blockchain/txgate/stores/state/leveldb"
	"github.com/bsv-blockchain/txgate/stores/state/logger"
	"github.com/bsv-blockchain/txgate/stores/state/memory"
	"github.com/bsv-blockchain/txgate/stores/state/redis"
	"github.com/bsv-blockchain/txgate/stores/state/sql"
	"github.com/bsv-blockchain/txgate/ulogger"
)

// Backend is the closed set of storage engines a store URL can select.
type Backend int

const (
	Memory Backend = iota
	SQLite
	Postgres
	LevelDB
	Badger
	Redis
	HTTP
)

func (b Backend) String() string {
	switch b {
	case Memory:
		return "memory"
	case SQLite:
		return "sqlite"
	case Postgres:
		return "postgres"
	case LevelDB:
		return "leveldb"
	case Badger:
		return "badger"
	case Redis:
		return "redis"
	case HTTP:
		return "http"
	default:
		return "unknown"
	}
}

// ParseBackend maps a store URL scheme to its backend.
func ParseBackend(storeURL *url.URL) (Backend, error) {
	if storeURL == nil {
		return 0, errors.NewConfigurationError("store url is nil")
	}

	switch strings.ToLower(storeURL.Scheme) {
	case "memory":
		return Memory, nil
	case "sqlite", "sqlitememory":
		return SQLite, nil
	case "postgres":
		return Postgres, nil
	case "leveldb", "leveldbmemory":
		return LevelDB, nil
	case "badger", "badgermemory":
		return Badger, nil
	case "redis":
		return Redis, nil
	case "http", "https":
		return HTTP, nil
	default:
		return 0, errors.NewConfigurationError("unknown store type: %s", storeURL.Scheme)
	}
}

// New opens the store selected by storeURL. The query parameters cache=<duration>
// and logger=true wrap the backend in a read-through cache and a debug logger.
func New(logger ulogger.Logger, storeURL *url.URL) (Store, error) {
	backend, err := ParseBackend(storeURL)
	if err != nil {
		return nil, err
	}

	var store Store

	switch backend {
	case Memory:
		store = memory.New()
	case SQLite, Postgres:
		store, err = sql.New(logger, storeURL)
	case LevelDB:
		if storeURL.Scheme == "leveldbmemory" {
			store, err = leveldb.NewMemory(logger)
		} else {
			store, err = leveldb.New(logger, localPath(storeURL))
		}
	case Badger:
		if storeURL.Scheme == "badgermemory" {
			store, err = badger.New(logger, "")
		} else {
			store, err = badger.New(logger, localPath(storeURL))
		}
	case Redis:
		store, err = redis.New(logger, storeURL)
	case HTTP:
		store, err = httpstore.New(logger, storeURL)
	}

	if err != nil {
		return nil, errors.NewStorageError("error creating %s state store", backend, err)
	}

	return wrap(logger, store, storeURL)
}

func wrap(log ulogger.Logger, store Store, storeURL *url.URL) (Store, error) {
	query := storeURL.Query()

	if ttl := query.Get("cache"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil || d <= 0 {
			_ = store.Close(context.Background())
			return nil, errors.NewConfigurationError("invalid cache ttl %q", ttl)
		}

		store = cache.New(store, d)
	}

	if query.Get("logger") == "true" {
		store = logger.New(log.New("state"), store)
	}

	return store, nil
}

// localPath resolves file backed stores: badger:///data/state is absolute, badger://./data/state is relative.
func localPath(storeURL *url.URL) string {
	if storeURL.Host != "" {
		return storeURL.Host + storeURL.Path
	}

	return storeURL.Path
}
