// Package sql stores records in a single table on postgres or sqlite.
package sql

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/bsv-blockchain/txgate/errors"
	"github.com/bsv-blockchain/txgate/model"
	"github.com/bsv-blockchain/txgate/stores/state/options"
	"github.com/bsv-blockchain/txgate/ulogger"
	"github.com/bsv-blockchain/txgate/util/health"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/ordishs/gocore"
	_ "modernc.org/sqlite"
)

type SQL struct {
	url    *url.URL
	db     *sql.DB
	logger ulogger.Logger
	engine string
}

func New(logger ulogger.Logger, storeURL *url.URL) (*SQL, error) {
	var (
		db  *sql.DB
		err error
		q   string
	)

	switch storeURL.Scheme {
	case "postgres":
		dbInfo, dbErr := postgresInfo(storeURL)
		if dbErr != nil {
			return nil, dbErr
		}

		db, err = sql.Open("postgres", dbInfo)
		if err != nil {
			return nil, errors.NewStorageError("failed to open postgres DB", err)
		}

		q = `CREATE TABLE IF NOT EXISTS state (
		 uri   TEXT PRIMARY KEY
		,ts    BIGINT NOT NULL
		,data  TEXT NOT NULL
		);`

	case "sqlite", "sqlitememory":
		var filename string

		if storeURL.Scheme == "sqlitememory" {
			filename = fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
		} else {
			folder, _ := gocore.Config().Get("dataFolder", "data")
			if err = os.MkdirAll(folder, 0o755); err != nil {
				return nil, errors.NewStorageError("failed to create data folder %s", folder, err)
			}

			dbName := strings.TrimPrefix(storeURL.Path, "/")
			if dbName == "" {
				dbName = "state"
			}

			filename, err = filepath.Abs(path.Join(folder, fmt.Sprintf("%s.db", dbName)))
			if err != nil {
				return nil, errors.NewStorageError("failed to get absolute path for sqlite DB", err)
			}

			filename = fmt.Sprintf("%s?cache=shared&_pragma=busy_timeout=10000&_pragma=journal_mode=WAL", filename)
		}

		db, err = sql.Open("sqlite", filename)
		if err != nil {
			return nil, errors.NewStorageError("failed to open sqlite DB", err)
		}

		// an in-memory database lives as long as one connection does
		if storeURL.Scheme == "sqlitememory" {
			db.SetMaxIdleConns(1)
			db.SetConnMaxLifetime(0)
		}

		q = `CREATE TABLE IF NOT EXISTS state (
		 uri   TEXT PRIMARY KEY
		,ts    INTEGER NOT NULL
		,data  TEXT NOT NULL
		);`

	default:
		return nil, errors.NewConfigurationError("unknown database engine %q", storeURL.Scheme)
	}

	if _, err = db.Exec(q); err != nil {
		_ = db.Close()
		return nil, errors.NewStorageError("failed to create state table", err)
	}

	logger.Infof("[SQL] state store ready on %s", storeURL.Scheme)

	return NewWithDB(logger, storeURL, db), nil
}

// NewWithDB wraps an open database whose state table already exists.
func NewWithDB(logger ulogger.Logger, storeURL *url.URL, db *sql.DB) *SQL {
	return &SQL{
		url:    storeURL,
		db:     db,
		logger: logger,
		engine: storeURL.Scheme,
	}
}

func postgresInfo(storeURL *url.URL) (string, error) {
	dbName := strings.TrimPrefix(storeURL.Path, "/")
	if dbName == "" {
		return "", errors.NewConfigurationError("postgres url %s has no database name", storeURL.Redacted())
	}

	dbUser := ""
	dbPassword := ""

	if storeURL.User != nil {
		dbUser = storeURL.User.Username()
		dbPassword, _ = storeURL.User.Password()
	}

	port := storeURL.Port()
	if port == "" {
		port = "5432"
	}

	sslMode := storeURL.Query().Get("sslmode")
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("user=%s password=%s dbname=%s sslmode=%s host=%s port=%s",
		dbUser, dbPassword, dbName, sslMode, storeURL.Hostname(), port), nil
}

func (s *SQL) Health(ctx context.Context) health.Report {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		return health.Report{Status: health.Unhealthy, Message: fmt.Sprintf("%s Store: %v", s.engine, err)}
	}

	return health.Report{Status: health.Healthy, Message: fmt.Sprintf("%s Store", s.engine)}
}

func (s *SQL) Read(ctx context.Context, uri string) (*model.Record, error) {
	var (
		ts   int64
		data string
	)

	err := s.db.QueryRowContext(ctx, "SELECT ts, data FROM state WHERE uri = $1", uri).Scan(&ts, &data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFoundError("%s not found", uri)
		}

		return nil, errors.NewStorageError("failed to read %s", uri, err)
	}

	return decode(ts, data)
}

func (s *SQL) Write(ctx context.Context, uri string, value any) (*model.Record, error) {
	if uri == "" {
		return nil, errors.NewInvalidArgumentError("uri is empty")
	}

	record := model.NewRecord(value)

	data, err := json.Marshal(value)
	if err != nil {
		return nil, errors.NewInvalidArgumentError("value for %s is not serializable", uri, err)
	}

	if _, err = s.db.ExecContext(ctx,
		"INSERT INTO state (uri, ts, data) VALUES ($1, $2, $3) ON CONFLICT (uri) DO UPDATE SET ts = excluded.ts, data = excluded.data",
		uri, record.TS.UnixMilli(), string(data),
	); err != nil {
		return nil, errors.NewStorageError("failed to write %s", uri, err)
	}

	return record, nil
}

func (s *SQL) List(ctx context.Context, prefix string, opts ...options.ListOption) (*model.ListResult, error) {
	o := options.NewListOptions(opts...)
	where, pattern := s.prefixMatch(prefix)

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM state WHERE "+where, pattern).Scan(&total); err != nil {
		return nil, errors.NewStorageError("failed to count %s", prefix, err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT uri, ts, data FROM state WHERE "+where+" ORDER BY uri LIMIT $2 OFFSET $3",
		pattern, o.Limit, o.Offset(),
	)
	if err != nil {
		return nil, errors.NewStorageError("failed to list %s", prefix, err)
	}
	defer rows.Close()

	items := make([]model.Item, 0, o.Limit)

	for rows.Next() {
		var (
			uri  string
			ts   int64
			data string
		)

		if err = rows.Scan(&uri, &ts, &data); err != nil {
			return nil, errors.NewStorageError("failed to scan %s", prefix, err)
		}

		record, decodeErr := decode(ts, data)
		if decodeErr != nil {
			return nil, decodeErr
		}

		items = append(items, model.Item{URI: uri, Record: *record})
	}

	if err = rows.Err(); err != nil {
		return nil, errors.NewStorageError("failed to list %s", prefix, err)
	}

	return &model.ListResult{
		Data:       items,
		Pagination: model.Pagination{Page: o.Page, Limit: o.Limit, Total: total},
	}, nil
}

func (s *SQL) Delete(ctx context.Context, uri string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM state WHERE uri = $1", uri); err != nil {
		return errors.NewStorageError("failed to delete %s", uri, err)
	}

	return nil
}

func (s *SQL) Close(_ context.Context) error {
	return s.db.Close()
}

func decode(ts int64, data string) (*model.Record, error) {
	var value any
	if err := json.Unmarshal([]byte(data), &value); err != nil {
		return nil, errors.NewStorageError("stored data is corrupt", err)
	}

	return &model.Record{TS: time.UnixMilli(ts).UTC(), Data: value}, nil
}

// prefixMatch returns a case sensitive prefix condition on $1. sqlite's LIKE ignores case, so it uses GLOB.
func (s *SQL) prefixMatch(prefix string) (string, string) {
	if s.engine == "postgres" {
		return `uri LIKE $1 ESCAPE '\'`, strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(prefix) + "%"
	}

	return "uri GLOB $1", strings.NewReplacer(`[`, `[[]`, `*`, `[*]`, `?`, `[?]`).Replace(prefix) + "*"
}
