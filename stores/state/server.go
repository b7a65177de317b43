package state

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/bsv-blockchain/txgate/errors"
	"github.com/bsv-blockchain/txgate/stores/state/options"
	"github.com/bsv-blockchain/txgate/ulogger"
	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const NotFoundMsg = "Not found"

// Server exposes a Store over HTTP for the http:// backend.
type Server struct {
	store  Store
	logger ulogger.Logger
	e      *echo.Echo
}

func NewServer(logger ulogger.Logger, store Store) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())

	s := &Server{
		store:  store,
		logger: logger,
		e:      e,
	}

	e.GET("/health", s.handleHealth)
	e.GET("/state", s.handleRead)
	e.PUT("/state", s.handleWrite)
	e.DELETE("/state", s.handleDelete)
	e.GET("/list", s.handleList)

	return s
}

// Handler is the server's routes, for mounting or httptest.
func (s *Server) Handler() http.Handler {
	return s.e
}

func (s *Server) Start(ctx context.Context, addr string) error {
	s.logger.Infof("[StateServer] listening on %s", addr)

	go func() {
		<-ctx.Done()
		s.logger.Infof("[StateServer] shutting down")

		if err := s.e.Shutdown(context.Background()); err != nil {
			s.logger.Errorf("[StateServer] shutdown error: %s", err)
		}
	}()

	if err := s.e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	report := s.store.Health(c.Request().Context())
	return c.JSON(report.Status.HTTPCode(), report)
}

func (s *Server) handleRead(c echo.Context) error {
	uri := c.QueryParam("uri")
	if uri == "" {
		return c.String(http.StatusBadRequest, "uri is required")
	}

	record, err := s.store.Read(c.Request().Context(), uri)
	if err != nil {
		return s.sendError(c, err)
	}

	b, err := record.Encode()
	if err != nil {
		return s.sendError(c, err)
	}

	return c.JSONBlob(http.StatusOK, b)
}

func (s *Server) handleWrite(c echo.Context) error {
	uri := c.QueryParam("uri")
	if uri == "" {
		return c.String(http.StatusBadRequest, "uri is required")
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}

	var value any
	if err = json.Unmarshal(body, &value); err != nil {
		return c.String(http.StatusBadRequest, "body is not json")
	}

	record, err := s.store.Write(c.Request().Context(), uri, value)
	if err != nil {
		return s.sendError(c, err)
	}

	b, err := record.Encode()
	if err != nil {
		return s.sendError(c, err)
	}

	return c.JSONBlob(http.StatusOK, b)
}

func (s *Server) handleDelete(c echo.Context) error {
	uri := c.QueryParam("uri")
	if uri == "" {
		return c.String(http.StatusBadRequest, "uri is required")
	}

	if err := s.store.Delete(c.Request().Context(), uri); err != nil {
		return s.sendError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleList(c echo.Context) error {
	var opts []options.ListOption

	if page, err := strconv.Atoi(c.QueryParam("page")); err == nil {
		opts = append(opts, options.WithPage(page))
	}

	if limit, err := strconv.Atoi(c.QueryParam("limit")); err == nil {
		opts = append(opts, options.WithLimit(limit))
	}

	result, err := s.store.List(c.Request().Context(), c.QueryParam("prefix"), opts...)
	if err != nil {
		return s.sendError(c, err)
	}

	b, err := json.Marshal(result)
	if err != nil {
		return s.sendError(c, err)
	}

	return c.JSONBlob(http.StatusOK, b)
}

func (s *Server) sendError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, errors.ErrNotFound):
		return c.String(http.StatusNotFound, NotFoundMsg)
	case errors.Is(err, errors.ErrInvalidArgument):
		return c.String(http.StatusBadRequest, err.Error())
	case errors.Is(err, errors.ErrStorageUnavailable):
		return c.String(http.StatusServiceUnavailable, err.Error())
	default:
		s.logger.Errorf("[StateServer] %s %s: %v", c.Request().Method, c.Request().URL.Path, err)
		return c.String(http.StatusInternalServerError, err.Error())
	}
}
