package datanode

import (
	"context"
	"net/http"

	"github.com/bsv-blockchain/txgate/errors"
	"github.com/bsv-blockchain/txgate/stores/state"
	"github.com/bsv-blockchain/txgate/ulogger"
	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// HTTPServer serves the health of a data node and read access to what it materialized:
//
//	GET /health   data node health, 503 when unhealthy
//	GET /state    ?uri= read one record
//	GET /list     ?prefix=&page=&limit= list records
//	GET /metrics  prometheus
type HTTPServer struct {
	node   *DataNode
	logger ulogger.Logger
	e      *echo.Echo
}

func NewHTTPServer(logger ulogger.Logger, node *DataNode) *HTTPServer {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())

	s := &HTTPServer{
		node:   node,
		logger: logger,
		e:      e,
	}

	reads := echo.WrapHandler(state.NewServer(logger, node.store).Handler())

	e.GET("/health", s.handleHealth)
	e.GET("/state", reads)
	e.GET("/list", reads)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return s
}

func (s *HTTPServer) Handler() http.Handler {
	return s.e
}

func (s *HTTPServer) Start(ctx context.Context, addr string) error {
	s.logger.Infof("[DataNodeHTTP] listening on %s", addr)

	go func() {
		<-ctx.Done()
		s.logger.Infof("[DataNodeHTTP] shutting down")

		if err := s.e.Shutdown(context.Background()); err != nil {
			s.logger.Errorf("[DataNodeHTTP] shutdown error: %s", err)
		}
	}()

	if err := s.e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *HTTPServer) Stop(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

func (s *HTTPServer) handleHealth(c echo.Context) error {
	h := s.node.Health(c.Request().Context())

	b, err := json.Marshal(h)
	if err != nil {
		return c.String(http.StatusInternalServerError, err.Error())
	}

	return c.JSONBlob(h.Status.HTTPCode(), b)
}
