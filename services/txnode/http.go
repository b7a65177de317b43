package txnode

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/bsv-blockchain/txgate/errors"
	"github.com/bsv-blockchain/txgate/model"
	"github.com/bsv-blockchain/txgate/ulogger"
	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	ErrInvalidRequest = "invalid_request"
	ErrRateLimited    = "rate_limited"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HTTPServer is the HTTP and WebSocket binding of a Node:
//
//	POST /txn        body [uri, data], answers with a ReceiveResult
//	GET  /health     node health, 503 when unhealthy
//	GET  /subscribe  websocket stream of accepted [uri, data] frames, ?prefix= and ?pattern= filter
//	GET  /metrics    prometheus
type HTTPServer struct {
	node    *Node
	logger  ulogger.Logger
	e       *echo.Echo
	limiter *rate.Limiter
}

type HTTPOption func(*HTTPServer)

// WithRateLimit limits POST /txn to perSecond requests with the given burst. Zero disables it.
func WithRateLimit(perSecond int, burst int) HTTPOption {
	return func(s *HTTPServer) {
		if perSecond > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

func NewHTTPServer(logger ulogger.Logger, node *Node, opts ...HTTPOption) *HTTPServer {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("10M"))

	s := &HTTPServer{
		node:   node,
		logger: logger,
		e:      e,
	}

	for _, opt := range opts {
		opt(s)
	}

	e.POST("/txn", s.handleTxn)
	e.GET("/health", s.handleHealth)
	e.GET("/subscribe", s.handleSubscribe)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return s
}

// Handler is the server's routes, for mounting or httptest.
func (s *HTTPServer) Handler() http.Handler {
	return s.e
}

func (s *HTTPServer) Start(ctx context.Context, addr string) error {
	s.logger.Infof("[TxNodeHTTP] listening on %s", addr)

	go func() {
		<-ctx.Done()
		s.logger.Infof("[TxNodeHTTP] shutting down")

		if err := s.e.Shutdown(context.Background()); err != nil {
			s.logger.Errorf("[TxNodeHTTP] shutdown error: %s", err)
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

func (s *HTTPServer) reply(c echo.Context, route string, code int, v any) error {
	prometheusHTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()

	b, err := json.Marshal(v)
	if err != nil {
		return c.String(http.StatusInternalServerError, err.Error())
	}

	return c.JSONBlob(code, b)
}

func (s *HTTPServer) handleTxn(c echo.Context) error {
	if s.limiter != nil && !s.limiter.Allow() {
		return s.reply(c, "txn", http.StatusTooManyRequests, &ReceiveResult{Error: ErrRateLimited})
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return s.reply(c, "txn", http.StatusBadRequest, &ReceiveResult{Error: ErrInvalidRequest})
	}

	tx, err := model.DecodeTransaction(body)
	if err != nil {
		return s.reply(c, "txn", http.StatusBadRequest, &ReceiveResult{
			Error:   ErrInvalidRequest,
			Details: map[string]any{"reason": err.Error()},
		})
	}

	result := s.node.Receive(c.Request().Context(), tx)

	code := http.StatusOK

	switch {
	case result.Accepted:
	case result.Error == ErrNodeClosed:
		code = http.StatusServiceUnavailable
	default:
		code = http.StatusUnprocessableEntity
	}

	return s.reply(c, "txn", code, result)
}

func (s *HTTPServer) handleHealth(c echo.Context) error {
	h := s.node.Health(c.Request().Context())
	return s.reply(c, "health", h.Status.HTTPCode(), h)
}

func (s *HTTPServer) handleSubscribe(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	prometheusHTTPRequests.WithLabelValues("subscribe", strconv.Itoa(http.StatusSwitchingProtocols)).Inc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := s.node.Subscribe(ctx, model.Filter{
		Prefix:  c.QueryParam("prefix"),
		Pattern: c.QueryParam("pattern"),
	})
	defer sub.Unsubscribe()

	// the client never sends anything, reading only notices when it goes away
	go func() {
		defer cancel()

		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for tx := range sub.C {
		b, err := json.Marshal(tx)
		if err != nil {
			s.logger.Errorf("[TxNodeHTTP][%s] failed to encode transaction: %v", tx.URI, err)
			continue
		}

		_ = ws.SetWriteDeadline(time.Now().Add(10 * time.Second))

		if err = ws.WriteMessage(websocket.TextMessage, b); err != nil {
			s.logger.Debugf("[TxNodeHTTP] subscriber went away: %v", err)
			return nil
		}
	}

	_ = ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "node closed"),
		time.Now().Add(time.Second))

	return nil
}
