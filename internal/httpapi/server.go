package httpapi

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/park285/pixelcv-arcade/internal/adapter/arcadepresenter"
	"github.com/park285/pixelcv-arcade/internal/arcade"
)

const (
	maxBodySize    = 64 << 10
	requestTimeout = 15 * time.Second
)

type Server struct {
	svc       *arcade.Service
	presenter *arcadepresenter.Presenter
	logger    *zap.Logger
	srv       *fasthttp.Server
}

func New(svc *arcade.Service, presenter *arcadepresenter.Presenter, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if presenter == nil {
		presenter = arcadepresenter.NewPresenter(nil, arcadepresenter.NewFormatter(nil))
	}
	s := &Server{svc: svc, presenter: presenter, logger: logger}
	s.srv = &fasthttp.Server{
		Handler:               s.Handler(),
		Name:                  "pixelcv-arcade",
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          requestTimeout,
		IdleTimeout:           time.Minute,
		MaxRequestBodySize:    maxBodySize,
		NoDefaultServerHeader: true,
	}
	return s
}

func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("http_listen", zap.String("addr", addr))
	return s.srv.ListenAndServe(addr)
}

func (s *Server) Serve(ln net.Listener) error {
	return s.srv.Serve(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.ShutdownWithContext(ctx)
}

// Handler routes /v1 requests and logs each one.
func (s *Server) Handler() fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()
		s.route(ctx)
		s.logger.Debug("http_request",
			zap.ByteString("method", ctx.Method()),
			zap.ByteString("path", ctx.Path()),
			zap.Int("status", ctx.Response.StatusCode()),
			zap.Duration("took", time.Since(start)),
		)
	}
}

func (s *Server) route(ctx *fasthttp.RequestCtx) {
	path := strings.Trim(string(ctx.Path()), "/")
	parts := strings.Split(path, "/")
	method := string(ctx.Method())

	switch {
	case path == "healthz":
		s.handleHealth(ctx)
		return
	case len(parts) < 2 || parts[0] != "v1":
		writeError(ctx, fasthttp.StatusNotFound, "not_found", "no route for "+method+" /"+path)
		return
	}

	switch parts[1] {
	case "games":
		if len(parts) == 2 && method == fasthttp.MethodGet {
			s.handleGames(ctx)
			return
		}
	case "sessions":
		if s.routeSessions(ctx, method, parts[2:]) {
			return
		}
	case "users":
		if len(parts) == 4 && method == fasthttp.MethodGet {
			switch parts[3] {
			case "history":
				s.handleHistory(ctx, parts[2])
				return
			case "profile":
				s.handleProfile(ctx, parts[2])
				return
			}
		}
	}
	writeError(ctx, fasthttp.StatusNotFound, "not_found", "no route for "+method+" /"+path)
}

func (s *Server) routeSessions(ctx *fasthttp.RequestCtx, method string, rest []string) bool {
	switch len(rest) {
	case 0:
		if method == fasthttp.MethodPost {
			s.handleStart(ctx)
			return true
		}
	case 1:
		switch method {
		case fasthttp.MethodGet:
			s.handleGet(ctx, rest[0])
			return true
		case fasthttp.MethodDelete:
			s.handleEnd(ctx, rest[0])
			return true
		}
	case 2:
		switch {
		case rest[1] == "moves" && method == fasthttp.MethodPost:
			s.handleMove(ctx, rest[0])
			return true
		case rest[1] == "reset" && method == fasthttp.MethodPost:
			s.handleReset(ctx, rest[0])
			return true
		case rest[1] == "board.png" && method == fasthttp.MethodGet:
			s.handleBoard(ctx, rest[0])
			return true
		}
	}
	return false
}

func requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, requestTimeout)
}
