package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/purushothaman-web/ThiraiView-sub000/internal/middleware"
)

const shutdownTimeout = 5 * time.Second

type Options struct {
	Addr string
	// CORSで許可するフロントのオリジン
	FrontendURL string
	Logger      zerolog.Logger
}

type Server struct {
	echo   *echo.Echo
	addr   string
	logger zerolog.Logger
}

// New はミドルウェアとルートを組み立てる
func New(opts Options, registrars ...RouteRegistrar) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(opts.Logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     allowedOrigins(opts.FrontendURL),
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))

	registerRoutes(e, registrars...)

	addr := opts.Addr
	if addr != "" && !strings.Contains(addr, ":") {
		addr = ":" + addr
	}
	return &Server{echo: e, addr: addr, logger: opts.Logger}
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run はctxがキャンセルされるまで待ち受け、その後graceful shutdownする
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.addr).Msg("server listening")
		if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.echo.Shutdown(shutdownCtx)
}

// FE_URLはカンマ区切りで複数指定できる
func allowedOrigins(feURL string) []string {
	var out []string
	for _, o := range strings.Split(feURL, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
