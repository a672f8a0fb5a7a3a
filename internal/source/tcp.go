package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/colonyops/danmaku/internal/core/config"
	"github.com/colonyops/danmaku/internal/core/logging"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const readTimeout = 30 * time.Second

// TCPServer accepts one payload per connection: the client writes the
// message and closes its side.
type TCPServer struct {
	cfg     config.TCPSource
	sink    Sink
	limiter *rate.Limiter
	log     zerolog.Logger

	mu   sync.Mutex
	addr net.Addr
}

// NewTCPServer creates a TCP feed. A zero rate limit accepts every payload.
func NewTCPServer(cfg config.TCPSource, sink Sink) *TCPServer {
	s := &TCPServer{
		cfg:  cfg,
		sink: sink,
		log:  logging.Component("tcp"),
	}
	if cfg.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), max(cfg.Burst, 1))
	}
	return s
}

// Addr returns the bound address once the server is listening.
func (s *TCPServer) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *TCPServer) Run(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.cfg.ListenAddr())
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.ListenAddr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled. ln is closed on return.
func (s *TCPServer) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()

	s.log.Info().Str("addr", ln.Addr().String()).Msg("tcp feed listening")

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.log.Warn().Err(err).Msg("accept failed")
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			s.handle(ctx, conn)
		}()
	}
}

func (s *TCPServer) handle(ctx context.Context, conn net.Conn) {
	defer func() { _ = conn.Close() }()
	log := s.log.With().Str("remote", conn.RemoteAddr().String()).Logger()

	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	payload, err := ReadPayload(conn, s.cfg.MaxPayloadBytes)
	if err != nil {
		log.Warn().Err(err).Msg("payload dropped")
		return
	}
	if len(payload) == 0 {
		log.Debug().Msg("empty payload ignored")
		return
	}

	if s.limiter != nil && !s.limiter.Allow() {
		log.Warn().Int("bytes", len(payload)).Msg("rate limit exceeded, payload dropped")
		return
	}

	if err := s.sink.Submit(logging.WithSource(ctx, "tcp"), string(payload)); err != nil {
		log.Warn().Err(err).Msg("submit failed")
	}
}

// ReadPayload reads r to EOF. It fails with ErrPayloadTooLarge once more than
// limit bytes arrive; a non-positive limit reads without bound.
func ReadPayload(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}

	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrPayloadTooLarge, limit)
	}
	return data, nil
}

// Send dials a TCP feed at addr and writes one payload.
func Send(ctx context.Context, addr, payload string) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer func() { _ = conn.Close() }()

	if _, err := io.WriteString(conn, payload); err != nil {
		return fmt.Errorf("write payload: %w", err)
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		if err := tc.CloseWrite(); err != nil {
			return fmt.Errorf("close write: %w", err)
		}
	}
	return nil
}
