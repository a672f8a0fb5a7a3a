package source

import (
	"context"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/colonyops/danmaku/internal/core/config"
	"github.com/colonyops/danmaku/internal/core/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type submission struct {
	raw    string
	source string
}

type recordingSink struct {
	mu   sync.Mutex
	subs []submission
}

func (r *recordingSink) Submit(ctx context.Context, raw string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = append(r.subs, submission{raw: raw, source: logging.GetSource(ctx)})
	return nil
}

func (r *recordingSink) Submissions() []submission {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]submission(nil), r.subs...)
}

func TestReadPayload(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		limit   int64
		want    string
		wantErr error
	}{
		{"under limit", "hello", 10, "hello", nil},
		{"exact limit", "hello", 5, "hello", nil},
		{"over limit", "hello!", 5, "", ErrPayloadTooLarge},
		{"unlimited", strings.Repeat("x", 1000), 0, strings.Repeat("x", 1000), nil},
		{"empty", "", 5, "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadPayload(strings.NewReader(tt.input), tt.limit)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func startTCP(t *testing.T, cfg config.TCPSource) (*TCPServer, *recordingSink, string) {
	t.Helper()

	sink := &recordingSink{}
	srv := NewTCPServer(cfg, sink)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(time.Second):
			t.Error("tcp server did not stop")
		}
	})

	return srv, sink, ln.Addr().String()
}

func TestTCPServer_OneMessagePerConnection(t *testing.T) {
	_, sink, addr := startTCP(t, config.TCPSource{Enabled: true, MaxPayloadBytes: 1024, Burst: 1})
	ctx := context.Background()

	require.NoError(t, Send(ctx, addr, "first\u001fextra"))
	require.NoError(t, Send(ctx, addr, "second"))

	require.Eventually(t, func() bool { return len(sink.Submissions()) == 2 }, time.Second, 5*time.Millisecond)

	got := map[string]string{}
	for _, s := range sink.Submissions() {
		got[s.raw] = s.source
	}
	assert.Equal(t, map[string]string{"first\u001fextra": "tcp", "second": "tcp"}, got)
}

func TestTCPServer_DropsOversizedAndEmpty(t *testing.T) {
	_, sink, addr := startTCP(t, config.TCPSource{Enabled: true, MaxPayloadBytes: 4, Burst: 1})
	ctx := context.Background()

	require.NoError(t, Send(ctx, addr, "too long"))
	require.NoError(t, Send(ctx, addr, ""))
	require.NoError(t, Send(ctx, addr, "ok"))

	require.Eventually(t, func() bool { return len(sink.Submissions()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	subs := sink.Submissions()
	require.Len(t, subs, 1)
	assert.Equal(t, "ok", subs[0].raw)
}

func TestTCPServer_RateLimit(t *testing.T) {
	_, sink, addr := startTCP(t, config.TCPSource{Enabled: true, MaxPayloadBytes: 64, RateLimit: 0.001, Burst: 2})
	ctx := context.Background()

	for range 5 {
		require.NoError(t, Send(ctx, addr, "spam"))
	}

	require.Eventually(t, func() bool { return len(sink.Submissions()) == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Len(t, sink.Submissions(), 2, "burst bounds accepted payloads")
}

func TestTCPServer_Addr(t *testing.T) {
	srv, _, addr := startTCP(t, config.TCPSource{Enabled: true, MaxPayloadBytes: 64, Burst: 1})
	require.Eventually(t, func() bool { return srv.Addr() != nil }, time.Second, 5*time.Millisecond)
	assert.Equal(t, addr, srv.Addr().String())
}

func TestTCPServer_RunFailsOnBadAddress(t *testing.T) {
	srv := NewTCPServer(config.TCPSource{Enabled: true, BindAddress: "256.0.0.1", Port: 1, MaxPayloadBytes: 1}, &recordingSink{})
	err := srv.Run(context.Background())
	require.Error(t, err)
}
