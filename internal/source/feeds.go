package source

import (
	"context"

	"github.com/colonyops/danmaku/internal/core/config"
	"golang.org/x/sync/errgroup"
)

// Feeds groups the enabled feeds. Disabled feeds are nil.
type Feeds struct {
	TCP  *TCPServer
	MQTT *MQTTSubscriber
}

// NewFeeds builds the feeds enabled in cfg, all submitting to sink.
func NewFeeds(cfg config.Sources, sink Sink) *Feeds {
	f := &Feeds{}
	if cfg.TCP.Enabled {
		f.TCP = NewTCPServer(cfg.TCP, sink)
	}
	if cfg.MQTT.Enabled {
		f.MQTT = NewMQTTSubscriber(cfg.MQTT, sink)
	}
	return f
}

// Names lists the enabled feeds.
func (f *Feeds) Names() []string {
	var names []string
	if f.TCP != nil {
		names = append(names, "tcp")
	}
	if f.MQTT != nil {
		names = append(names, "mqtt")
	}
	return names
}

// Run serves every enabled feed until ctx is cancelled or one fails.
func (f *Feeds) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	if f.TCP != nil {
		g.Go(func() error { return f.TCP.Run(ctx) })
	}
	if f.MQTT != nil {
		g.Go(func() error { return f.MQTT.Run(ctx) })
	}
	return g.Wait()
}

// ToggleMute flips the MQTT mute switch and returns the new state. It returns
// false when MQTT is disabled.
func (f *Feeds) ToggleMute() bool {
	if f.MQTT == nil {
		return false
	}
	muted := !f.MQTT.Muted()
	f.MQTT.SetMuted(muted)
	return muted
}
