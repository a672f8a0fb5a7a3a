package source

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/colonyops/danmaku/internal/core/config"
	"github.com/colonyops/danmaku/internal/core/logging"
)

const connectTimeout = 5 * time.Second

// MQTTSubscriber turns every message published on the configured topics into
// one payload.
type MQTTSubscriber struct {
	cfg      config.MQTTSource
	sink     Sink
	clientID string
	log      zerolog.Logger
	muted    atomic.Bool

	received atomic.Int64
	dropped  atomic.Int64
}

// NewMQTTSubscriber creates an MQTT feed. An empty client id is replaced by a
// random one so several overlays can share a broker.
func NewMQTTSubscriber(cfg config.MQTTSource, sink Sink) *MQTTSubscriber {
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "danmaku-" + uuid.NewString()
	}

	s := &MQTTSubscriber{
		cfg:      cfg,
		sink:     sink,
		clientID: clientID,
		log:      logging.Component("mqtt").With().Str("broker", cfg.Broker).Logger(),
	}
	s.muted.Store(cfg.Mute)
	return s
}

// ClientID returns the id presented to the broker.
func (s *MQTTSubscriber) ClientID() string { return s.clientID }

// SetMuted drops incoming messages while muted.
func (s *MQTTSubscriber) SetMuted(muted bool) {
	s.muted.Store(muted)
	s.log.Info().Bool("muted", muted).Msg("mqtt feed mute changed")
}

// Muted reports whether incoming messages are dropped.
func (s *MQTTSubscriber) Muted() bool { return s.muted.Load() }

// Counts returns the number of messages received and dropped so far.
func (s *MQTTSubscriber) Counts() (received, dropped int64) {
	return s.received.Load(), s.dropped.Load()
}

// Run connects to the broker and subscribes until ctx is cancelled. Failing to
// reach the broker is not fatal: the client keeps retrying in the background.
func (s *MQTTSubscriber) Run(ctx context.Context) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(s.cfg.Broker)
	opts.SetClientID(s.clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnect = func(c mqtt.Client) {
		s.log.Info().Str("client_id", s.clientID).Msg("mqtt connection established")
		s.subscribe(ctx, c)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		s.log.Warn().Err(err).Msg("mqtt connection lost, will auto-reconnect")
	}

	client := mqtt.NewClient(opts)

	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		s.log.Warn().Dur("timeout", connectTimeout).Msg("mqtt broker not reachable yet, retrying in background")
	} else if err := token.Error(); err != nil {
		s.log.Warn().Err(err).Msg("mqtt connection failed")
	}

	<-ctx.Done()
	client.Disconnect(250)
	s.log.Info().Msg("mqtt feed stopped")
	return nil
}

// subscribe (re)subscribes to every topic; it runs on each (re)connect.
func (s *MQTTSubscriber) subscribe(ctx context.Context, c mqtt.Client) {
	filters := make(map[string]byte, len(s.cfg.Topics))
	for _, t := range s.cfg.Topics {
		filters[t] = byte(s.cfg.QoS)
	}

	token := c.SubscribeMultiple(filters, func(_ mqtt.Client, msg mqtt.Message) {
		s.handle(ctx, msg.Topic(), msg.Payload())
	})
	if !token.WaitTimeout(connectTimeout) {
		s.log.Warn().Msg("mqtt subscription timeout")
		return
	}
	if err := token.Error(); err != nil {
		s.log.Warn().Err(err).Msg("mqtt subscription failed")
		return
	}
	s.log.Info().Strs("topics", s.cfg.Topics).Int("qos", s.cfg.QoS).Msg("subscribed")
}

func (s *MQTTSubscriber) handle(ctx context.Context, topic string, payload []byte) {
	s.received.Add(1)

	if s.muted.Load() {
		s.dropped.Add(1)
		return
	}
	if s.ignored(topic) {
		s.dropped.Add(1)
		s.log.Debug().Str("topic", topic).Msg("ignored topic")
		return
	}

	ctx = logging.WithSource(ctx, fmt.Sprintf("mqtt:%s", topic))
	if err := s.sink.Submit(ctx, string(payload)); err != nil {
		s.dropped.Add(1)
		s.log.Warn().Err(err).Str("topic", topic).Msg("submit failed")
	}
}

// ignored reports whether topic matches one of the ignore globs. Patterns are
// validated at config load, so match errors count as no match.
func (s *MQTTSubscriber) ignored(topic string) bool {
	for _, pattern := range s.cfg.IgnoreTopics {
		if ok, _ := doublestar.Match(pattern, topic); ok {
			return true
		}
	}
	return false
}
