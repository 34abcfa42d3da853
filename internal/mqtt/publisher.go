package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"duckwatch/internal/config"
	"duckwatch/internal/metrics"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	statusQoS      = 1
	publishTimeout = 5 * time.Second
)

var (
	ErrNotConnected = errors.New("mqtt publisher not connected")
	ErrStopped      = errors.New("mqtt publisher stopped")
)

// Publisher pushes pond status snapshots to the broker as retained messages,
// so a dashboard subscribing late still gets the latest view of every pond.
type Publisher struct {
	client      mqtt.Client
	topicPrefix string
	recorder    *metrics.Recorder
	logger      *slog.Logger

	mu        sync.RWMutex
	connected bool

	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewPublisher(cfg config.Config, recorder *metrics.Recorder, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Publisher{
		topicPrefix: cfg.MQTTTopicPrefix,
		recorder:    recorder,
		logger:      logger,
		stopCh:      make(chan struct{}),
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.MQTTBroker, cfg.MQTTPort))
	opts.SetClientID(cfg.MQTTClientID)
	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)

	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		p.setConnected(true)
		logger.Info("mqtt connected", "broker", cfg.MQTTBroker, "port", cfg.MQTTPort)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		p.setConnected(false)
		logger.Warn("mqtt connection lost", "error", err)
	})

	p.client = mqtt.NewClient(opts)
	return p
}

// StatusTopic is the retained topic carrying one pond's status view.
func StatusTopic(prefix, pondID string) string {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		return pondID + "/status"
	}
	return prefix + "/" + pondID + "/status"
}

// Connect waits for the first broker connection. It returns early when ctx
// is done or Disconnect has been called.
func (p *Publisher) Connect(ctx context.Context) error {
	select {
	case <-p.stopCh:
		return ErrStopped
	default:
	}
	if p.IsConnected() {
		return nil
	}

	token := p.client.Connect()
	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.stopCh:
			return ErrStopped
		default:
		}
	}
}

// PublishStatus marshals v as JSON and publishes it retained on the pond's
// status topic.
func (p *Publisher) PublishStatus(pondID string, v any) (err error) {
	defer func() { p.recorder.ObserveMQTTPublish(err == nil) }()

	if !p.IsConnected() {
		return ErrNotConnected
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal status for pond %q: %w", pondID, err)
	}

	topic := StatusTopic(p.topicPrefix, pondID)
	token := p.client.Publish(topic, statusQoS, true, data)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish timeout for topic %s", topic)
	}
	if err := token.Error(); err != nil {
		p.logger.Error("failed to publish pond status", "topic", topic, "error", err)
		return fmt.Errorf("publish status: %w", err)
	}

	p.logger.Debug("published pond status", "topic", topic, "pond_id", pondID, "bytes", len(data))
	return nil
}

func (p *Publisher) IsConnected() bool {
	p.mu.RLock()
	connected := p.connected
	p.mu.RUnlock()
	return connected && p.client.IsConnected()
}

// Disconnect is idempotent. Connect fails with ErrStopped afterwards.
func (p *Publisher) Disconnect() {
	p.stopOnce.Do(func() { close(p.stopCh) })
	if p.client != nil {
		p.client.Disconnect(250)
	}
	p.setConnected(false)
	p.logger.Info("mqtt disconnected")
}

func (p *Publisher) setConnected(v bool) {
	p.mu.Lock()
	p.connected = v
	p.mu.Unlock()
}
