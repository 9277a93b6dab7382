package bridge

import (
	"errors"
	"time"

	"github.com/edgexfoundry/go-mod-core-contracts/v4/clients/logger"

	"github.com/linjuya-lu/tmu2mqtt_go/internal/config"
	"github.com/linjuya-lu/tmu2mqtt_go/internal/metrics"
	"github.com/linjuya-lu/tmu2mqtt_go/internal/mqtt"
	"github.com/linjuya-lu/tmu2mqtt_go/internal/tmu"
)

// Broker 是桥接所需的 broker 客户端能力，*mqtt.Client 实现了它。
// Connect 为异步调用，结果通过 Supervisor 回报。
type Broker interface {
	Connect()
	Publish(topic string, qos byte, retained bool, payload []byte) error
	Disconnect(quiesce uint)
}

// Topic 返回设备的发布主题 {clientId}/{deviceId}
func Topic(clientID, deviceID string) string {
	return clientID + "/" + deviceID
}

// Publisher 把读数发布到 broker，失败时丢弃读数，不重试
type Publisher struct {
	broker   Broker
	sup      *Supervisor
	clientID string
	format   string
	lc       logger.LoggingClient
	now      func() time.Time
}

func NewPublisher(broker Broker, sup *Supervisor, clientID, format string, lc logger.LoggingClient) *Publisher {
	if format == "" {
		format = config.FormatRaw
	}
	return &Publisher{
		broker:   broker,
		sup:      sup,
		clientID: clientID,
		format:   format,
		lc:       lc,
		now:      time.Now,
	}
}

// Publish 发布一条读数。未连接时跳过并返回 mqtt.ErrNotConnected。
func (p *Publisher) Publish(d *Device, r tmu.Reading) error {
	if state := p.sup.Snapshot().State; state != Connected {
		p.lc.Debugf("MQTT %s, skip publish id=%s temp=%s", state, d.ID, r.Temperature)
		metrics.PublishErrors.WithLabelValues(d.ID, "not_connected").Inc()
		return mqtt.ErrNotConnected
	}

	payload, err := p.payload(r)
	if err != nil {
		p.lc.Errorf("Encoding reading id=%s failed: %v", d.ID, err)
		metrics.PublishErrors.WithLabelValues(d.ID, "encode").Inc()
		return err
	}

	topic := Topic(p.clientID, d.ID)
	p.lc.Debugf("Publishing topic=%s msg=%s", topic, payload)
	if err := p.broker.Publish(topic, d.QoS, false, payload); err != nil {
		reason := "publish"
		if errors.Is(err, mqtt.ErrNotConnected) {
			reason = "not_connected"
		}
		p.lc.Warnf("Publishing id=%s topic=%s failed: %v", d.ID, topic, err)
		metrics.PublishErrors.WithLabelValues(d.ID, reason).Inc()
		return err
	}
	metrics.Published.WithLabelValues(d.ID).Inc()
	return nil
}

func (p *Publisher) payload(r tmu.Reading) ([]byte, error) {
	if p.format == config.FormatEdgex {
		return mqtt.NewTemperatureMessage(r.DeviceID, r.Temperature, p.now())
	}
	return []byte(r.Temperature), nil
}
