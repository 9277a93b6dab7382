// Package metrics 导出桥接运行指标（Prometheus）与健康检查接口。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "tmu2mqtt"

var (
	BytesRead = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "serial_bytes_read_total",
			Help:      "Bytes read from the serial port, by device.",
		},
		[]string{"device"},
	)
	PortErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "serial_read_errors_total",
			Help:      "Failed serial reads, by device.",
		},
		[]string{"device"},
	)
	Frames = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Terminated frames extracted, by device.",
		},
		[]string{"device"},
	)
	InvalidFrames = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_invalid_total",
			Help:      "Frames rejected by validation, by device.",
		},
		[]string{"device"},
	)
	Published = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readings_published_total",
			Help:      "Readings handed to the MQTT client, by device.",
		},
		[]string{"device"},
	)
	PublishErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readings_dropped_total",
			Help:      "Readings dropped because publishing failed, by device and reason.",
		},
		[]string{"device", "reason"},
	)
	Reconnects = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mqtt_reconnects_total",
			Help:      "Reconnect attempts issued by the bridge loop.",
		},
	)
	Connected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mqtt_connected",
			Help:      "1 while the MQTT broker connection is up.",
		},
	)
)

func init() {
	prometheus.MustRegister(BytesRead, PortErrors, Frames, InvalidFrames, Published, PublishErrors, Reconnects, Connected)
}

// SetConnected 更新连接状态指标
func SetConnected(up bool) {
	if up {
		Connected.Set(1)
		return
	}
	Connected.Set(0)
}
