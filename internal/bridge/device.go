package bridge

import "github.com/linjuya-lu/tmu2mqtt_go/internal/serial"

// Device 是注册到桥接中的一个 TMU，按配置顺序处理
type Device struct {
	ID      string
	QoS     byte
	Channel *serial.Channel
}
