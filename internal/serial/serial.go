// internal/serial/serial.go

package serial

import (
	"fmt"

	"github.com/linjuya-lu/tmu2mqtt_go/internal/config"
)

// Port 是整个 serial 包对外暴露的通用串口接口。
// Read 不应长时间阻塞：超时无数据时返回 0 字节。
type Port interface {
	Open() error
	Close() error
	Read(p []byte) (int, error)
	// Name 返回设备标识
	Name() string
	// Device 返回串口设备节点
	Device() string
}

// NewPort 根据配置创建对应的串口实现（UART / RS-485 / go.bug.st）
func NewPort(cfg config.Device) (Port, error) {
	switch cfg.Driver {
	case config.DriverUART, "":
		return NewUARTPort(cfg), nil
	case config.DriverRS485:
		return NewRS485Port(cfg), nil
	case config.DriverBugst:
		return NewBugstPort(cfg), nil
	default:
		return nil, fmt.Errorf("unknown port driver %s", cfg.Driver)
	}
}
