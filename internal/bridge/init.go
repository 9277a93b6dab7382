// internal/bridge/init.go
package bridge

import (
	"fmt"

	"github.com/edgexfoundry/go-mod-core-contracts/v4/clients/logger"

	"github.com/linjuya-lu/tmu2mqtt_go/internal/config"
	"github.com/linjuya-lu/tmu2mqtt_go/internal/mqtt"
	"github.com/linjuya-lu/tmu2mqtt_go/internal/serial"
)

// InitializeBridge 负责：
//  1. 创建连接状态 Supervisor 与 MQTT 客户端
//  2. 打开所有串口，任一失败则关闭已打开的并返回错误
//  3. 组装主循环
func InitializeBridge(cfg *config.Config, lc logger.LoggingClient) (*Bridge, error) {
	sup := NewSupervisor(lc)

	lc.Infof("Creating MQTT client for host=%s id=%s", cfg.MQTT.Host, cfg.MQTT.ClientID)
	client := mqtt.NewClient(mqtt.ClientOptions{
		Broker:    cfg.MQTT.BrokerURL(),
		ClientID:  cfg.MQTT.ClientID,
		Username:  cfg.MQTT.Username,
		Password:  cfg.MQTT.Password,
		KeepAlive: cfg.MQTT.KeepAlive,
	}, sup, lc)

	lc.Info("Opening serial ports for TMU sensors")
	devices := make([]*Device, 0, len(cfg.Devices))
	for _, dc := range cfg.Devices {
		lc.Infof("Adding serial port id=%s at serial port=%s", dc.ID, dc.Port)
		p, err := serial.NewPort(dc)
		if err == nil {
			err = p.Open()
		}
		if err != nil {
			closeDevices(devices, lc)
			return nil, fmt.Errorf("%w: TMU id=%s port=%s: %w", ErrPortOpen, dc.ID, dc.Port, err)
		}
		devices = append(devices, &Device{ID: dc.ID, QoS: dc.QoS, Channel: serial.NewChannel(p)})
	}

	return NewBridge(lc, sup, client, devices, Options{
		ClientID: cfg.MQTT.ClientID,
		Format:   cfg.MQTT.Format,
		Interval: cfg.Bridge.Interval,
		DrainAll: cfg.Bridge.DrainAll,
	}), nil
}

func closeDevices(devices []*Device, lc logger.LoggingClient) {
	for _, d := range devices {
		if err := d.Channel.Close(); err != nil {
			lc.Warnf("Closing serial port id=%s failed: %v", d.ID, err)
		}
	}
}
