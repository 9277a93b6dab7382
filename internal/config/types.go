package config

import (
	"fmt"
	"time"
)

// 驱动类型
const (
	DriverUART  = "uart"  // tarm/serial
	DriverRS485 = "rs485" // tarm/serial + DE/RE GPIO
	DriverBugst = "bugst" // go.bug.st/serial
)

// 发布格式
const (
	FormatRaw   = "raw"   // 温度文本原样发布
	FormatEdgex = "edgex" // EdgeX MessageBus 信封
)

// MQTT 对应配置文件中的 [mqtt] 段
type MQTT struct {
	Host      string
	Port      int
	Username  string
	Password  string
	ClientID  string        // 客户端标识，同时作为主题前缀
	KeepAlive time.Duration // 心跳间隔
	QoS       byte          // 设备未配置 qos 时使用
	Format    string        // raw / edgex
}

// Bridge 对应可选的 [bridge] 段
type Bridge struct {
	Interval    time.Duration // 主循环周期
	DrainAll    bool          // 每个周期是否取出缓冲区内全部帧
	MetricsAddr string        // /metrics 与 /healthz 监听地址，空则不启动
}

// Device 描述一个 TMU 串口设备
type Device struct {
	Name        string        // 配置段名
	ID          string        // 设备标识，主题后缀
	Port        string        // 串口设备节点，如 /dev/ttyUSB0
	QoS         byte          // 发布 QoS
	Baudrate    int           // 波特率
	Driver      string        // uart/rs485/bugst
	ReadTimeout time.Duration // 单次读超时
	DEPin       int           // RS-485 DE/RE 控制 GPIO 编号，<0 表示不控制
}

// Config 汇总了 MQTT、Bridge 与全部设备
type Config struct {
	MQTT    MQTT
	Bridge  Bridge
	Devices []Device // 按配置文件顺序
}

// BrokerURL 返回 paho 使用的 broker 地址
func (m MQTT) BrokerURL() string {
	return fmt.Sprintf("tcp://%s:%d", m.Host, m.Port)
}
