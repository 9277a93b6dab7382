package serial

import (
	"fmt"
	"io"
	"time"

	"github.com/linjuya-lu/tmu2mqtt_go/internal/config"
	"github.com/tarm/serial"
)

// vtime 的最小粒度是 0.1 秒
const minTarmTimeout = 100 * time.Millisecond

type UARTPort struct {
	cfg    config.Device
	handle *serial.Port
}

func NewUARTPort(cfg config.Device) Port {
	return &UARTPort{cfg: cfg}
}

func (u *UARTPort) Open() error {
	p, err := openTarm(u.cfg)
	if err != nil {
		return fmt.Errorf("open UART %s failed: %w", u.cfg.Port, err)
	}
	u.handle = p
	return nil
}

func (u *UARTPort) Close() error {
	if u.handle != nil {
		return u.handle.Close()
	}
	return nil
}

// Read 超时无数据时返回 0, nil
func (u *UARTPort) Read(p []byte) (int, error) {
	if u.handle == nil {
		return 0, fmt.Errorf("UART %s is not open", u.cfg.Port)
	}
	return tarmRead(u.handle, p)
}

// Name 返回逻辑名称
func (u *UARTPort) Name() string {
	return u.cfg.ID
}

func (u *UARTPort) Device() string {
	return u.cfg.Port
}

// openTarm 以非阻塞方式（VMIN=0）打开串口
func openTarm(cfg config.Device) (*serial.Port, error) {
	timeout := cfg.ReadTimeout
	if timeout < minTarmTimeout {
		timeout = minTarmTimeout
	}
	sc := &serial.Config{
		Name:        cfg.Port,
		Baud:        cfg.Baudrate,
		ReadTimeout: timeout,
	}
	return serial.OpenPort(sc)
}

// tarmRead 把读超时产生的 io.EOF 视为“无数据”
func tarmRead(p *serial.Port, buf []byte) (int, error) {
	n, err := p.Read(buf)
	if err == io.EOF {
		return n, nil
	}
	return n, err
}
