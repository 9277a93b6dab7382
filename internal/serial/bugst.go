package serial

import (
	"fmt"

	"github.com/linjuya-lu/tmu2mqtt_go/internal/config"
	bugst "go.bug.st/serial"
)

// BugstPort 基于 go.bug.st/serial，适合 USB CDC/ACM 转换器
type BugstPort struct {
	cfg  config.Device
	port bugst.Port
}

func NewBugstPort(cfg config.Device) Port {
	return &BugstPort{cfg: cfg}
}

func (b *BugstPort) Open() error {
	mode := &bugst.Mode{
		BaudRate: b.cfg.Baudrate,
		DataBits: 8,
		Parity:   bugst.NoParity,
		StopBits: bugst.OneStopBit,
	}
	p, err := bugst.Open(b.cfg.Port, mode)
	if err != nil {
		return fmt.Errorf("open serial %s failed: %w", b.cfg.Port, err)
	}
	if err := p.SetReadTimeout(b.cfg.ReadTimeout); err != nil {
		p.Close()
		return fmt.Errorf("set read timeout on %s: %w", b.cfg.Port, err)
	}
	b.port = p
	return nil
}

func (b *BugstPort) Close() error {
	if b.port != nil {
		return b.port.Close()
	}
	return nil
}

// Read 超时返回 0, nil；超时为 0 时不阻塞
func (b *BugstPort) Read(p []byte) (int, error) {
	if b.port == nil {
		return 0, fmt.Errorf("serial %s is not open", b.cfg.Port)
	}
	return b.port.Read(p)
}

func (b *BugstPort) Name() string {
	return b.cfg.ID
}

func (b *BugstPort) Device() string {
	return b.cfg.Port
}
