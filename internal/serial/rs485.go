package serial

import (
	"fmt"
	"os"
	"time"

	"github.com/linjuya-lu/tmu2mqtt_go/internal/config"
	"github.com/tarm/serial"
)

// gpioRoot 为 sysfs GPIO 根目录，测试时可替换
var gpioRoot = "/sys/class/gpio"

// RS485Port 用于挂在 RS-485 总线上的 TMU：
// - Open 导出 GPIO 并把 DE/RE 拉低（接收模式），再打开串口
// - TMU 只上报数据，这里不做发送切换
type RS485Port struct {
	cfg    config.Device // 端口配置
	port   *serial.Port  // 串口句柄
	gpioFD *os.File      // DE/RE 控制 GPIO 节点
}

// 构造 RS485Port 实例
func NewRS485Port(cfg config.Device) Port {
	return &RS485Port{cfg: cfg}
}

// Open 导出 GPIO 并打开串口
func (r *RS485Port) Open() error {
	if r.cfg.DEPin >= 0 {
		f, err := receiveMode(r.cfg.DEPin)
		if err != nil {
			return err
		}
		r.gpioFD = f
	}

	p, err := openTarm(r.cfg)
	if err != nil {
		if r.gpioFD != nil {
			r.gpioFD.Close()
			r.gpioFD = nil
		}
		return fmt.Errorf("open serial %s failed: %w", r.cfg.Port, err)
	}
	r.port = p
	return nil
}

// Close 关闭串口和 GPIO
func (r *RS485Port) Close() error {
	var firstErr error
	if r.port != nil {
		if err := r.port.Close(); err != nil {
			firstErr = err
		}
	}
	if r.gpioFD != nil {
		if err := r.gpioFD.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Read 实现 io.Reader
func (r *RS485Port) Read(p []byte) (int, error) {
	if r.port == nil {
		return 0, fmt.Errorf("serial %s is not open", r.cfg.Port)
	}
	return tarmRead(r.port, p)
}

// Name 返回端口名称
func (r *RS485Port) Name() string {
	return r.cfg.ID
}

func (r *RS485Port) Device() string {
	return r.cfg.Port
}

// receiveMode 导出 DE/RE 引脚并保持低电平
func receiveMode(pin int) (*os.File, error) {
	if err := exportGPIO(pin); err != nil {
		return nil, fmt.Errorf("export GPIO %d failed: %w", pin, err)
	}
	time.Sleep(100 * time.Millisecond)
	if err := setGPIODirection(pin, "out"); err != nil {
		return nil, fmt.Errorf("set GPIO %d direction: %w", pin, err)
	}
	f, err := openGPIOValue(pin)
	if err != nil {
		return nil, fmt.Errorf("open GPIO %d value: %w", pin, err)
	}
	// 低电平 (接收)
	if _, err := f.WriteString("0"); err != nil {
		f.Close()
		return nil, fmt.Errorf("init GPIO %d low: %w", pin, err)
	}
	return f, nil
}

// -------- GPIO 辅助函数 --------
func exportGPIO(pin int) error {
	f, err := os.OpenFile(gpioRoot+"/export", os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	defer f.Close()
	_, _ = f.WriteString(fmt.Sprint(pin)) // 若已导出则忽略错误
	return nil
}

func setGPIODirection(pin int, dir string) error {
	path := fmt.Sprintf("%s/gpio%d/direction", gpioRoot, pin)
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(dir)
	return err
}

func openGPIOValue(pin int) (*os.File, error) {
	path := fmt.Sprintf("%s/gpio%d/value", gpioRoot, pin)
	return os.OpenFile(path, os.O_RDWR, 0)
}
