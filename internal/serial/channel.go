package serial

import (
	"errors"
	"fmt"
)

// readChunk 单次读取的最大字节数
const readChunk = 256

// ErrPort 表示一次串口读取失败，可用 errors.Is 判断
var ErrPort = errors.New("serial: port read failed")

// PortError 携带出错设备信息
type PortError struct {
	Device string
	Err    error
}

func (e *PortError) Error() string {
	return fmt.Sprintf("serial: read %s: %v", e.Device, e.Err)
}

func (e *PortError) Unwrap() []error {
	return []error{ErrPort, e.Err}
}

// Channel 包装一个 Port 并持有接收缓冲区。
// 缓冲区只由 Poll 追加、由 NextFrame 消费，不做并发保护，
// 调用方需保证在同一个 goroutine 中使用。
type Channel struct {
	port Port
	buf  []byte
	tmp  []byte
}

// NewChannel 基于已打开的 Port 创建 Channel
func NewChannel(p Port) *Channel {
	return &Channel{port: p, tmp: make([]byte, readChunk)}
}

// Poll 读取一次新到达的数据并追加到缓冲区，返回读取的字节数。
// 读取失败时返回 *PortError；与错误一同返回的字节仍会追加，已缓冲的数据不丢弃。
func (c *Channel) Poll() (int, error) {
	n, err := c.port.Read(c.tmp)
	if n > 0 {
		c.buf = append(c.buf, c.tmp[:n]...)
	}
	if err != nil {
		return n, &PortError{Device: c.port.Device(), Err: err}
	}
	return n, nil
}

// NextFrame 从缓冲区取出最早的一帧
func (c *Channel) NextFrame() ([]byte, bool) {
	frame, rest, ok := ExtractFrame(c.buf)
	if !ok {
		return nil, false
	}
	c.buf = rest
	return frame, true
}

// Pending 返回尚未组成完整帧的字节
func (c *Channel) Pending() []byte {
	return c.buf
}

// Name 返回设备标识
func (c *Channel) Name() string {
	return c.port.Name()
}

// Device 返回串口设备节点
func (c *Channel) Device() string {
	return c.port.Device()
}

// Close 关闭底层串口
func (c *Channel) Close() error {
	return c.port.Close()
}
