package bridge

import "errors"

var (
	// ErrUnhandledFault 主循环内出现未处理的异常
	ErrUnhandledFault = errors.New("bridge: unhandled fault in tick loop")
	// ErrPortOpen 启动时无法打开串口
	ErrPortOpen = errors.New("bridge: unable to open serial port")
)
