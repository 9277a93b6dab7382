// Package tmu 解析 TMU 温度测量单元上报的文本帧。
//
// 有效帧形如 "*0001+23.45"：首字符为 '*'，长度至少 11 个字符，
// 温度取第 5 到第 10 个字符（含），原样发布，不做数值转换。
package tmu

import (
	"errors"
	"fmt"
)

const (
	frameStart = '*'
	// MinFrameLen 有效帧的最小长度
	MinFrameLen = 11

	tempStart = 5
	tempEnd   = 11
)

var (
	// ErrInvalidFrame 帧格式不合法
	ErrInvalidFrame = errors.New("tmu: invalid frame")
	// ErrNotASCII 帧中含有非 ASCII 字节，按无效帧处理
	ErrNotASCII = errors.New("tmu: frame is not ASCII")
)

// Reading 是一次解析成功的温度读数
type Reading struct {
	DeviceID    string
	Temperature string
}

// FrameError 描述被丢弃的帧
type FrameError struct {
	DeviceID string
	Text     string
	Err      error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("device %s: %v: %q", e.DeviceID, e.Err, e.Text)
}

// Unwrap 使 ErrNotASCII 同时满足 ErrInvalidFrame
func (e *FrameError) Unwrap() []error {
	if e.Err == ErrInvalidFrame {
		return []error{ErrInvalidFrame}
	}
	return []error{ErrInvalidFrame, e.Err}
}

// ParseFrame 校验一帧并取出温度文本
func ParseFrame(deviceID string, frame []byte) (Reading, error) {
	for _, b := range frame {
		if b > 0x7F {
			return Reading{}, &FrameError{DeviceID: deviceID, Text: fmt.Sprintf("% X", frame), Err: ErrNotASCII}
		}
	}
	text := string(frame)
	if len(text) < MinFrameLen || text[0] != frameStart {
		return Reading{}, &FrameError{DeviceID: deviceID, Text: text, Err: ErrInvalidFrame}
	}
	return Reading{DeviceID: deviceID, Temperature: text[tempStart:tempEnd]}, nil
}
