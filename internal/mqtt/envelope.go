package mqtt

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EdgexMessage 是 EdgeX MessageBus 的通用消息格式
type EdgexMessage struct {
	ApiVersion    string      `json:"apiVersion"`
	ReceivedTopic string      `json:"receivedTopic,omitempty"`
	CorrelationID string      `json:"correlationID"`
	RequestID     string      `json:"requestID"`
	ErrorCode     int         `json:"errorCode"`
	Payload       interface{} `json:"payload,omitempty"`
	ContentType   string      `json:"contentType"`
}

// TemperaturePayload 是 payload 部分的结构
type TemperaturePayload struct {
	Device      string `json:"device"`
	Timestamp   int64  `json:"timestamp"`   // Unix 纳秒
	Temperature string `json:"temperature"` // 原始温度文本
}

// NewTemperatureMessage 组装一条 EdgeX 格式的温度消息
func NewTemperatureMessage(deviceID, temperature string, at time.Time) ([]byte, error) {
	msg := EdgexMessage{
		ApiVersion:    "v3",
		CorrelationID: uuid.NewString(),
		RequestID:     uuid.NewString(),
		ErrorCode:     0,
		Payload: TemperaturePayload{
			Device:      deviceID,
			Timestamp:   at.UnixNano(),
			Temperature: temperature,
		},
		ContentType: "application/json",
	}
	return json.Marshal(msg)
}
