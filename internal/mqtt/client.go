package mqtt

import (
	"errors"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/edgexfoundry/go-mod-core-contracts/v4/clients/logger"
)

const (
	// DefaultConnectTimeout 单次连接超时
	DefaultConnectTimeout = 10 * time.Second
	// DisconnectQuiesce 断开前等待未完成操作的时间（毫秒）
	DisconnectQuiesce = 250

	maxQoS = 2
)

var (
	// ErrNotConnected 未连接时发布
	ErrNotConnected = errors.New("mqtt: client not connected")
	// ErrPublishFailed 发布失败
	ErrPublishFailed = errors.New("mqtt: publish failed")
	// ErrInvalidQoS QoS 只能是 0、1、2
	ErrInvalidQoS = errors.New("mqtt: invalid QoS level (must be 0, 1, or 2)")
	// ErrInvalidTopic 主题为空
	ErrInvalidTopic = errors.New("mqtt: topic cannot be empty")
)

// ClientOptions 配置 MQTT 客户端行为
// Broker: tcp://host:port
// ClientID: 客户端标识
// Username/Password: 可选认证
// KeepAlive: 心跳间隔
// ConnectTimeout: 连接超时
type ClientOptions struct {
	Broker         string
	ClientID       string
	Username       string
	Password       string
	KeepAlive      time.Duration
	ConnectTimeout time.Duration
}

// ConnectionListener 接收连接结果与意外断线通知。
// 回调在 paho 的 goroutine 中执行。
type ConnectionListener interface {
	ConnectResult(err error)
	ConnectionLost(err error)
}

// Client 封装 Paho MQTT 客户端：
// 连接是异步的，结果通过 ConnectionListener 回报；
// 自动重连关闭，由调用方决定何时重连。
type Client struct {
	inner    paho.Client
	opts     ClientOptions
	listener ConnectionListener
	lc       logger.LoggingClient

	mu         sync.Mutex
	connecting bool
}

// NewClient 创建客户端，但不发起连接
func NewClient(opts ClientOptions, listener ConnectionListener, lc logger.LoggingClient) *Client {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}
	c := &Client{opts: opts, listener: listener, lc: lc}

	p := paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetKeepAlive(opts.KeepAlive).
		SetConnectTimeout(opts.ConnectTimeout).
		SetCleanSession(true).
		SetAutoReconnect(false).
		SetConnectRetry(false).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			c.listener.ConnectionLost(err)
		})
	if opts.Username != "" {
		p.SetUsername(opts.Username)
	}
	if opts.Password != "" {
		p.SetPassword(opts.Password)
	}
	c.inner = paho.NewClient(p)
	return c
}

// Connect 发起一次异步连接；上一次尝试尚未结束时直接返回
func (c *Client) Connect() {
	c.mu.Lock()
	if c.connecting {
		c.mu.Unlock()
		return
	}
	c.connecting = true
	c.mu.Unlock()

	c.lc.Debugf("MQTT connecting to %s as %s", c.opts.Broker, c.opts.ClientID)
	tok := c.inner.Connect()
	go func() {
		<-tok.Done()
		c.mu.Lock()
		c.connecting = false
		c.mu.Unlock()
		c.listener.ConnectResult(tok.Error())
	}()
}

// Publish 把消息交给 paho 发送，不等待 broker 确认。
// 立即可知的失败（未连接、参数非法、已完成的 token 出错）直接返回；
// 之后才出现的失败只记录日志。
func (c *Client) Publish(topic string, qos byte, retained bool, payload []byte) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if !c.inner.IsConnectionOpen() {
		return ErrNotConnected
	}

	tok := c.inner.Publish(topic, qos, retained, payload)
	select {
	case <-tok.Done():
		if err := tok.Error(); err != nil {
			return fmt.Errorf("%w: %w", ErrPublishFailed, err)
		}
		return nil
	default:
	}

	go func() {
		<-tok.Done()
		if err := tok.Error(); err != nil {
			c.lc.Warnf("MQTT publish topic=%s failed: %v", topic, err)
		}
	}()
	return nil
}

// IsConnected 返回当前连接是否可用
func (c *Client) IsConnected() bool {
	return c.inner.IsConnectionOpen()
}

// Disconnect 断开与 Broker 的连接
func (c *Client) Disconnect(quiesce uint) {
	c.inner.Disconnect(quiesce)
}
