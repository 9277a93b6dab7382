package bridge

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/edgexfoundry/go-mod-core-contracts/v4/clients/logger"

	"github.com/linjuya-lu/tmu2mqtt_go/internal/config"
	"github.com/linjuya-lu/tmu2mqtt_go/internal/metrics"
	"github.com/linjuya-lu/tmu2mqtt_go/internal/mqtt"
	"github.com/linjuya-lu/tmu2mqtt_go/internal/tmu"
)

// State 为主循环状态
type State int32

const (
	Idle State = iota
	Running
	Stopping
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Options 主循环参数
type Options struct {
	ClientID string
	Format   string        // raw / edgex
	Interval time.Duration // 每个 tick 之后的等待
	DrainAll bool          // 每个 tick 取出全部已缓冲的帧
}

// Bridge 是唯一的控制循环
type Bridge struct {
	lc      logger.LoggingClient
	sup     *Supervisor
	broker  Broker
	pub     *Publisher
	devices []*Device
	opts    Options
	now     func() time.Time

	state     atomic.Int32
	observers []func(tmu.Reading)
}

// NewBridge 组装主循环；devices 的顺序即处理顺序
func NewBridge(lc logger.LoggingClient, sup *Supervisor, broker Broker, devices []*Device, opts Options) *Bridge {
	if opts.Interval <= 0 {
		opts.Interval = config.DefaultInterval
	}
	return &Bridge{
		lc:      lc,
		sup:     sup,
		broker:  broker,
		pub:     NewPublisher(broker, sup, opts.ClientID, opts.Format, lc),
		devices: devices,
		opts:    opts,
		now:     time.Now,
	}
}

// OnReading 注册读数观察者，需在 Run 之前调用
func (b *Bridge) OnReading(fn func(tmu.Reading)) {
	b.observers = append(b.observers, fn)
}

func (b *Bridge) Supervisor() *Supervisor { return b.sup }

func (b *Bridge) Devices() []*Device { return b.devices }

func (b *Bridge) State() State { return State(b.state.Load()) }

func (b *Bridge) setState(s State) { b.state.Store(int32(s)) }

// Run 运行主循环直到 ctx 结束。
// ctx 结束后当前 tick 执行完毕再退出；tick 内发生 panic 时执行停止流程
// 并返回 ErrUnhandledFault。
func (b *Bridge) Run(ctx context.Context) error {
	b.setState(Running)
	b.lc.Info("*** tmu2mqtt bridge starting")
	b.connect()

	timer := time.NewTimer(b.opts.Interval)
	defer timer.Stop()
	for ctx.Err() == nil {
		if err := b.safeTick(); err != nil {
			b.lc.Errorf("Fatal error in bridge loop: %v", err)
			b.shutdown()
			return err
		}

		timer.Reset(b.opts.Interval)
		select {
		case <-ctx.Done():
		case <-timer.C:
		}
	}

	b.lc.Info("Stopping tmu2mqtt bridge")
	b.shutdown()
	return nil
}

func (b *Bridge) safeTick() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v\n%s", ErrUnhandledFault, r, debug.Stack())
		}
	}()
	b.Tick()
	return nil
}

// Tick 执行一次循环：连接异常时只做重连，否则依次处理所有设备
func (b *Bridge) Tick() {
	snap := b.sup.Snapshot()
	if snap.NeedsReconnect() {
		if snap.ReconnectDue(b.now()) {
			b.lc.Warnf("MQTT Reconnecting... failures=%d", snap.Failures)
			metrics.Reconnects.Inc()
			b.connect()
		}
		return
	}

	for _, d := range b.devices {
		b.processDevice(d)
	}
}

func (b *Bridge) connect() {
	b.sup.BeginConnect()
	b.broker.Connect()
}

func (b *Bridge) processDevice(d *Device) {
	n, err := d.Channel.Poll()
	if err != nil {
		b.lc.Warnf("Reading serial port id=%s failed: %v", d.ID, err)
		metrics.PortErrors.WithLabelValues(d.ID).Inc()
	}
	if n > 0 {
		pending := d.Channel.Pending()
		b.lc.Debugf("received id=%s data=%q", d.ID, pending[len(pending)-n:])
		metrics.BytesRead.WithLabelValues(d.ID).Add(float64(n))
	}

	for {
		frame, ok := d.Channel.NextFrame()
		if !ok {
			return
		}
		metrics.Frames.WithLabelValues(d.ID).Inc()
		b.handleFrame(d, frame)
		if !b.opts.DrainAll {
			return
		}
	}
}

func (b *Bridge) handleFrame(d *Device, frame []byte) {
	b.lc.Debugf("processing TMU data id=%s data=%q", d.ID, frame)
	r, err := tmu.ParseFrame(d.ID, frame)
	if err != nil {
		b.lc.Warnf("Invalid data received: %v", err)
		metrics.InvalidFrames.WithLabelValues(d.ID).Inc()
		return
	}

	b.lc.Infof("Temperature id=%s temp=%s", d.ID, r.Temperature)
	for _, fn := range b.observers {
		fn(r)
	}
	// 失败已记录，读数直接丢弃
	_ = b.pub.Publish(d, r)
}

// shutdown 断开 broker 并关闭全部串口
func (b *Bridge) shutdown() {
	b.setState(Stopping)
	b.broker.Disconnect(mqtt.DisconnectQuiesce)
	for _, d := range b.devices {
		if err := d.Channel.Close(); err != nil {
			b.lc.Errorf("Closing serial port id=%s failed: %v", d.ID, err)
		}
	}
	b.lc.Info("tmu2mqtt stopped.")
	b.setState(Stopped)
}

// Health 供 /healthz 使用：已连接 broker 时健康
func (b *Bridge) Health() (bool, any) {
	snap := b.sup.Snapshot()
	return snap.State == Connected, struct {
		Bridge string `json:"bridge"`
		Snapshot
	}{Bridge: b.State().String(), Snapshot: snap}
}
