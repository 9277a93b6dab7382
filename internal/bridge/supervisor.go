package bridge

import (
	"sync"
	"time"

	"github.com/edgexfoundry/go-mod-core-contracts/v4/clients/logger"

	"github.com/linjuya-lu/tmu2mqtt_go/internal/metrics"
)

// ConnState 为 broker 连接状态
type ConnState int

const (
	Disconnected ConnState = iota
	Connecting
	Connected
)

func (s ConnState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}

const (
	// MaxFailures 连续失败计数上限，退避最长 2^12 秒
	MaxFailures = 12
	// LostBackoff 意外断线后的重连等待
	LostBackoff = 10 * time.Second
)

// Snapshot 是某一时刻的连接状态副本
type Snapshot struct {
	State    ConnState     `json:"state"`
	Failures int           `json:"failures"`
	Backoff  time.Duration `json:"backoff"`
	Lost     bool          `json:"lost"`
	Since    time.Time     `json:"since"` // 进入当前状态的时间
}

// NeedsReconnect 连接失败或意外断线后、重新连上之前为 true
func (s Snapshot) NeedsReconnect() bool {
	return s.State != Connected && (s.Failures > 0 || s.Lost)
}

// ReconnectDue 退避时间已过且没有进行中的连接
func (s Snapshot) ReconnectDue(now time.Time) bool {
	return s.NeedsReconnect() && s.State == Disconnected && !now.Before(s.Since.Add(s.Backoff))
}

// Supervisor 跟踪 broker 连接状态。
// 连接回调在 paho 的 goroutine 中写入，主循环读取快照。
type Supervisor struct {
	lc  logger.LoggingClient
	now func() time.Time

	mu   sync.Mutex
	snap Snapshot
}

// NewSupervisor 初始状态为 Disconnected
func NewSupervisor(lc logger.LoggingClient) *Supervisor {
	s := &Supervisor{lc: lc, now: time.Now}
	s.snap.Since = s.now()
	return s
}

// Snapshot 返回一致的状态副本
func (s *Supervisor) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// BeginConnect 在发起连接前调用
func (s *Supervisor) BeginConnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.State = Connecting
	s.snap.Since = s.now()
}

// ConnectResult 处理连接结果回调
func (s *Supervisor) ConnectResult(err error) {
	s.mu.Lock()
	if err == nil {
		s.snap = Snapshot{State: Connected, Since: s.now()}
		s.mu.Unlock()
		metrics.SetConnected(true)
		s.lc.Info("Connected to MQTT broker.")
		return
	}

	if s.snap.Failures < MaxFailures {
		s.snap.Failures++
	}
	s.snap.State = Disconnected
	s.snap.Backoff = time.Duration(1<<s.snap.Failures) * time.Second
	s.snap.Since = s.now()
	snap := s.snap
	s.mu.Unlock()

	metrics.SetConnected(false)
	s.lc.Errorf("MQTT connection returned result=%v failures=%d retry in %s", err, snap.Failures, snap.Backoff)
}

// ConnectionLost 处理意外断线；仅在已连接状态下生效
func (s *Supervisor) ConnectionLost(err error) {
	s.mu.Lock()
	if s.snap.State != Connected {
		s.mu.Unlock()
		return
	}
	s.snap.State = Disconnected
	s.snap.Lost = true
	s.snap.Backoff = LostBackoff
	s.snap.Since = s.now()
	s.mu.Unlock()

	metrics.SetConnected(false)
	s.lc.Errorf("MQTT unexpected disconnection: %v", err)
}
