package bridge

import (
	"sync"

	"github.com/linjuya-lu/tmu2mqtt_go/internal/serial"
)

type published struct {
	topic   string
	qos     byte
	payload string
}

// fakeBroker 同步回报连接结果并记录发布
type fakeBroker struct {
	sup        *Supervisor
	connectErr error
	publishErr error

	mu           sync.Mutex
	connects     int
	disconnected bool
	publishes    []published
}

func (b *fakeBroker) Connect() {
	b.mu.Lock()
	b.connects++
	err := b.connectErr
	b.mu.Unlock()
	if b.sup != nil {
		b.sup.ConnectResult(err)
	}
}

func (b *fakeBroker) Publish(topic string, qos byte, _ bool, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.publishErr != nil {
		return b.publishErr
	}
	b.publishes = append(b.publishes, published{topic: topic, qos: qos, payload: string(payload)})
	return nil
}

func (b *fakeBroker) Disconnect(uint) {
	b.mu.Lock()
	b.disconnected = true
	b.mu.Unlock()
}

func (b *fakeBroker) Publishes() []published {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]published(nil), b.publishes...)
}

func (b *fakeBroker) Connects() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connects
}

func (b *fakeBroker) Disconnected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.disconnected
}

// fakePort 依次返回预置数据，读完后返回 0；设置 err 时每次读取都带上该错误
type fakePort struct {
	id     string
	reads  []string
	err    error
	mu     sync.Mutex
	nread  int
	closed bool
}

func (p *fakePort) Open() error    { return nil }
func (p *fakePort) Name() string   { return p.id }
func (p *fakePort) Device() string { return "/dev/fake-" + p.id }

func (p *fakePort) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return nil
}

func (p *fakePort) Read(buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nread++
	if len(p.reads) == 0 {
		return 0, p.err
	}
	s := p.reads[0]
	p.reads = p.reads[1:]
	return copy(buf, s), p.err
}

func (p *fakePort) Reads() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.nread
}

func (p *fakePort) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func newTestDevice(id string, qos byte, reads ...string) (*Device, *fakePort) {
	p := &fakePort{id: id, reads: reads}
	return &Device{ID: id, QoS: qos, Channel: serial.NewChannel(p)}, p
}
