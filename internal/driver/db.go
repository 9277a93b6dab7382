package driver

import (
	"sync"
	"time"

	"github.com/edgexfoundry/go-mod-core-contracts/v4/errors"
)

// Resource 保存一个资源最近一次的值，Value 为原始文本
type Resource struct {
	Name     string
	DataType string
	Value    []byte
	Origin   int64 // 写入时间，Unix 纳秒
}

// DB 是最新读数的内存存储：DeviceName → ResourceName → Resource
type DB struct {
	mu    sync.RWMutex
	store map[string]map[string]Resource
	now   func() time.Time
}

func NewDB() *DB {
	return &DB{
		store: make(map[string]map[string]Resource),
		now:   time.Now,
	}
}

// Init 清空所有数据
func (d *DB) Init() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.store = make(map[string]map[string]Resource)
}

// Store 写入或覆盖一个资源
func (d *DB) Store(deviceName, resourceName, dataType string, value []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.store == nil {
		d.store = make(map[string]map[string]Resource)
	}
	dev, ok := d.store[deviceName]
	if !ok {
		dev = make(map[string]Resource)
		d.store[deviceName] = dev
	}
	dev[resourceName] = Resource{
		Name:     resourceName,
		DataType: dataType,
		Value:    append([]byte(nil), value...),
		Origin:   d.now().UnixNano(),
	}
}

// Get 返回资源的副本；设备或资源尚无读数时返回 KindEntityDoesNotExist
func (d *DB) Get(deviceName, resourceName string) (Resource, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	dev, ok := d.store[deviceName]
	if !ok {
		return Resource{}, errors.NewCommonEdgeX(errors.KindEntityDoesNotExist, "no reading for device "+deviceName, nil)
	}
	res, ok := dev[resourceName]
	if !ok {
		return Resource{}, errors.NewCommonEdgeX(errors.KindEntityDoesNotExist, "no reading for resource "+resourceName, nil)
	}
	res.Value = append([]byte(nil), res.Value...)
	return res, nil
}

// DeleteDevice 删除设备的全部读数
func (d *DB) DeleteDevice(deviceName string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.store, deviceName)
}

func (d *DB) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.store = nil
}
