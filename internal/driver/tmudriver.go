// Package driver 把 tmu2mqtt 桥接封装为 EdgeX 设备服务的 ProtocolDriver。
package driver

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/edgexfoundry/device-sdk-go/v4/pkg/interfaces"
	dsModels "github.com/edgexfoundry/device-sdk-go/v4/pkg/models"
	"github.com/edgexfoundry/go-mod-core-contracts/v4/clients/logger"
	"github.com/edgexfoundry/go-mod-core-contracts/v4/common"
	"github.com/edgexfoundry/go-mod-core-contracts/v4/models"

	"github.com/linjuya-lu/tmu2mqtt_go/internal/bridge"
	"github.com/linjuya-lu/tmu2mqtt_go/internal/config"
	"github.com/linjuya-lu/tmu2mqtt_go/internal/tmu"
)

const (
	// ConfigEnv 指定桥接配置文件路径的环境变量
	ConfigEnv = "TMU2MQTT_CONFIG"
	// DefaultConfigFile 未设置 ConfigEnv 时使用
	DefaultConfigFile = "./res/tmu2mqtt.yaml"
	// ResourceTemperature 温度资源名
	ResourceTemperature = "Temperature"

	stopTimeout = 5 * time.Second
)

type TmuDriver struct {
	lc      logger.LoggingClient
	asyncCh chan<- *dsModels.AsyncValues
	locker  sync.Mutex
	sdk     interfaces.DeviceServiceSDK

	db     *DB
	floats *resourceFloat
	bridge *bridge.Bridge
	cancel context.CancelFunc
	done   chan struct{}
}

var once sync.Once
var driver *TmuDriver

func NewTmuDeviceDriver() interfaces.ProtocolDriver {
	once.Do(func() {
		driver = newTmuDriver()
	})
	return driver
}

func newTmuDriver() *TmuDriver {
	db := NewDB()
	return &TmuDriver{db: db, floats: NewResourceFloat(db)}
}

func (d *TmuDriver) Initialize(sdk interfaces.DeviceServiceSDK) error {
	d.sdk = sdk
	d.lc = sdk.LoggingClient()
	d.asyncCh = sdk.AsyncValuesChannel()
	d.db.Init()

	path := os.Getenv(ConfigEnv)
	if path == "" {
		path = DefaultConfigFile
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return fmt.Errorf("load bridge config %s: %w", path, err)
	}

	b, err := bridge.InitializeBridge(cfg, d.lc)
	if err != nil {
		return fmt.Errorf("initialize bridge: %w", err)
	}
	b.OnReading(d.onReading)
	d.bridge = b
	return nil
}

func (d *TmuDriver) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.done = make(chan struct{})

	go func() {
		defer close(d.done)
		if err := d.bridge.Run(ctx); err != nil {
			d.lc.Errorf("桥接异常退出: %v", err)
		}
	}()
	d.lc.Infof("TMU 桥接已启动，设备数 %d", len(d.bridge.Devices()))
	return nil
}

// onReading 在桥接主循环中调用，不能阻塞
func (d *TmuDriver) onReading(r tmu.Reading) {
	d.db.Store(r.DeviceID, ResourceTemperature, common.ValueTypeString, []byte(r.Temperature))

	cv, err := dsModels.NewCommandValue(ResourceTemperature, common.ValueTypeString, r.Temperature)
	if err != nil {
		d.lc.Errorf("创建 CommandValue 失败 id=%s: %v", r.DeviceID, err)
		return
	}
	av := &dsModels.AsyncValues{
		DeviceName:    r.DeviceID,
		SourceName:    ResourceTemperature,
		CommandValues: []*dsModels.CommandValue{cv},
	}
	select {
	case d.asyncCh <- av:
	default:
		d.lc.Warnf("异步通道已满，丢弃读数 id=%s temp=%s", r.DeviceID, r.Temperature)
	}
}

func (d *TmuDriver) HandleReadCommands(deviceName string, protocols map[string]models.ProtocolProperties, reqs []dsModels.CommandRequest) (res []*dsModels.CommandValue, err error) {
	d.locker.Lock()
	defer d.locker.Unlock()

	res = make([]*dsModels.CommandValue, 0, len(reqs))
	for _, req := range reqs {
		var cv *dsModels.CommandValue
		switch req.Type {
		case common.ValueTypeFloat32, common.ValueTypeFloat64:
			cv, err = d.floats.value(deviceName, req.DeviceResourceName, req.Type)
		case common.ValueTypeString, "":
			cv, err = d.stringValue(deviceName, req.DeviceResourceName)
		default:
			err = fmt.Errorf("resource %s: unsupported type %s", req.DeviceResourceName, req.Type)
		}
		if err != nil {
			return nil, fmt.Errorf("read device %s resource %s: %w", deviceName, req.DeviceResourceName, err)
		}
		res = append(res, cv)
		d.lc.Debugf("读取值: %s.%s = %v", deviceName, req.DeviceResourceName, cv.Value)
	}
	return res, nil
}

func (d *TmuDriver) stringValue(deviceName, resourceName string) (*dsModels.CommandValue, error) {
	r, err := d.db.Get(deviceName, ResourceTemperature)
	if err != nil {
		return nil, err
	}
	cv, err := dsModels.NewCommandValue(resourceName, common.ValueTypeString, string(r.Value))
	if err != nil {
		return nil, err
	}
	cv.Origin = r.Origin
	return cv, nil
}

func (d *TmuDriver) HandleWriteCommands(deviceName string, protocols map[string]models.ProtocolProperties, reqs []dsModels.CommandRequest,
	params []*dsModels.CommandValue) error {
	return fmt.Errorf("device %s: TMU resources are read-only", deviceName)
}

func (d *TmuDriver) Stop(force bool) error {
	d.lc.Info("TmuDriver.Stop: device-tmu driver is stopping...")
	if d.cancel == nil {
		return nil
	}
	d.cancel()
	select {
	case <-d.done:
	case <-time.After(stopTimeout):
		if !force {
			return fmt.Errorf("bridge did not stop within %s", stopTimeout)
		}
	}
	d.db.Close()
	return nil
}

func (d *TmuDriver) AddDevice(deviceName string, protocols map[string]models.ProtocolProperties, adminState models.AdminState) error {
	d.lc.Debugf("a new Device is added: %s", deviceName)
	return nil
}

func (d *TmuDriver) UpdateDevice(deviceName string, protocols map[string]models.ProtocolProperties, adminState models.AdminState) error {
	d.lc.Debugf("Device %s is updated", deviceName)
	return nil
}

func (d *TmuDriver) RemoveDevice(deviceName string, protocols map[string]models.ProtocolProperties) error {
	d.lc.Debugf("Device %s is removed", deviceName)
	d.db.DeleteDevice(deviceName)
	return nil
}

func (d *TmuDriver) Discover() error {
	return fmt.Errorf("driver's Discover function isn't implemented")
}

func (d *TmuDriver) ValidateDevice(device models.Device) error {
	d.lc.Debug("Driver's ValidateDevice function isn't implemented")
	return nil
}
