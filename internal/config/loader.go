package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v2"
)

var (
	// ErrConfig 配置缺失或非法，启动前即失败
	ErrConfig = errors.New("config: invalid configuration")
	// ErrNoDevices 配置文件中没有任何 TMU 设备
	ErrNoDevices = errors.New("config: no TMU devices configured")
)

// 默认值
const (
	DefaultHost        = "localhost"
	DefaultPort        = 1883
	DefaultKeepAlive   = 60 * time.Second
	DefaultQoS         = 1
	DefaultInterval    = time.Second
	DefaultBaudrate    = 9600
	DefaultReadTimeout = 100 * time.Millisecond

	devicePrefix = "tmu"
)

// rawMQTT 等结构保存文件中的原始取值，nil 表示未配置
type rawMQTT struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	ClientID  string `yaml:"id"`
	KeepAlive int    `yaml:"keepalive"` // 秒
	QoS       *int   `yaml:"qos"`
	Format    string `yaml:"format"`
}

type rawBridge struct {
	Interval    string `yaml:"interval"`
	DrainAll    bool   `yaml:"drainAll"`
	MetricsAddr string `yaml:"metrics"`
}

type rawDevice struct {
	Name        string `yaml:"name"`
	ID          string `yaml:"id"`
	Port        string `yaml:"port"`
	QoS         *int   `yaml:"qos"`
	Baudrate    int    `yaml:"baudrate"`
	Driver      string `yaml:"driver"`
	ReadTimeout string `yaml:"readTimeout"`
	DEPin       *int   `yaml:"dePin"`
}

type rawConfig struct {
	MQTT    rawMQTT     `yaml:"mqtt"`
	Bridge  rawBridge   `yaml:"bridge"`
	Devices []rawDevice `yaml:"devices"`
}

// LoadConfig 从指定文件加载配置：.yaml/.yml 按 YAML 解析，其余按 INI 解析。
// 返回的配置已填充默认值并通过校验。
func LoadConfig(path string) (*Config, error) {
	var (
		raw *rawConfig
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		raw, err = loadYAML(path)
	default:
		raw, err = loadINI(path)
	}
	if err != nil {
		return nil, err
	}
	return raw.build()
}

func loadYAML(path string) (*rawConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrConfig, path, err)
	}
	var raw rawConfig
	if err := yaml.UnmarshalStrict(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", ErrConfig, path, err)
	}
	return &raw, nil
}

func loadINI(path string) (*rawConfig, error) {
	// 行内注释前必须有空格，值中间的 # 和 ; 保持原样
	f, err := ini.LoadSources(ini.LoadOptions{
		InsensitiveKeys:          true,
		SpaceBeforeInlineComment: true,
	}, path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrConfig, path, err)
	}

	mqttSec, err := f.GetSection("mqtt")
	if err != nil {
		return nil, fmt.Errorf("%w: section [mqtt] is missing", ErrConfig)
	}

	raw := &rawConfig{}
	m := &raw.MQTT
	m.Host = mqttSec.Key("host").String()
	m.Username = mqttSec.Key("username").String()
	m.Password = mqttSec.Key("password").String()
	m.ClientID = mqttSec.Key("id").String()
	m.Format = mqttSec.Key("format").String()
	if m.Port, err = intKey(mqttSec, "port"); err != nil {
		return nil, err
	}
	if m.KeepAlive, err = intKey(mqttSec, "keepalive"); err != nil {
		return nil, err
	}
	if m.QoS, err = optionalIntKey(mqttSec, "qos"); err != nil {
		return nil, err
	}

	if bSec, err := f.GetSection("bridge"); err == nil {
		raw.Bridge.Interval = bSec.Key("interval").String()
		raw.Bridge.MetricsAddr = bSec.Key("metrics").String()
		if bSec.HasKey("drain_all") {
			v, err := bSec.Key("drain_all").Bool()
			if err != nil {
				return nil, fmt.Errorf("%w: [bridge] drain_all: %w", ErrConfig, err)
			}
			raw.Bridge.DrainAll = v
		}
	}

	// 段顺序即设备处理顺序
	for _, sec := range f.Sections() {
		if !strings.HasPrefix(sec.Name(), devicePrefix) {
			continue
		}
		d := rawDevice{
			Name:        sec.Name(),
			ID:          sec.Key("id").String(),
			Port:        sec.Key("port").String(),
			Driver:      sec.Key("driver").String(),
			ReadTimeout: sec.Key("read_timeout").String(),
		}
		if d.QoS, err = optionalIntKey(sec, "qos"); err != nil {
			return nil, err
		}
		if d.Baudrate, err = intKey(sec, "baudrate"); err != nil {
			return nil, err
		}
		if d.DEPin, err = optionalIntKey(sec, "de_pin"); err != nil {
			return nil, err
		}
		raw.Devices = append(raw.Devices, d)
	}
	return raw, nil
}

func intKey(sec *ini.Section, name string) (int, error) {
	if !sec.HasKey(name) || sec.Key(name).String() == "" {
		return 0, nil
	}
	v, err := sec.Key(name).Int()
	if err != nil {
		return 0, fmt.Errorf("%w: [%s] %s: %w", ErrConfig, sec.Name(), name, err)
	}
	return v, nil
}

func optionalIntKey(sec *ini.Section, name string) (*int, error) {
	if !sec.HasKey(name) || sec.Key(name).String() == "" {
		return nil, nil
	}
	v, err := intKey(sec, name)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// build 填充默认值并校验
func (r *rawConfig) build() (*Config, error) {
	cfg := &Config{}

	m := r.MQTT
	if m.ClientID == "" {
		return nil, fmt.Errorf("%w: [mqtt] id (client identifier) is required", ErrConfig)
	}
	cfg.MQTT = MQTT{
		Host:      orDefault(m.Host, DefaultHost),
		Port:      m.Port,
		Username:  m.Username,
		Password:  m.Password,
		ClientID:  m.ClientID,
		KeepAlive: time.Duration(m.KeepAlive) * time.Second,
		Format:    orDefault(strings.ToLower(m.Format), FormatRaw),
	}
	if cfg.MQTT.Port == 0 {
		cfg.MQTT.Port = DefaultPort
	}
	if cfg.MQTT.KeepAlive == 0 {
		cfg.MQTT.KeepAlive = DefaultKeepAlive
	}
	if cfg.MQTT.Format != FormatRaw && cfg.MQTT.Format != FormatEdgex {
		return nil, fmt.Errorf("%w: [mqtt] unknown format %q", ErrConfig, m.Format)
	}
	qos, err := qosValue(m.QoS, DefaultQoS, "mqtt")
	if err != nil {
		return nil, err
	}
	cfg.MQTT.QoS = qos

	cfg.Bridge = Bridge{
		Interval:    DefaultInterval,
		DrainAll:    r.Bridge.DrainAll,
		MetricsAddr: r.Bridge.MetricsAddr,
	}
	if r.Bridge.Interval != "" {
		d, err := time.ParseDuration(r.Bridge.Interval)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("%w: [bridge] interval %q must be a positive duration", ErrConfig, r.Bridge.Interval)
		}
		cfg.Bridge.Interval = d
	}

	if len(r.Devices) == 0 {
		return nil, ErrNoDevices
	}
	seen := make(map[string]string, len(r.Devices))
	for i, rd := range r.Devices {
		name := rd.Name
		if name == "" {
			name = fmt.Sprintf("%s%d", devicePrefix, i+1)
		}
		if rd.Port == "" {
			return nil, fmt.Errorf("%w: [%s] port is required", ErrConfig, name)
		}
		d := Device{
			Name:        name,
			ID:          orDefault(rd.ID, name),
			Port:        rd.Port,
			Baudrate:    rd.Baudrate,
			Driver:      orDefault(strings.ToLower(rd.Driver), DriverUART),
			ReadTimeout: DefaultReadTimeout,
			DEPin:       -1,
		}
		if prev, dup := seen[d.ID]; dup {
			return nil, fmt.Errorf("%w: [%s] id %q already used by [%s]", ErrConfig, name, d.ID, prev)
		}
		seen[d.ID] = name

		if d.QoS, err = qosValue(rd.QoS, int(cfg.MQTT.QoS), name); err != nil {
			return nil, err
		}
		if d.Baudrate == 0 {
			d.Baudrate = DefaultBaudrate
		}
		if d.Baudrate < 0 {
			return nil, fmt.Errorf("%w: [%s] baudrate %d", ErrConfig, name, d.Baudrate)
		}
		switch d.Driver {
		case DriverUART, DriverRS485, DriverBugst:
		default:
			return nil, fmt.Errorf("%w: [%s] unknown driver %q", ErrConfig, name, rd.Driver)
		}
		// go.bug.st 支持 0 超时（立即返回），tarm 的 VTIME 最小 0.1 秒
		if d.Driver == DriverBugst {
			d.ReadTimeout = 0
		}
		if rd.ReadTimeout != "" {
			t, err := time.ParseDuration(rd.ReadTimeout)
			if err != nil || t < 0 {
				return nil, fmt.Errorf("%w: [%s] read timeout %q", ErrConfig, name, rd.ReadTimeout)
			}
			d.ReadTimeout = t
		}
		if rd.DEPin != nil {
			d.DEPin = *rd.DEPin
		}
		cfg.Devices = append(cfg.Devices, d)
	}
	return cfg, nil
}

func qosValue(v *int, def int, section string) (byte, error) {
	if v == nil {
		return byte(def), nil
	}
	if *v < 0 || *v > 2 {
		return 0, fmt.Errorf("%w: [%s] qos %d must be 0, 1 or 2", ErrConfig, section, *v)
	}
	return byte(*v), nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
