package main

import (
	"github.com/edgexfoundry/device-sdk-go/v4/pkg/startup"

	"github.com/linjuya-lu/tmu2mqtt_go/internal/driver"
)

const (
	serviceName string = "device-tmu"
)

// Version 在构建时通过 -ldflags "-X main.Version=..." 注入
var Version = "0.0.0"

func main() {
	d := driver.NewTmuDeviceDriver()
	startup.Bootstrap(serviceName, Version, d)
}
