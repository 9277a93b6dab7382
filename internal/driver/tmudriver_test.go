package driver

import (
	"testing"

	dsModels "github.com/edgexfoundry/device-sdk-go/v4/pkg/models"
	"github.com/edgexfoundry/go-mod-core-contracts/v4/clients/logger"
	"github.com/edgexfoundry/go-mod-core-contracts/v4/common"

	"github.com/linjuya-lu/tmu2mqtt_go/internal/tmu"
)

func newTestDriver(buffer int) (*TmuDriver, chan *dsModels.AsyncValues) {
	ch := make(chan *dsModels.AsyncValues, buffer)
	d := newTmuDriver()
	d.lc = logger.NewMockClient()
	d.asyncCh = ch
	return d, ch
}

func TestOnReadingPushesAsyncValue(t *testing.T) {
	d, ch := newTestDriver(1)
	d.onReading(tmu.Reading{DeviceID: "boiler", Temperature: "+21.50"})

	select {
	case av := <-ch:
		if av.DeviceName != "boiler" || av.SourceName != ResourceTemperature || len(av.CommandValues) != 1 {
			t.Fatalf("AsyncValues = %+v", av)
		}
		s, err := av.CommandValues[0].StringValue()
		if err != nil || s != "+21.50" {
			t.Errorf("StringValue() = %q, %v", s, err)
		}
	default:
		t.Fatal("no AsyncValues pushed")
	}
}

func TestOnReadingDoesNotBlock(t *testing.T) {
	d, ch := newTestDriver(0)
	d.onReading(tmu.Reading{DeviceID: "boiler", Temperature: "023.40"})

	if len(ch) != 0 {
		t.Fatalf("unexpected value on unbuffered channel")
	}
	// 通道满时读数仍写入 DB
	if r, err := d.db.Get("boiler", ResourceTemperature); err != nil || string(r.Value) != "023.40" {
		t.Errorf("db.Get() = %q, %v", r.Value, err)
	}
}

func TestHandleReadCommands(t *testing.T) {
	d, _ := newTestDriver(1)
	d.onReading(tmu.Reading{DeviceID: "boiler", Temperature: " 23.25"})

	reqs := []dsModels.CommandRequest{
		{DeviceResourceName: ResourceTemperature, Type: common.ValueTypeString},
		{DeviceResourceName: "TemperatureFloat", Type: common.ValueTypeFloat32},
		{DeviceResourceName: "TemperatureDouble", Type: common.ValueTypeFloat64},
	}
	res, err := d.HandleReadCommands("boiler", nil, reqs)
	if err != nil {
		t.Fatalf("HandleReadCommands() error = %v", err)
	}
	if len(res) != 3 {
		t.Fatalf("len(res) = %d, want 3", len(res))
	}
	if s, _ := res[0].StringValue(); s != " 23.25" {
		t.Errorf("string value = %q", s)
	}
	if f, _ := res[1].Float32Value(); f != 23.25 {
		t.Errorf("float32 value = %v", f)
	}
	if f, _ := res[2].Float64Value(); f != 23.25 || res[2].DeviceResourceName != "TemperatureDouble" {
		t.Errorf("float64 value = %v name=%s", f, res[2].DeviceResourceName)
	}
}

func TestHandleReadCommandsErrors(t *testing.T) {
	d, _ := newTestDriver(1)
	d.onReading(tmu.Reading{DeviceID: "boiler", Temperature: "ERR---"})

	tests := []struct {
		name   string
		device string
		req    dsModels.CommandRequest
	}{
		{"no reading yet", "other", dsModels.CommandRequest{DeviceResourceName: ResourceTemperature, Type: common.ValueTypeString}},
		{"not a number", "boiler", dsModels.CommandRequest{DeviceResourceName: "T", Type: common.ValueTypeFloat64}},
		{"unsupported type", "boiler", dsModels.CommandRequest{DeviceResourceName: "T", Type: common.ValueTypeBool}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := d.HandleReadCommands(tt.device, nil, []dsModels.CommandRequest{tt.req}); err == nil {
				t.Errorf("HandleReadCommands() error = nil")
			}
		})
	}
}

func TestHandleReadCommandsErrorMessage(t *testing.T) {
	d, _ := newTestDriver(1)
	d.onReading(tmu.Reading{DeviceID: "boiler", Temperature: "023.40"})

	_, err := d.HandleReadCommands("boiler", nil, []dsModels.CommandRequest{{DeviceResourceName: "T", Type: common.ValueTypeInt32}})
	want := "read device boiler resource T: resource T: unsupported type Int32"
	if err == nil || err.Error() != want {
		t.Errorf("HandleReadCommands() error = %v, want %q", err, want)
	}
}

func TestUnsupportedOperations(t *testing.T) {
	d, _ := newTestDriver(1)
	if err := d.HandleWriteCommands("boiler", nil, nil, nil); err == nil {
		t.Errorf("HandleWriteCommands() error = nil")
	}
	if err := d.Discover(); err == nil {
		t.Errorf("Discover() error = nil")
	}
	if err := d.Stop(false); err != nil {
		t.Errorf("Stop() before Start error = %v", err)
	}
}
