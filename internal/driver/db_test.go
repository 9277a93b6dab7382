package driver

import (
	"testing"
	"time"

	"github.com/edgexfoundry/go-mod-core-contracts/v4/common"
	"github.com/edgexfoundry/go-mod-core-contracts/v4/errors"
)

func TestDBStoreGet(t *testing.T) {
	db := NewDB()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	db.now = func() time.Time { return at }

	value := []byte("+21.50")
	db.Store("boiler", ResourceTemperature, common.ValueTypeString, value)
	value[0] = '-'

	got, err := db.Get("boiler", ResourceTemperature)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got.Value) != "+21.50" || got.DataType != common.ValueTypeString || got.Origin != at.UnixNano() {
		t.Errorf("Get() = %+v", got)
	}

	got.Value[0] = 'x'
	again, _ := db.Get("boiler", ResourceTemperature)
	if string(again.Value) != "+21.50" {
		t.Errorf("stored value modified through copy: %q", again.Value)
	}
}

func TestDBGetMissing(t *testing.T) {
	db := NewDB()
	db.Store("boiler", ResourceTemperature, common.ValueTypeString, []byte("1"))

	for _, tc := range []struct{ device, resource string }{
		{"nope", ResourceTemperature},
		{"boiler", "Humidity"},
	} {
		_, err := db.Get(tc.device, tc.resource)
		if errors.Kind(err) != errors.KindEntityDoesNotExist {
			t.Errorf("Get(%s, %s) kind = %v, want KindEntityDoesNotExist", tc.device, tc.resource, errors.Kind(err))
		}
	}
}

func TestDBDeleteAndClose(t *testing.T) {
	db := NewDB()
	db.Store("a", ResourceTemperature, common.ValueTypeString, []byte("1"))
	db.Store("b", ResourceTemperature, common.ValueTypeString, []byte("2"))

	db.DeleteDevice("a")
	if _, err := db.Get("a", ResourceTemperature); err == nil {
		t.Errorf("Get(a) after DeleteDevice succeeded")
	}
	if _, err := db.Get("b", ResourceTemperature); err != nil {
		t.Errorf("Get(b) error = %v", err)
	}

	db.Close()
	if _, err := db.Get("b", ResourceTemperature); err == nil {
		t.Errorf("Get(b) after Close succeeded")
	}
	// Close 之后仍可写入
	db.Store("c", ResourceTemperature, common.ValueTypeString, []byte("3"))
	if _, err := db.Get("c", ResourceTemperature); err != nil {
		t.Errorf("Get(c) error = %v", err)
	}
}
