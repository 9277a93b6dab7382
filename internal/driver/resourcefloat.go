package driver

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/edgexfoundry/device-sdk-go/v4/pkg/models"
	"github.com/edgexfoundry/go-mod-core-contracts/v4/common"
)

// resourceFloat 把存储的温度文本按需解析为浮点资源
type resourceFloat struct {
	db *DB
}

func NewResourceFloat(db *DB) *resourceFloat {
	return &resourceFloat{db: db}
}

// value 读取最近的温度文本，解析为 float32/float64 后封装为 CommandValue
func (rf *resourceFloat) value(deviceName, deviceResourceName, dataType string) (*models.CommandValue, error) {
	res, err := rf.db.Get(deviceName, ResourceTemperature)
	if err != nil {
		return nil, err
	}

	// 温度文本可能带空格填充，如 " 23.4 "
	strVal := strings.TrimSpace(string(res.Value))
	var cv *models.CommandValue
	switch dataType {
	case common.ValueTypeFloat32:
		f, err := strconv.ParseFloat(strVal, 32)
		if err != nil {
			return nil, fmt.Errorf("parse float32 from %q: %w", strVal, err)
		}
		cv, err = models.NewCommandValue(deviceResourceName, common.ValueTypeFloat32, float32(f))
		if err != nil {
			return nil, fmt.Errorf("creating float32 CommandValue: %w", err)
		}
	case common.ValueTypeFloat64:
		f, err := strconv.ParseFloat(strVal, 64)
		if err != nil {
			return nil, fmt.Errorf("parse float64 from %q: %w", strVal, err)
		}
		cv, err = models.NewCommandValue(deviceResourceName, common.ValueTypeFloat64, f)
		if err != nil {
			return nil, fmt.Errorf("creating float64 CommandValue: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported float dataType: %s", dataType)
	}

	cv.Origin = res.Origin
	return cv, nil
}
