package core

import (
	"bytes"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/oqtopus-team/oqtopus-qir/common"
	"go.uber.org/zap"
)

var globalSetting = newSetting()

// Setting holds the [com.<name>] tables of the setting file. Components
// register their defaults before the file is parsed.
type Setting struct {
	ComponentSetting map[string]interface{} `toml:"com,omitempty"`
}

func ResetSetting() {
	globalSetting = newSetting()
}

func RegisterSetting(settingName string, settingVal interface{}) {
	globalSetting.registerSetting(settingName, settingVal)
}

func ParseSettingFromPath(settingsPath string) error {
	tomlString, err := common.ReadSettingsFile(settingsPath)
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to read setting file/reason:%s", err))
		return err
	}
	return globalSetting.parseSetting(tomlString)
}

func ParseSetting(tomlString string) error {
	return globalSetting.parseSetting(tomlString)
}

func GetGlobalSetting() *Setting {
	return globalSetting
}

func GetComponentSetting(name string) (interface{}, bool) {
	if globalSetting == nil {
		zap.L().Error("Setting is not initialized")
		return nil, false
	}
	val, ok := globalSetting.ComponentSetting[name]
	return val, ok
}

// DecodeComponentSetting fills out with the setting registered under name.
// The parsed file replaces registered values with generic tables, so the
// value is round-tripped through TOML. Fields absent from the file keep
// the values out already has.
func DecodeComponentSetting(name string, out interface{}) error {
	val, ok := GetComponentSetting(name)
	if !ok {
		return fmt.Errorf("setting %s is not found", name)
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(val); err != nil {
		zap.L().Error(fmt.Sprintf("failed to encode setting(%s)/reason:%s", name, err))
		return err
	}
	if _, err := toml.Decode(buf.String(), out); err != nil {
		zap.L().Error(fmt.Sprintf("failed to decode setting(%s)/reason:%s", name, err))
		return err
	}
	return nil
}

func newSetting() *Setting {
	return &Setting{
		ComponentSetting: make(map[string]interface{}),
	}
}

func (s *Setting) registerSetting(settingName string, settingVal interface{}) {
	s.ComponentSetting[settingName] = settingVal
}

func (s *Setting) parseSetting(tomlString string) error {
	_, err := toml.Decode(tomlString, s)
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to parse setting/reason:%s", err))
		return err
	}
	zap.L().Debug(fmt.Sprintf("Setting is %v", s.ComponentSetting))
	return nil
}
