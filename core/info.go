package core

type NonSecretConf struct {
	DevMode            bool
	DisableStdoutLog   bool
	EnableFileLog      bool
	LogDir             string
	LogLevel           string
	LogRotationMaxDays int
	UseDummyDevice     bool
	DeviceSettingsPath string
	QueueMaxSize       int
	SettingPath        string
}

type Info struct {
	Version string
	Conf    *NonSecretConf
}

var CurrentInfo *Info

func SetInfo(c *Conf) {
	conf := &NonSecretConf{
		DevMode:            c.DevMode,
		DisableStdoutLog:   c.DisableStdoutLog,
		EnableFileLog:      c.EnableFileLog,
		LogDir:             c.LogDir,
		LogLevel:           c.LogLevel,
		LogRotationMaxDays: c.LogRotationMaxDays,
		UseDummyDevice:     c.UseDummyDevice,
		DeviceSettingsPath: c.DeviceSettingPath,
		QueueMaxSize:       c.QueueMaxSize,
		SettingPath:        c.SettingPath,
	}

	CurrentInfo = &Info{
		Version: Version,
		Conf:    conf,
	}
}
