package core

type Conf struct {
	Version            string `long:"version" description:"version of qir" env:"QIR_VERSION"`
	DevMode            bool   `long:"dev-mode" description:"run in dev mode" env:"QIR_DEV_MODE"`
	DisableStdoutLog   bool   `long:"disable-stdout-log" description:"do not log in standard output" env:"QIR_DISABLE_STDOUT_LOG"`
	EnableFileLog      bool   `long:"enable-file-log" description:"enable log in file" env:"QIR_ENABLE_FILE_LOG"`
	LogDir             string `long:"log-dir" description:"rotating log file dir" default:"./shares/logs" env:"QIR_LOG_DIR"`
	LogLevel           string `long:"log-level" description:"log level" default:"info" choice:"debug" choice:"info" choice:"warn" choice:"error" env:"QIR_LOG_LEVEL"`
	LogRotationMaxDays int    `long:"log-rotation-max-days" description:"max days of log rotation" default:"7" env:"QIR_LOG_ROTATION_MAX_DAYS"`
	UseDummyDevice     bool   `long:"enable-dummy-device" description:"use dummy device without a device setting file" env:"QIR_USE_DUMMY_DEVICE"`
	DeviceSettingPath  string `long:"device-setting-path" description:"device setting file path" default:"./device_setting.toml" env:"QIR_DEVICE_SETTING_PATH"`
	QueueMaxSize       int    `long:"queue-max-size" description:"queue max size" default:"100" env:"QIR_QUEUE_MAX_SIZE"`
	DummyQPUTime       int    `long:"dummy-qpu-time" description:"dummy qpu time per circuit in milliseconds" default:"0" env:"QIR_DUMMY_QPU_TIME"`
	Seed               int64  `long:"seed" description:"random seed of the dummy device and overrotation, 0 means time based" env:"QIR_SEED"`
	SettingPath        string `long:"setting-path" description:"setting file path" default:"./setting/setting.toml" env:"QIR_SETTING_PATH"`
	MetricsLogDir      string `long:"metrics-log-dir" description:"directory of the daily metrics log, empty disables it" env:"QIR_METRICS_LOG_DIR"`
	MetricsLogPeriod   int    `long:"metrics-log-period" description:"metrics log period in seconds" default:"10" env:"QIR_METRICS_LOG_PERIOD"`
}
