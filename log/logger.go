// Package log builds the process logger and the periodic metrics log.
package log

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	rotate "github.com/lestrrat-go/file-rotatelogs"
	"github.com/oqtopus-team/oqtopus-qir/core"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewZapLogger tees a console or JSON encoder to stdout and, when file
// logging is enabled, to an hourly rotated file in conf.LogDir.
func NewZapLogger(conf *core.Conf) (*zap.Logger, error) {
	var encoder zapcore.Encoder
	if conf.DevMode {
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	} else {
		c := zap.NewProductionEncoderConfig()
		c.EncodeTime = zapcore.ISO8601TimeEncoder
		c.TimeKey = "timestamp"
		encoder = zapcore.NewJSONEncoder(c)
	}
	level := zap.NewAtomicLevelAt(Level(conf.LogLevel))

	cores := []zapcore.Core{}
	if conf.EnableFileLog {
		rotator, err := makeRotator(conf.LogDir, conf.LogRotationMaxDays)
		if err != nil {
			return nil, err
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(rotator), level))
	}
	if !conf.DisableStdoutLog {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level))
	}
	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), nil
}

func Level(s string) zapcore.Level {
	switch s {
	case "debug":
		return zap.DebugLevel
	case "warn":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

// SetZap replaces the global logger and returns it for syncing.
func SetZap(conf *core.Conf) (*zap.Logger, error) {
	logger, err := NewZapLogger(conf)
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	zap.L().Debug(fmt.Sprintf("DevMode is %t", conf.DevMode))
	zap.L().Debug(fmt.Sprintf("log rotation max days is %d", conf.LogRotationMaxDays))
	return logger, nil
}

func makeRotator(dirPath string, rotationMaxDays int) (*rotate.RotateLogs, error) {
	info, err := os.Stat(dirPath)
	if err != nil {
		return nil, fmt.Errorf("directory:%s is not found", dirPath)
	}
	if !info.IsDir() || info.Mode().Perm()&(1<<uint(7)) == 0 {
		return nil, fmt.Errorf("%s is not a writable directory", dirPath)
	}
	return rotate.New(
		filepath.Join(dirPath, "qir-%Y-%m-%d.log"),
		rotate.WithMaxAge(time.Duration(rotationMaxDays)*24*time.Hour),
		rotate.WithRotationTime(time.Hour))
}
