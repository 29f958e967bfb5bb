package xlog

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/liweiming-nova/fundsync/config"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// 独立的访问日志通道，按类型落到各自的滚动文件，和核心日志分开

type MidLogConfig struct {
	Sql *LogConfig `json:"log_sql" yaml:"log_sql" toml:"log_sql"`
}

type MidLogger struct {
	SqlLogger *zerolog.Logger
}

var loggers = &MidLogger{}

var logFormat = "|level:%s|trace_id:%s|type:%s|rt:%d|success:%s|id:%s|error:%s"

// SLog sql 访问日志，rt 为耗时毫秒
func SLog(ctx context.Context, rt int64, file string, err error) {
	if loggers.SqlLogger == nil {
		return
	}
	log(loggers.SqlLogger, ctx, "sql", rt, file, err)
}

func log(logger *zerolog.Logger, ctx context.Context, t string, rt int64, id string, err error) {
	if err == nil {
		logger.Info().Msgf(logFormat, "info", getTraceId(ctx), t, rt, "true", id, "")
	} else {
		logger.Error().Msgf(logFormat, "error", getTraceId(ctx), t, rt, "false", id, err.Error())
	}
}

func getTraceId(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(funcTraceKey).(string); ok {
		return v
	}
	return ""
}

func InitMLogger() {
	cfg := config.Get(&MidLogConfig{}).(*MidLogConfig)
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	zerolog.TimeFieldFormat = "2006-01-02 15:04:05.000"

	logTypes := []struct {
		config *LogConfig
		logger **zerolog.Logger
		name   string
	}{
		{cfg.Sql, &loggers.SqlLogger, "log_sql"},
	}

	for _, logType := range logTypes {
		if logType.config == nil {
			continue
		}
		writers, err := NewConsoleWriter(logType.config)
		if err != nil {
			panic(fmt.Errorf("%s日志配置异常:%w", logType.name, err))
		}
		newLogger := zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()
		*logType.logger = &newLogger
	}
}

func NewConsoleWriter(cfg *LogConfig) ([]io.Writer, error) {
	if cfg.LogFile == "" {
		return nil, fmt.Errorf("log_file不能为空")
	}
	if cfg.MaxSize == 0 {
		cfg.MaxSize = 100
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = 7
	}
	rotatingLog := &lumberjack.Logger{
		Filename: cfg.LogFile,
		MaxSize:  cfg.MaxSize,
		MaxAge:   cfg.MaxAge,
		Compress: cfg.Compress,
	}
	var writers []io.Writer
	filesWriter := &zerolog.ConsoleWriter{NoColor: true, TimeFormat: zerolog.TimeFieldFormat}
	filesWriter.Out = rotatingLog
	writers = append(writers, filesWriter)
	if cfg.Console {
		stdOutWriter := &zerolog.ConsoleWriter{NoColor: true, TimeFormat: zerolog.TimeFieldFormat}
		stdOutWriter.Out = os.Stdout
		writers = append(writers, stdOutWriter)
	}
	return writers, nil
}
