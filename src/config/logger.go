package config

import (
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// SupervisorLogger adapts zerolog to the oversight logger interface.
type SupervisorLogger struct {
	*zerolog.Logger
}

func (l *SupervisorLogger) Printf(format string, v ...interface{}) {
	l.Logger.Debug().Msgf(format, v...)
}

func (l *SupervisorLogger) Println(v ...interface{}) {
	l.Logger.Debug().Msg(strings.TrimSuffix(fmt.Sprintln(v...), "\n"))
}

type LoggerConfig struct {
	// Print human-readable output to console
	ConsoleLoggingEnabled bool

	DebugModeEnabled bool

	// The fields below are ignored unless FileLoggingEnabled is set.
	FileLoggingEnabled bool
	Directory          string
	Filename           string
	// MaxSize of a log file in MB before it is rolled
	MaxSize int
	// MaxBackups is the number of rolled files to keep
	MaxBackups int
	// MaxAge in days to keep a rolled file
	MaxAge int
}

func envIntOr(key string, fallback int) (int, error) {
	if v, err := GetenvInt(key); err != nil {
		return 0, err
	} else if v != nil {
		return *v, nil
	}
	return fallback, nil
}

func envStrOr(key, fallback string) string {
	if v := GetenvStr(key); v != "" {
		return v
	}
	return fallback
}

func buildLoggerConfig(debugModeEnabled bool) (conf LoggerConfig, err error) {
	conf.DebugModeEnabled = debugModeEnabled
	conf.ConsoleLoggingEnabled = true

	if v, err := GetenvBool("CONSOLE_LOGGING_ENABLED"); err != nil {
		return conf, err
	} else if v != nil {
		conf.ConsoleLoggingEnabled = *v
	}

	if v, err := GetenvBool("FILE_LOGGING_ENABLED"); err != nil {
		return conf, err
	} else if v == nil || !*v {
		return conf, nil
	}

	conf.FileLoggingEnabled = true
	conf.Directory = envStrOr("LOGS_DIRECTORY", "logs")
	conf.Filename = envStrOr("LOGS_FILE_NAME", "quaestor.log")

	if conf.MaxSize, err = envIntOr("LOGS_MAX_SIZE", 10); err != nil {
		return
	}
	if conf.MaxBackups, err = envIntOr("LOGS_MAX_BACKUPS", 10); err != nil {
		return
	}
	conf.MaxAge, err = envIntOr("LOGS_MAX_AGE", 10)
	return
}

func ConfigureLogger(debugModeEnabled bool) *zerolog.Logger {
	config, err := buildLoggerConfig(debugModeEnabled)
	if err != nil {
		log.Fatal().Err(err).Msg("can't get logger config")
		return nil
	}

	var writers []io.Writer
	if config.ConsoleLoggingEnabled {
		writers = append(writers, zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
			w.Out = os.Stderr
			w.TimeFormat = time.RFC3339
		}))
	} else {
		writers = append(writers, os.Stderr)
	}
	if config.FileLoggingEnabled {
		writers = append(writers, newRollingFile(config))
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		With().Timestamp().Logger()

	if debugModeEnabled {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	logger.Debug().
		Bool("consoleLogging", config.ConsoleLoggingEnabled).
		Bool("fileLogging", config.FileLoggingEnabled).
		Str("logDirectory", config.Directory).
		Str("fileName", config.Filename).
		Int("maxSizeMB", config.MaxSize).
		Int("maxBackups", config.MaxBackups).
		Int("maxAgeInDays", config.MaxAge).
		Msg("logging configured")

	return &logger
}

func newRollingFile(config LoggerConfig) io.Writer {
	if err := os.MkdirAll(config.Directory, 0o744); err != nil {
		log.Fatal().Err(err).Str("path", config.Directory).Msg("can't create log directory")
		return nil
	}

	return &lumberjack.Logger{
		Filename:   path.Join(config.Directory, config.Filename),
		MaxBackups: config.MaxBackups,
		MaxSize:    config.MaxSize,
		MaxAge:     config.MaxAge,
	}
}
