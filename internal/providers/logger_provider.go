package providers

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

type TypeEnum uint8

const (
	TypeApp TypeEnum = iota
	TypeTrack
	TypeEngage
	TypeGroups
	TypePersist
)

type Logger interface {
	Errorf(t TypeEnum, format string, args ...interface{})
	Warnf(t TypeEnum, format string, args ...interface{})
	Infof(t TypeEnum, format string, args ...interface{})
	Debugf(t TypeEnum, format string, args ...interface{})
	Fatalf(t TypeEnum, format string, args ...interface{})
	Close()
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode"`
	Dir   string `yaml:"dir"`
}

// GetLogTypeByEndpoint maps an API endpoint to its log scope.
func GetLogTypeByEndpoint(endpoint string) TypeEnum {
	switch {
	case strings.HasPrefix(endpoint, "/track"):
		return TypeTrack
	case strings.HasPrefix(endpoint, "/engage"):
		return TypeEngage
	case strings.HasPrefix(endpoint, "/groups"):
		return TypeGroups
	default:
		return TypeApp
	}
}

func typeLabel(t TypeEnum) string {
	switch t {
	case TypeTrack:
		return "track"
	case TypeEngage:
		return "engage"
	case TypeGroups:
		return "groups"
	case TypePersist:
		return "persist"
	default:
		return "app"
	}
}

type LogProvider struct {
	logger zerolog.Logger
	file   *os.File
}

func NewLogProvider(conf *LoggerConfig) (Logger, error) {
	levelName := conf.Level
	if levelName == "" {
		levelName = "info"
	}
	level, err := zerolog.ParseLevel(levelName)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", conf.Level, err)
	}

	var (
		out  *os.File
		file *os.File
	)
	if conf.Dir != "" {
		info, err := os.Stat(conf.Dir)
		if err != nil {
			return nil, fmt.Errorf("log dir %q: %w", conf.Dir, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("log dir %q is not a directory", conf.Dir)
		}
		mode := os.FileMode(conf.Mode)
		if mode == 0 {
			mode = 0644
		}
		file, err = os.OpenFile(filepath.Join(conf.Dir, "mixtrack.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, mode)
		if err != nil {
			return nil, err
		}
		out = file
	} else {
		out = os.Stderr
	}

	return &LogProvider{
		logger: zerolog.New(out).Level(level).With().Timestamp().Logger(),
		file:   file,
	}, nil
}

func (l *LogProvider) Errorf(t TypeEnum, format string, args ...interface{}) {
	l.logger.Error().Str("scope", typeLabel(t)).Msgf(format, args...)
}

func (l *LogProvider) Warnf(t TypeEnum, format string, args ...interface{}) {
	l.logger.Warn().Str("scope", typeLabel(t)).Msgf(format, args...)
}

func (l *LogProvider) Infof(t TypeEnum, format string, args ...interface{}) {
	l.logger.Info().Str("scope", typeLabel(t)).Msgf(format, args...)
}

func (l *LogProvider) Debugf(t TypeEnum, format string, args ...interface{}) {
	l.logger.Debug().Str("scope", typeLabel(t)).Msgf(format, args...)
}

// Fatalf logs at fatal level without exiting; an analytics client must never
// take the host process down.
func (l *LogProvider) Fatalf(t TypeEnum, format string, args ...interface{}) {
	l.logger.WithLevel(zerolog.FatalLevel).Str("scope", typeLabel(t)).Msgf(format, args...)
}

func (l *LogProvider) Close() {
	if l.file != nil {
		_ = l.file.Close()
	}
}
