package logger

import (
	"io"
	"os"
	"strconv"

	"gopkg.in/natefinch/lumberjack.v2"
)

// EnvConfig is the logger configuration read from LOG_* variables.
type EnvConfig struct {
	Level       string
	Format      string
	ServiceName string

	// File is an optional log file, rotated by size. Empty logs to stdout only.
	File     string
	FileOnly bool

	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// LoadFromEnv reads LOG_LEVEL, LOG_FORMAT, SERVICE_NAME, LOG_FILE,
// LOG_FILE_ONLY, LOG_MAX_SIZE, LOG_MAX_BACKUPS, LOG_MAX_AGE and LOG_COMPRESS.
func LoadFromEnv() *EnvConfig {
	return &EnvConfig{
		Level:       envString("LOG_LEVEL", "info"),
		Format:      envString("LOG_FORMAT", "json"),
		ServiceName: envString("SERVICE_NAME", "kbsync"),
		File:        envString("LOG_FILE", ""),
		FileOnly:    envBool("LOG_FILE_ONLY", false),
		MaxSizeMB:   envInt("LOG_MAX_SIZE", 100),
		MaxBackups:  envInt("LOG_MAX_BACKUPS", 7),
		MaxAgeDays:  envInt("LOG_MAX_AGE", 30),
		Compress:    envBool("LOG_COMPRESS", true),
	}
}

// writer returns stdout, the rotating file, or both.
func (e *EnvConfig) writer() io.Writer {
	if e.File == "" {
		return os.Stdout
	}

	file := &lumberjack.Logger{
		Filename:   e.File,
		MaxSize:    e.MaxSizeMB,
		MaxBackups: e.MaxBackups,
		MaxAge:     e.MaxAgeDays,
		Compress:   e.Compress,
	}
	rotatingMu.Lock()
	rotating = file
	rotatingMu.Unlock()

	if e.FileOnly {
		return file
	}
	return io.MultiWriter(os.Stdout, file)
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return def
}

func envInt(key string, def int) int {
	if i, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return i
	}
	return def
}
