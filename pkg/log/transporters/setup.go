package transporters

import (
	"stream-resolver/pkg/log"
)

// Setup builds the process logger: JSON to stdout, plus a rotating file
// when filePath is set. An unknown level falls back to Info and the
// problem is logged once the logger exists.
func Setup(level, filePath string) *log.Logger {
	lvl, err := log.ParseLevel(level)

	outputs := []log.Transporter{NewStdout()}
	if filePath != "" {
		outputs = append(outputs, NewFile(filePath, DefaultFileOptions))
	}

	logger := log.New(lvl, outputs...)
	if err != nil && level != "" {
		logger.Warn("unknown log level, using INFO", "level", level)
	}
	log.SetDefault(logger)
	return logger
}
