package transporters

import (
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	"stream-resolver/pkg/log"
)

// FileOptions controls rotation of the file transporter.
type FileOptions struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// DefaultFileOptions keeps a week of 50 MB segments.
var DefaultFileOptions = FileOptions{
	MaxSizeMB:  50,
	MaxBackups: 5,
	MaxAgeDays: 7,
	Compress:   true,
}

// File writes line-delimited JSON to a size-rotated file.
type File struct {
	mu     sync.Mutex
	logger *lumberjack.Logger
}

// NewFile opens (lazily) a rotating log file at path.
func NewFile(path string, opts FileOptions) *File {
	return &File{
		logger: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   opts.Compress,
		},
	}
}

func (f *File) Name() string { return "file" }

func (f *File) Write(entry log.Entry) error {
	return writeLine(&f.mu, f.logger, entry)
}

func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logger.Close()
}
