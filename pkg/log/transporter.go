package log

// Transporter is a log destination (stdout, rotating file, ...).
type Transporter interface {
	Name() string

	// Write delivers one entry. Errors are reported to stderr by the
	// buffer and never reach the logging call site.
	Write(entry Entry) error

	// Close releases the destination. Write must not be called afterwards.
	Close() error
}

type noopTransporter struct{}

func (noopTransporter) Name() string      { return "noop" }
func (noopTransporter) Write(Entry) error { return nil }
func (noopTransporter) Close() error      { return nil }
