package applog

// AppLogger is the logging surface every component receives by injection.
// Trace sits below Debug and is used for per-frame and per-command chatter.
type AppLogger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Debug(msg string, args ...any)
	Trace(msg string, args ...any)
	Fatal(msg string, args ...any)
}
