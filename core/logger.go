package core

// Logger is any service that can log & report application events.
// Extra args may be errors, maps of extra data or the authenticated admin.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
