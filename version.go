package volt

// Version and BuildDate are stamped by the release build via -ldflags.
var (
	Version   = "0.3.0-dev"
	BuildDate = "unknown"
)
