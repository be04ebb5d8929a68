package app

// Build-time variables set via -ldflags. For example:
//
//	go build -ldflags "-X github.com/jaivanshchawla/Satviz/internal/app.Version=v0.3.0" ./cmd/beacond
var (
	Version = "dev"
	BuiltAt = "unknown"
)
