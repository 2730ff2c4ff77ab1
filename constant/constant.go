package constant

// Overridden at build time via -ldflags.
var (
	Version     = "dev"
	CompileTime = "1970-01-01T00:00:00Z"
)
