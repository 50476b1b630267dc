package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts. ReadTimeout stays unset so large uploads are not cut
// off mid-transfer; slow header writers are bounded separately.
const (
	ServerReadHeaderTimeout = 10 * time.Second
	ServerIdleTimeout       = 120 * time.Second
	ServerShutdownTimeout   = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Background job intervals
const (
	SessionSweepInterval = time.Minute
	TempCleanupInterval  = time.Hour
	TempFileMaxAge       = 24 * time.Hour
)

// Upload limits
const (
	MaxSessionUploadFiles = 10
	MultipartMemoryLimit  = 32 << 20
)
