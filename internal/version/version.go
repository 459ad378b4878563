package version

// AppVersion is overridden at build time via -ldflags "-X clirouter/internal/version.AppVersion=...".
var AppVersion = "0.3.0"
