// Package version pins the release string reported to pools and proxies.
package version

// Version is the bencher release.
const Version = "1.0.0"
