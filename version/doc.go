// Package version reports the llmflow build.
//
// Version, commit, and build time are set at compile time via -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/llmflow/version.Version=1.0.0" ./cmd/llmflow
package version
