// Package utils holds the small helpers shared across fieldmapd
// packages: log-and-continue error handling and process-wide lazy
// values.
package utils

import (
	"log/slog"
)

// Check logs and panics on a non-nil error. Reserved for bootstrap,
// where fieldmapd cannot run without the resource.
func Check(e error) {
	if e != nil {
		slog.Error("Unexpected Error", "error", e)
		panic(e)
	}
}

// Loge logs a non-nil error at error level and moves on. Logwe, Logie
// and Logde do the same at warn, info and debug.
func Loge(e error) {
	if e != nil {
		slog.Error("", "error", e)
	}
}

func Logwe(e error) {
	if e != nil {
		slog.Warn("", "error", e)
	}
}

func Logie(e error) {
	if e != nil {
		slog.Info("", "error", e)
	}
}

func Logde(e error) {
	if e != nil {
		slog.Debug("", "error", e)
	}
}
