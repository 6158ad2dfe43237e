package testutil

import (
	"bytes"
	"log/slog"
	"time"

	"github.com/geleto/casai"
)

// NewTestRegistry returns a Registry with long timeout and panic recovery enabled,
// suitable for tests. It panics if a tool cannot be registered.
func NewTestRegistry(tools ...*casai.Tool) *casai.Registry {
	reg := casai.NewRegistry(
		casai.WithDefaultTimeout(30*time.Second),
		casai.WithRecoverPanics(true),
	)
	for _, t := range tools {
		if err := reg.Register(t); err != nil {
			panic("testutil: " + err.Error())
		}
	}
	return reg
}

// NewBufferLogger returns a text logger writing every level to the returned buffer.
func NewBufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}
