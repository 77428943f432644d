package broker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

type streamManager interface {
	CreateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
	CreateOrUpdateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
}

func streamConfig(name string, duplicates time.Duration) jetstream.StreamConfig {
	return jetstream.StreamConfig{
		Name:       strings.ToUpper(name),
		Subjects:   []string{fmt.Sprintf("%s.*", strings.ToLower(name))},
		Storage:    jetstream.FileStorage,
		Duplicates: duplicates,
	}
}

// EnsureRestockStream creates or updates the stream carrying restock.* subjects.
// The duplicate window bounds how long a republished restock event is dropped.
func EnsureRestockStream(ctx context.Context, js streamManager, name string, duplicates time.Duration) error {
	cfg := streamConfig(name, duplicates)
	if _, err := js.CreateOrUpdateStream(ctx, cfg); err != nil {
		slog.ErrorContext(ctx, "[broker] EnsureRestockStream", "stream", cfg.Name, "CreateOrUpdateStream", err)
		return err
	}
	return nil
}

// EnsureStockStream creates the warehouse service's stock stream when it does not
// exist yet and leaves an existing one untouched.
func EnsureStockStream(ctx context.Context, js streamManager, name string) error {
	cfg := streamConfig(name, 0)
	_, err := js.CreateStream(ctx, cfg)
	if err != nil && !errors.Is(err, jetstream.ErrStreamNameAlreadyInUse) {
		slog.ErrorContext(ctx, "[broker] EnsureStockStream", "stream", cfg.Name, "CreateStream", err)
		return err
	}
	return nil
}
