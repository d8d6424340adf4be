//go:build !protogen

package main

import (
	"context"
	"log/slog"

	"github.com/vibeseat/vibeseat/services/auth-service/internal/storage"
)

func startGrpcServer(_ context.Context, _ *slog.Logger, _ *storage.UserRepository) error {
	return nil
}
