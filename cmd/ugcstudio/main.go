package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/ugcstudio/backend/internal/app"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("could not load .env file", "error", err)
	}

	ctx := context.Background()

	if err := app.Run(ctx, os.Args[1:]); err != nil {
		slog.Error("application terminated", "error", err)
		os.Exit(1)
	}
}
