// Package image manages the base image every sandbox container runs.
package image

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/firefly-engineering/jail/internal/logging"
	"github.com/firefly-engineering/jail/internal/runtime"
)

// Name is the tag of the base image.
const Name = "jail-dev:latest"

//go:embed Containerfile
var recipe []byte

// Recipe returns the Containerfile the base image is built from.
func Recipe() []byte {
	return recipe
}

// Ensure builds the base image unless the engine already has it.
func Ensure(ctx context.Context, engine runtime.Engine) error {
	ok, err := engine.ImageExists(ctx, Name)
	if err != nil {
		return err
	}
	if ok {
		logging.Debug("base image present", "image", Name, "engine", engine.Kind())
		return nil
	}

	logging.UserInfo("Building base image %s with %s (this may take a few minutes)...", Name, engine.Kind())
	if err := Build(ctx, engine); err != nil {
		return err
	}
	logging.UserSuccess("Base image %s built", Name)
	return nil
}

// Build writes the recipe into a scratch build context and builds it.
func Build(ctx context.Context, engine runtime.Engine) error {
	dir, err := os.MkdirTemp("", "jail-image-")
	if err != nil {
		return fmt.Errorf("failed to create build context: %w", err)
	}
	defer os.RemoveAll(dir)

	if err := os.WriteFile(filepath.Join(dir, "Containerfile"), recipe, 0o644); err != nil {
		return fmt.Errorf("failed to write Containerfile: %w", err)
	}
	return engine.BuildImage(ctx, Name, dir)
}
