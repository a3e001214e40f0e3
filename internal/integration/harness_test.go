package integration

import (
	"os"
	"testing"
)

func TestHarnessSkipsWhenDisabled(t *testing.T) {
	if os.Getenv(EnableEnvVar) == "1" {
		t.Skip("integration tests are enabled")
	}

	skipped := false
	t.Run("harness", func(t *testing.T) {
		defer func() { skipped = t.Skipped() }()
		NewHarness(t)
	})

	if !skipped {
		t.Error("NewHarness should skip when integration tests are disabled")
	}
}
