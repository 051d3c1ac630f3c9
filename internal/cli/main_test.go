package cli

import (
	"os"
	"testing"

	"github.com/fatih/color"
)

func TestMain(m *testing.M) {
	// Text assertions compare plain output.
	color.NoColor = true
	os.Exit(m.Run())
}
