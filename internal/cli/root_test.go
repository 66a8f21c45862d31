package cli

import (
	"strings"
	"testing"
)

func TestMemoryFlagMarkedSmokeTestOnly(t *testing.T) {
	f := rootCmd.PersistentFlags().Lookup("memory")
	if f == nil {
		t.Fatal("memory flag not registered")
	}
	if !strings.Contains(f.Usage, "smoke testing only") {
		t.Errorf("memory flag usage = %q, want it to say smoke testing only", f.Usage)
	}
	if !strings.Contains(f.Usage, "empty") {
		t.Errorf("memory flag usage = %q, want it to say the graph starts empty", f.Usage)
	}
}
