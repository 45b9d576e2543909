package logging

import "testing"

func TestSilentByDefault(t *testing.T) {
	logger = nil
	l := GetLogger()
	if l == nil {
		t.Fatal("GetLogger() returned nil")
	}
}

func TestInitializeEmptyLevelIsSilent(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "")
	if err := Initialize(""); err != nil {
		t.Fatalf("Initialize(\"\") error = %v", err)
	}
}

func TestInitializeKnownLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		if err := Initialize(level); err != nil {
			t.Errorf("Initialize(%q) error = %v", level, err)
		}
	}
	logger = nil
}
