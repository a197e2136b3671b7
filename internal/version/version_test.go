package version

import "testing"

func TestShortFallsBackToDevCommit(t *testing.T) {
	b := BuildInfo{Version: "dev", GitCommit: "abcdef1234567"}
	if got := b.Short(); got != "dev-abcdef1" {
		t.Fatalf("Short() = %q, want %q", got, "dev-abcdef1")
	}
}

func TestShortPrefersReleaseVersion(t *testing.T) {
	b := BuildInfo{Version: "1.2.3", GitCommit: "abcdef1234567"}
	if got := b.Short(); got != "1.2.3" {
		t.Fatalf("Short() = %q, want %q", got, "1.2.3")
	}
}

func TestCurrentReportsSupportedMappers(t *testing.T) {
	info := Current()
	if len(info.SupportedMappers) == 0 {
		t.Fatalf("Current() should report at least one supported mapper")
	}
}
