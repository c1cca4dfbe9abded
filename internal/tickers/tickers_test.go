package tickers

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeTickerFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tickers.txt")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write ticker file: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeTickerFile(t, `
# politics
AAPL-YES
BTCZ-NO

  # indented comment is still a comment
  SPACED-TICKER

AAPL-YES
`)

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	want := []string{"AAPL-YES", "BTCZ-NO", "SPACED-TICKER"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Load = %v, want %v", got, want)
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	got, err := Load(writeTickerFile(t, "\n# only comments\n\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Load = %v, want empty", got)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/tickers.txt"); err == nil {
		t.Error("expected error for missing file")
	}
}
