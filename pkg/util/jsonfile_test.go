package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestJSONFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")

	var missing map[string]string
	ok, err := ReadJSONFile(path, &missing)
	if err != nil || ok {
		t.Fatalf("missing file: ok=%v err=%v", ok, err)
	}

	if err := WriteJSONFile(path, map[string]string{"T1": "evt1"}); err != nil {
		t.Fatalf("WriteJSONFile: %v", err)
	}
	got := map[string]string{}
	ok, err = ReadJSONFile(path, &got)
	if err != nil || !ok {
		t.Fatalf("ReadJSONFile: ok=%v err=%v", ok, err)
	}
	if got["T1"] != "evt1" {
		t.Errorf("unexpected content %v", got)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("expected 0600, got %v", info.Mode().Perm())
	}
}

func TestReadJSONFileRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("[1,"), 0o600); err != nil {
		t.Fatal(err)
	}
	var v []int
	if _, err := ReadJSONFile(path, &v); err == nil {
		t.Fatal("expected a decode error")
	}
}
