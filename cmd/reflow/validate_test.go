package main

import (
	"strings"
	"testing"
)

func TestRunValidate_ValidScript(t *testing.T) {
	path := writeScript(t, `
guard: "amount >= 0"
subscribers:
  - name: printer
  - name: audit
steps:
  - dispatch: ["add:carts:1", "set:orders:2"]
  - async: ["clear"]
  - unsubscribe: audit
  - dispatch: []
`)

	output, err := executeCmd(t, "validate", "-c", path)
	if err != nil {
		t.Fatalf("validate command error = %v", err)
	}

	expectedPhrases := []string{
		"Script is valid!",
		"Subscribers: 2",
		"Steps:       4 (2 dispatch, 1 async, 1 unsubscribe)",
		"Actions:     3",
		"Guard:       amount >= 0",
	}

	for _, phrase := range expectedPhrases {
		if !strings.Contains(output, phrase) {
			t.Errorf("output missing %q\nGot: %s", phrase, output)
		}
	}
}

func TestRunValidate_NoGuard(t *testing.T) {
	path := writeScript(t, "steps:\n  - dispatch: [clear]\n")

	output, err := executeCmd(t, "validate", "-c", path)
	if err != nil {
		t.Fatalf("validate command error = %v", err)
	}
	if !strings.Contains(output, "Guard:       (none)") {
		t.Errorf("output missing guard placeholder\nGot: %s", output)
	}
}

func TestRunValidate_InvalidScript(t *testing.T) {
	path := writeScript(t, `
subscribers:
  - name: ""
steps:
  - dispatch: [clear]
`)

	_, err := executeCmd(t, "validate", "-c", path)
	if err == nil {
		t.Fatal("validate command expected error for invalid script, got nil")
	}

	if !strings.Contains(err.Error(), "name is required") {
		t.Errorf("error should mention 'name is required', got: %v", err)
	}
}

func TestRunValidate_MissingFile(t *testing.T) {
	_, err := executeCmd(t, "validate", "-c", "/nonexistent/path/script.yaml")
	if err == nil {
		t.Fatal("validate command expected error for missing file, got nil")
	}

	if !strings.Contains(err.Error(), "failed to read") {
		t.Errorf("error should mention 'failed to read', got: %v", err)
	}
}
