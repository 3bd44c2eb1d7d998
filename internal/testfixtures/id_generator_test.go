package testfixtures

import "testing"

func TestIDGeneratorProducesSequentialIDs(t *testing.T) {
	gen := NewIDGenerator("")

	first := gen.Next()
	second := gen.NextFunc()()

	if first != "run-1" || second != "run-2" {
		t.Fatalf("unexpected identifiers: %q, %q", first, second)
	}
}
