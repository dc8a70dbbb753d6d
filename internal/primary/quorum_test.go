package primary

import "testing"

func TestQuorumEvaluate(t *testing.T) {
	// 5 total nodes (primary + 4 secondaries): required = floor(5/2)+1 = 3.
	q := newQuorum(5)

	if readOnly := q.Evaluate(3); readOnly {
		t.Fatalf("3 healthy secondaries + primary = 4 >= 3 required, should not be read-only")
	}
	if q.ReadOnly() {
		t.Fatalf("ReadOnly() should reflect the last Evaluate call")
	}

	if readOnly := q.Evaluate(1); !readOnly {
		t.Fatalf("1 healthy secondary + primary = 2 < 3 required, should be read-only")
	}
	if !q.ReadOnly() {
		t.Fatalf("ReadOnly() should reflect the last Evaluate call")
	}
}

func TestQuorumSingleNode(t *testing.T) {
	// A primary with no secondaries is always its own quorum.
	q := newQuorum(1)
	if q.Evaluate(0) {
		t.Fatalf("a lone primary should never be read-only")
	}
}
