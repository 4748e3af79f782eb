package ot

import "testing"

func TestTransformConcurrentInserts(t *testing.T) {
	// Content "Hello": A inserts "_World" at 5, B inserts "Hi " at 0, both
	// against the same base. Either application order converges.
	content := "Hello"
	opA := Operation{Type: OpInsert, UserID: "u1", Position: 5, Content: "_World"}
	opB := Operation{Type: OpInsert, UserID: "u2", Position: 0, Content: "Hi "}

	afterA, err := Apply(content, opA)
	if err != nil {
		t.Fatalf("apply A: %v", err)
	}
	gotAB, err := Apply(afterA, Transform(opB, []Operation{opA}))
	if err != nil {
		t.Fatalf("apply transformed B: %v", err)
	}

	afterB, err := Apply(content, opB)
	if err != nil {
		t.Fatalf("apply B: %v", err)
	}
	gotBA, err := Apply(afterB, Transform(opA, []Operation{opB}))
	if err != nil {
		t.Fatalf("apply transformed A: %v", err)
	}

	want := "Hi Hello_World"
	if gotAB != want || gotBA != want {
		t.Fatalf("diverged: A-then-B %q, B-then-A %q, want %q", gotAB, gotBA, want)
	}
}

func TestTransformConcurrentDeletes(t *testing.T) {
	content := "abcdef"
	opA := Operation{Type: OpDelete, UserID: "u1", Position: 1, Length: 2}
	opB := Operation{Type: OpDelete, UserID: "u2", Position: 3, Length: 2}

	afterA, err := Apply(content, opA)
	if err != nil {
		t.Fatalf("apply A: %v", err)
	}
	gotAB, err := Apply(afterA, Transform(opB, []Operation{opA}))
	if err != nil {
		t.Fatalf("apply transformed B: %v", err)
	}

	afterB, err := Apply(content, opB)
	if err != nil {
		t.Fatalf("apply B: %v", err)
	}
	gotBA, err := Apply(afterB, Transform(opA, []Operation{opB}))
	if err != nil {
		t.Fatalf("apply transformed A: %v", err)
	}

	if gotAB != "af" || gotBA != "af" {
		t.Fatalf("diverged: A-then-B %q, B-then-A %q, want %q", gotAB, gotBA, "af")
	}
}

func TestTransformRules(t *testing.T) {
	cases := []struct {
		name    string
		pending Operation
		prior   Operation
		wantPos int
		wantLen int
	}{
		{
			name:    "insert before insert shifts right",
			pending: Operation{Type: OpInsert, Position: 4, Content: "x"},
			prior:   Operation{Type: OpInsert, Position: 1, Content: "abc"},
			wantPos: 7,
		},
		{
			name:    "insert at same position does not shift",
			pending: Operation{Type: OpInsert, Position: 2, Content: "x"},
			prior:   Operation{Type: OpInsert, Position: 2, Content: "abc"},
			wantPos: 2,
		},
		{
			name:    "insert before delete shifts delete right",
			pending: Operation{Type: OpDelete, Position: 3, Length: 2},
			prior:   Operation{Type: OpInsert, Position: 0, Content: "ab"},
			wantPos: 5,
			wantLen: 2,
		},
		{
			name:    "delete before insert shifts insert left",
			pending: Operation{Type: OpInsert, Position: 5, Content: "x"},
			prior:   Operation{Type: OpDelete, Position: 1, Length: 2},
			wantPos: 3,
		},
		{
			name:    "delete floor at zero",
			pending: Operation{Type: OpInsert, Position: 1, Content: "x"},
			prior:   Operation{Type: OpDelete, Position: 0, Length: 5},
			wantPos: 0,
		},
		{
			name:    "overlapping deletes shrink length",
			pending: Operation{Type: OpDelete, Position: 2, Length: 3},
			prior:   Operation{Type: OpDelete, Position: 1, Length: 2},
			wantPos: 0,
			wantLen: 2,
		},
		{
			name:    "prior update acts as delete then insert",
			pending: Operation{Type: OpInsert, Position: 6, Content: "x"},
			prior:   Operation{Type: OpUpdate, Position: 1, Length: 4, Content: "yy"},
			wantPos: 4,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Transform(tc.pending, []Operation{tc.prior})
			if got.Position != tc.wantPos {
				t.Fatalf("position = %d, want %d", got.Position, tc.wantPos)
			}
			if tc.pending.Type != OpInsert && got.Length != tc.wantLen {
				t.Fatalf("length = %d, want %d", got.Length, tc.wantLen)
			}
		})
	}
}

func TestTransformAgainstLongerHistory(t *testing.T) {
	// Two committed inserts ahead of the pending op; both shift it.
	pending := Operation{Type: OpInsert, Position: 3, Content: "x"}
	history := []Operation{
		{Type: OpInsert, Position: 0, Content: "aa"},
		{Type: OpInsert, Position: 1, Content: "b"},
	}
	got := Transform(pending, history)
	if got.Position != 6 {
		t.Fatalf("position = %d, want 6", got.Position)
	}
}

func TestApplyBounds(t *testing.T) {
	cases := []struct {
		name string
		op   Operation
	}{
		{name: "insert past end", op: Operation{Type: OpInsert, Position: 6, Content: "x"}},
		{name: "insert negative", op: Operation{Type: OpInsert, Position: -1, Content: "x"}},
		{name: "delete past end", op: Operation{Type: OpDelete, Position: 3, Length: 4}},
		{name: "update past end", op: Operation{Type: OpUpdate, Position: 4, Length: 2, Content: "y"}},
		{name: "negative length", op: Operation{Type: OpDelete, Position: 0, Length: -1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Apply("hello", tc.op); err == nil {
				t.Fatal("expected out-of-bounds error, got nil")
			}
		})
	}
}

func TestApplyUpdateReplacesSlice(t *testing.T) {
	got, err := Apply("abcdef", Operation{Type: OpUpdate, Position: 1, Length: 3, Content: "XY"})
	if err != nil {
		t.Fatalf("apply update: %v", err)
	}
	if got != "aXYef" {
		t.Fatalf("content = %q, want %q", got, "aXYef")
	}
}
