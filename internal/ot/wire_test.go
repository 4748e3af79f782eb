package ot

import (
	"testing"
	"time"
)

func TestDecompressAssignsFreshID(t *testing.T) {
	w := WireOp{T: "insert", U: "u1", P: 3, C: "hi", TS: time.Now().UnixMilli()}

	first, err := Decompress(w)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	second, err := Decompress(w)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}

	if first.ID == "" || second.ID == "" {
		t.Fatal("expected fresh ids")
	}
	if first.ID == second.ID {
		t.Fatal("expected distinct ids for repeated decompression")
	}
	if first.Type != OpInsert || first.Position != 3 || first.Content != "hi" {
		t.Fatalf("unexpected operation: %+v", first)
	}
}

func TestDecompressRejectsBadInput(t *testing.T) {
	if _, err := Decompress(WireOp{T: "rename", U: "u1"}); err == nil {
		t.Fatal("expected error for unknown type")
	}
	if _, err := Decompress(WireOp{T: "delete", U: "u1", P: -2, L: 1}); err == nil {
		t.Fatal("expected error for negative position")
	}
}

func TestCompressRoundTripFields(t *testing.T) {
	op := Operation{
		ID:        "op_1",
		Type:      OpDelete,
		UserID:    "u9",
		Position:  4,
		Length:    2,
		Timestamp: time.UnixMilli(1700000000000),
	}
	w := Compress(op)
	if w.T != "delete" || w.U != "u9" || w.P != 4 || w.L != 2 || w.TS != 1700000000000 {
		t.Fatalf("unexpected wire op: %+v", w)
	}
}
