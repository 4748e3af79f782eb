package ot

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// WireOp is the compressed representation used on the wire:
// {t, u, p, c?, l?, ts}. Room and client ids travel out of band.
type WireOp struct {
	T  string `json:"t"`
	U  string `json:"u"`
	P  int    `json:"p"`
	C  string `json:"c,omitempty"`
	L  int    `json:"l,omitempty"`
	TS int64  `json:"ts"`
}

// Compress strips an operation down to its wire form.
func Compress(op Operation) WireOp {
	return WireOp{
		T:  string(op.Type),
		U:  op.UserID,
		P:  op.Position,
		C:  op.Content,
		L:  op.Length,
		TS: op.Timestamp.UnixMilli(),
	}
}

// Decompress expands a wire operation and assigns it a fresh id. The caller
// must set RoomID and ClientID before the operation is applied.
func Decompress(w WireOp) (Operation, error) {
	switch Type(w.T) {
	case OpInsert, OpDelete, OpUpdate:
	default:
		return Operation{}, fmt.Errorf("unknown wire operation type: %q", w.T)
	}
	if w.P < 0 || w.L < 0 {
		return Operation{}, fmt.Errorf("%w: wire position %d, length %d", ErrOutOfBounds, w.P, w.L)
	}
	return Operation{
		ID:        uuid.NewString(),
		Type:      Type(w.T),
		UserID:    w.U,
		Position:  w.P,
		Content:   w.C,
		Length:    w.L,
		Timestamp: time.UnixMilli(w.TS),
	}, nil
}
