package ot

// Transform rewrites pending so that its position and length account for
// every operation in history, in order. History must contain exactly the
// operations committed after pending's base version. The result applies to
// the current content with the same effect a single globally-ordered
// application would have had.
func Transform(pending Operation, history []Operation) Operation {
	op := pending
	for _, prior := range history {
		for _, prim := range primitives(prior) {
			op = shift(op, prim)
		}
	}
	return op
}

// primitives decomposes an update into the delete-then-insert pair it is
// equivalent to for transformation purposes.
func primitives(op Operation) []Operation {
	if op.Type == OpUpdate {
		return []Operation{
			{Type: OpDelete, Position: op.Position, Length: op.Length},
			{Type: OpInsert, Position: op.Position, Content: op.Content},
		}
	}
	return []Operation{op}
}

// shift applies one pairwise rule: prior happened before op and has already
// been committed, so op's coordinates move to make room for it.
func shift(op, prior Operation) Operation {
	switch prior.Type {
	case OpInsert:
		if prior.Position < op.Position {
			op.Position += len(prior.Content)
		}
	case OpDelete:
		if prior.Position < op.Position {
			if op.Type == OpDelete || op.Type == OpUpdate {
				// Ranges overlap only when the prior delete reaches into
				// op's range; the overlapping part no longer exists.
				overlap := min(prior.Position+prior.Length, op.Position+op.Length) - op.Position
				if overlap > 0 {
					op.Length = max(0, op.Length-overlap)
				}
			}
			op.Position = max(0, op.Position-prior.Length)
		}
	}
	return op
}
