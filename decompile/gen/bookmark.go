package gen

import "github.com/aheadvm/declc/decompile/ir"

// bookmark marks where a TryCatch's protected region begins within its
// owning lexBlock's body (§4.5): offset is the body's length at the
// moment the try-catch range became active. No ir.TryCatch is built
// until the bookmark closes, since only then is the protected slice
// fully known — mirroring Decompiler.java's tryCatchBookmarks, which
// record a block/offset pair and defer TryCatchStatement construction
// to close time, rather than routing statements into a half-built
// wrapper as they're generated.
type bookmark struct {
	offset  int
	handler ir.TryCatchRange
}

// closeExpiredBookmarks pops every bookmark on top whose handler is not
// a prefix-match against active, innermost first, and resolves each one
// against top's body (§4.5). Matching by TryCatchRange.Same means a
// bound exception variable changing across blocks that still target the
// same physical handler does not force a spurious close/reopen.
func (gen *Generator) closeExpiredBookmarks(top *lexBlock, active []ir.TryCatchRange) error {
	n := 0
	for n < len(top.tryCatches) && n < len(active) && top.tryCatches[n].handler.Same(active[n]) {
		n++
	}
	if n == len(top.tryCatches) {
		return nil
	}
	closed := top.tryCatches[n:]
	top.tryCatches = top.tryCatches[:n]

	// Innermost first: a bookmark created later is nested inside one
	// created earlier against the same lexBlock (§3), so its slice of the
	// body must be carved out before the outer one's slice is taken.
	for i := len(closed) - 1; i >= 0; i-- {
		if err := gen.resolveBookmark(top, closed[i]); err != nil {
			return err
		}
	}
	return nil
}

// createNewBookmarks opens a TryCatch bookmark for every entry of active
// beyond the bookmarks top already has open, recording the current
// length of top's body as the protected region's start (§4.5).
func (gen *Generator) createNewBookmarks(top *lexBlock, active []ir.TryCatchRange) {
	for i := len(top.tryCatches); i < len(active); i++ {
		top.tryCatches = append(top.tryCatches, &bookmark{
			offset:  len(*top.body),
			handler: active[i],
		})
	}
}

// resolveBookmark builds bm's TryCatch by slicing block.body from its
// offset to the current end and replacing that tail with the single
// wrapper statement. The handler is always a Jump to the handler
// block's label; the handler block's own statements are emitted
// normally, wherever the main loop reaches that block (§4.5, matching
// Decompiler.java:closeExpiredBookmarks, which sets
// `tryCatchStmt.getHandler().add(generateJumpStatement(handlerBlock))`
// rather than inlining the handler's body into the wrapper). A
// protected slice that turns out empty — its sole instruction was an
// elided fallthrough jump, say — means there is nothing to protect, so
// no TryCatch is emitted at all.
func (gen *Generator) resolveBookmark(block *lexBlock, bm *bookmark) error {
	jump, err := gen.generateJumpStatement(bm.handler.HandlerBlock)
	if err != nil {
		return err
	}

	protected := append([]ir.Statement(nil), (*block.body)[bm.offset:]...)
	*block.body = (*block.body)[:bm.offset]
	if len(protected) == 0 {
		return nil
	}

	*block.body = append(*block.body, &ir.TryCatch{
		ExceptionType: bm.handler.ExceptionType,
		ExceptionVar:  bm.handler.ExceptionVar,
		Protected:     protected,
		Handler:       []ir.Statement{jump},
	})
	return nil
}

// isTrivialBlock reports whether an original block carries nothing but
// a single unconditional or two-way jump, so closing bookmarks ahead of
// it (before traversal physically reaches it) cannot skip observable
// exception scoping (§9). Handler entries and blocks with more than one
// instruction are never trivial.
func (gen *Generator) isTrivialBlock(node int) bool {
	if gen.exceptionHandler[node] {
		return false
	}
	b := gen.program.Blocks[node]
	if len(b.Instructions) != 1 {
		return false
	}
	switch b.Instructions[0].(type) {
	case ir.Jump, ir.BranchIf:
		return true
	default:
		return false
	}
}
