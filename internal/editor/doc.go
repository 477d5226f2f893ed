// Package editor is the non-destructive editing façade.
//
// An Editor owns one immutable source image and one operation history.
// Edits are appended to the history after validation; nothing touches
// pixels until Render, which replays the active operations over a fresh copy
// of the source. Undo and redo only move the history cursor, so they are
// exact regardless of which operations were applied.
//
// Basic usage:
//
//	ed, err := editor.FromFile("photo.jpg", editor.WithEntitlement(licenses))
//	if err != nil {
//		return err
//	}
//	if err := ed.Crop(10, 10, 200, 100); err != nil {
//		return err
//	}
//	ed.Filter(ops.FilterSepia, ops.FilterOptions{})
//	enc, err := ed.Export(ctx, "image/jpeg", 0.9)
//
// Export and Download stamp an "UNLICENSED" watermark on the output unless
// the configured Entitlement reports a valid license. Render and the
// inspection methods never do.
//
// An Editor serializes its own history mutations and is safe for concurrent
// use. Renders run outside the lock on a snapshot of the active operations.
package editor
