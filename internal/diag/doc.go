// Package diag defines the diagnostic model shared by the generator phases.
//
// A Diagnostic carries a Severity, a stable Code (rendered as DIR/STR/BLD/MIR/IO
// identifiers), a message, the primary source.Span pointing at the offending
// declaration, optional notes and optional fixes. Fixes are plain data: a list
// of TextEdits that internal/fix applies to files on disk.
//
// Phases emit through a Reporter so they do not depend on storage; BagReporter
// collects into a Bag, which the driver sorts and hands to internal/diagfmt for
// rendering.
//
// Structural problems found by the engine are raised as *decl.StructuralError
// values and converted into diagnostics at the driver boundary, so the engine
// itself stays free of reporting concerns.
package diag
