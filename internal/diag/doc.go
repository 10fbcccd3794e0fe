// Package diag defines the finding model shared by the analyzer, the
// refactoring passes and the report renderers.
//
// # Data model
//
// Finding is the central record. It contains:
//
//   - Category – closed enum (see codes.go) with a kebab-case name used in
//     configuration and a stable short ID (PT001...).
//   - Severity – info or warning; error is only used when a syntax error is
//     rendered next to findings.
//   - Line / Column – 1-based position; Column 0 means "whole line".
//   - Message – human oriented text; keep it short and actionable.
//   - Span – byte range in the analyzed text, used by renderers to underline.
//   - Notes – optional secondary locations (e.g. the other copy of a
//     duplicated block).
//
// # Emitting findings
//
// Checks report through a Reporter. BagReporter aggregates findings into a
// Bag, which sorts them by line, column and category name. DedupReporter
// drops repeated reports before they reach the bag.
//
// Package diag performs no formatting beyond FormatGolden, a stable
// one-line-per-finding form for tests; rendering lives in internal/diagfmt.
package diag
