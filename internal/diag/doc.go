// Package diag defines the diagnostic model shared by the analysis engine,
// the language-server session and the CLI checker.
//
// Diagnostic is the central record. It contains:
//
//   - Severity: four-level enum (Hint, Info, Warning, Error) defined in
//     severity.go, ordered so that comparisons like >= SevError work.
//   - Code: compact numeric identifier (see codes.go) with a stable
//     string form used in editor output and SARIF reports.
//   - Message: human oriented text; keep it short and actionable.
//   - Primary span: the analyzer-native source.Span pointing to the
//     issue. A zero span means the producer had no position; protocol
//     mapping turns it into a zero-length range at document start.
//   - Notes: optional secondary spans/messages for additional context.
//
// Package diag performs no formatting or IO. Rendering lives in
// internal/diagfmt, protocol conversion in internal/position, and
// orchestration in internal/session and internal/driver.
//
// Keep the data model deterministic and side-effect free so diagnostics can
// be serialised for caching and compared in tests.
package diag
