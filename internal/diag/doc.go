// Package diag defines the diagnostic model shared by the report parser,
// the pragma pass and the session driver.
//
// # Purpose
//
//   - Give every recoverable finding (missing source file, duplicate report
//     block, malformed profile stream, ...) a stable Code and Severity.
//   - Decouple producers from storage and formatting: producers only see a
//     Reporter, the CLI decides whether diagnostics end up in a Bag, on
//     stderr, or nowhere.
//
// # Scope
//
// Package diag performs no formatting or IO. Rendering lives in
// internal/diagfmt.
//
// # Contract
//
// Reporters are a passive sink: Report must never panic and must never
// block the caller for long. Nothing in the coverage core turns a
// diagnostic into a hard failure; hard failures are plain Go errors.
package diag
