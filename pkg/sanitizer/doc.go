// Package sanitizer normalizes admin input before validation and storage.
//
// All functions are idempotent and never fail: invalid input yields an empty string,
// and slice helpers drop empty and duplicate values after normalization.
//
//   - Titles: collapse whitespace, trim.
//   - Categories: lowercase, runs of non letters/digits become one underscore.
//   - Emails: lowercase, trimmed, dropped when malformed.
package sanitizer
