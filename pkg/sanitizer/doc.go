// Package sanitizer provides input normalization functions for marketplace data.
//
// All normalization functions are idempotent - applying them multiple times produces
// the same result. Functions handle invalid input gracefully, typically by returning
// empty strings or empty slices rather than errors.
//
// Normalization includes:
//   - Phone numbers: Argentine mobile format, digits only with the 549 prefix
//   - Strings: Collapse whitespace, trim leading/trailing spaces
//   - Emails: Trim and lowercase
//   - Weekday names: Lowercase with diacritics stripped - "Miércoles" becomes "miercoles"
//   - Slices: Remove duplicates and empty values after normalization
package sanitizer
