// Package sanitizer cleans booking contact fields and search input.
//
// Functions are idempotent and never fail: input that cannot be cleaned comes
// back empty and validation reports it.
package sanitizer
