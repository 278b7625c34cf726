// Package catalog holds the class and chapter content the reader renders.
//
// The built-in catalog is embedded from data/classes.json. At startup the
// client may fetch an override document from the server and fold it in with
// Merge; a failed fetch or parse is reported as ErrContentMerge and the
// built-in catalog stays authoritative.
//
// Chapter order is a pure policy: SortChapters orders by the first run of
// ASCII digits in the chapter name, so "Chapter 2" precedes "Chapter 10".
// Names without digits sort as chapter 0, and ties keep input order.
package catalog
