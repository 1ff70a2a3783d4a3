// Package radar discovers product opportunities in discussion pages.
// It extracts page content through platform adapters, sends a sanitized
// copy to a language model for structured analysis, and keeps curated
// results in a local store.
//
// This package contains domain types, interfaces and small pure policies
// following Ben Johnson's Standard Package Layout. Implementations live in
// subdirectories named after their primary dependency (e.g., sqlite/,
// goquery/, gemini/).
package radar
