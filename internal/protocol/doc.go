// Package protocol defines the three message shapes of the record streaming
// protocol and their line-delimited wire encoding.
//
// A well-formed stream is:
//
//	{"type":"SCHEMA","stream":"cats","schema":{...},"key_properties":["id"]}
//	{"type":"RECORD","stream":"cats","record":{...},"sequence":1700000000,"version":7}
//	...
//	{"type":"ACTIVATE_VERSION","stream":"cats","version":7}
//
// # Wire encoding
//
// MarshalLine produces one JSON object per message with no trailing newline.
// Output is byte-stable for equal inputs:
//   - Object keys sorted by UTF-16 code units
//   - No HTML escaping
//   - Strings NFC normalized
//
// Unlike a canonical hashing format, floats and nulls are allowed: malformed
// records carry both on purpose.
//
// This package has no internal imports.
package protocol
