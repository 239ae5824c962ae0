// Package schema holds the declarative schema documents that streams
// announce in their SCHEMA message.
//
// Documents are JSON-schema-like maps and are read-only once loaded.
// Nothing here validates records against a document; that is the
// consumer's job.
package schema
