// Package dbreset drops every table of a test target database.
//
// A consumer under test writes the generated stream into a relational
// target. Running Clear before and after each run gives each run an empty
// database. PostgreSQL is the production target (public schema); SQLite
// is supported so the cleanup itself can be tested without a server.
package dbreset
