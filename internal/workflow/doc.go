// Package workflow tracks one record per pipeline invocation. The Tracker
// assigns identifiers, maintains running counters, and writes records through
// to a SQLite store so workflow history survives process restarts. Statuses
// move from created to exactly one terminal state (success or error); if you
// add statuses, update schema.sql and bump schemaVersion.
package workflow
