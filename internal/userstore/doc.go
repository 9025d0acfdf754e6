// Package userstore persists per-user Google OAuth tokens and account
// preferences in SQLite.
//
// The store keeps one row per Google identity. It deliberately distinguishes
// read and write failure policies: reads fail open (a storage fault looks
// like a missing user, so requests degrade to "not authenticated" rather than
// erroring), writes fail closed (errors are logged and returned to the
// caller). Every write is a single SQL statement, which is all the atomicity
// the single-row-per-user model needs.
//
// Schema changes ship as embedded golang-migrate migrations applied on
// startup via RunMigrations.
package userstore
