// Package storage journals command lifecycle events so a run can be
// inspected after the fact, either as JSON Lines ("file") or in a SQLite
// database ("sqlite", pure Go driver).
package storage
