// Package sqlite implements every repository interface in
// internal/repositories against a single SQLite database accessed
// through database/sql and modernc.org/sqlite (pure Go, no cgo).
package sqlite

import (
	"database/sql"
	"fmt"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS place (
	rowid       INTEGER PRIMARY KEY AUTOINCREMENT,
	id          TEXT NOT NULL UNIQUE,
	license     TEXT NOT NULL,
	current_rev INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS place_revision (
	rowid          INTEGER PRIMARY KEY AUTOINCREMENT,
	parent_rowid   INTEGER NOT NULL REFERENCES place(rowid),
	rev            INTEGER NOT NULL,
	created_at     INTEGER NOT NULL,
	created_by     TEXT,
	current_status TEXT NOT NULL,
	title          TEXT NOT NULL,
	description    TEXT NOT NULL,
	lat            INTEGER NOT NULL,
	lng            INTEGER NOT NULL,
	addr_street    TEXT,
	addr_zip       TEXT,
	addr_city      TEXT,
	addr_country   TEXT,
	addr_state     TEXT,
	contact_email  TEXT,
	contact_phone  TEXT,
	homepage       TEXT,
	opening_hours  TEXT,
	founded_on     TEXT,
	image          TEXT,
	image_href     TEXT,
	UNIQUE(parent_rowid, rev)
);

CREATE TABLE IF NOT EXISTS place_revision_tag (
	parent_rowid INTEGER NOT NULL REFERENCES place_revision(rowid),
	tag          TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS place_revision_review (
	rowid        INTEGER PRIMARY KEY AUTOINCREMENT,
	parent_rowid INTEGER NOT NULL REFERENCES place_revision(rowid),
	rev          INTEGER NOT NULL,
	created_at   INTEGER NOT NULL,
	created_by   TEXT,
	status       TEXT NOT NULL,
	context      TEXT,
	comment      TEXT
);

CREATE TABLE IF NOT EXISTS place_rating (
	rowid        INTEGER PRIMARY KEY AUTOINCREMENT,
	parent_rowid INTEGER NOT NULL REFERENCES place(rowid),
	created_at   INTEGER NOT NULL,
	archived_at  INTEGER,
	id           TEXT NOT NULL UNIQUE,
	title        TEXT NOT NULL,
	value        INTEGER NOT NULL,
	context      TEXT NOT NULL,
	source       TEXT
);

CREATE TABLE IF NOT EXISTS place_rating_comment (
	rowid        INTEGER PRIMARY KEY AUTOINCREMENT,
	parent_rowid INTEGER NOT NULL REFERENCES place_rating(rowid),
	created_at   INTEGER NOT NULL,
	archived_at  INTEGER,
	id           TEXT NOT NULL UNIQUE,
	text         TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS events (
	rowid             INTEGER PRIMARY KEY AUTOINCREMENT,
	id                TEXT NOT NULL UNIQUE,
	title             TEXT NOT NULL,
	start_at          INTEGER NOT NULL,
	end_at            INTEGER,
	lat               INTEGER,
	lng               INTEGER,
	contact_email     TEXT,
	contact_phone     TEXT,
	homepage          TEXT,
	registration_type TEXT,
	organizer         TEXT,
	image             TEXT,
	image_href        TEXT,
	created_by        TEXT NOT NULL,
	archived_at       INTEGER
);

CREATE TABLE IF NOT EXISTS event_tags (
	event_rowid INTEGER NOT NULL REFERENCES events(rowid),
	tag         TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
	rowid           INTEGER PRIMARY KEY AUTOINCREMENT,
	email           TEXT NOT NULL UNIQUE,
	email_confirmed INTEGER NOT NULL DEFAULT 0,
	password_hash   TEXT NOT NULL,
	role            TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS user_tokens (
	rowid      INTEGER PRIMARY KEY AUTOINCREMENT,
	user_rowid INTEGER NOT NULL UNIQUE REFERENCES users(rowid),
	expires_at INTEGER NOT NULL,
	nonce      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS review_tokens (
	rowid        INTEGER PRIMARY KEY AUTOINCREMENT,
	place_rowid  INTEGER NOT NULL REFERENCES place(rowid),
	revision     INTEGER NOT NULL,
	expires_at   INTEGER NOT NULL,
	nonce        TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS organization (
	rowid     INTEGER PRIMARY KEY AUTOINCREMENT,
	id        TEXT NOT NULL UNIQUE,
	name      TEXT NOT NULL,
	api_token TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS organization_tag (
	org_rowid        INTEGER NOT NULL REFERENCES organization(rowid),
	tag_label        TEXT NOT NULL,
	allow_add        INTEGER NOT NULL DEFAULT 0,
	allow_remove     INTEGER NOT NULL DEFAULT 0,
	require_clearance INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS organization_place_clearance (
	org_rowid             INTEGER NOT NULL REFERENCES organization(rowid),
	place_rowid           INTEGER NOT NULL REFERENCES place(rowid),
	created_at            INTEGER NOT NULL,
	last_cleared_revision INTEGER,
	UNIQUE(org_rowid, place_rowid)
);

CREATE TABLE IF NOT EXISTS bbox_subscriptions (
	rowid          INTEGER PRIMARY KEY AUTOINCREMENT,
	id             TEXT NOT NULL UNIQUE,
	user_rowid     INTEGER NOT NULL REFERENCES users(rowid),
	south_west_lat INTEGER NOT NULL,
	south_west_lng INTEGER NOT NULL,
	north_east_lat INTEGER NOT NULL,
	north_east_lng INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS tags (
	id TEXT NOT NULL UNIQUE
);
`

// Migrate applies the schema to db. It is idempotent: every statement
// uses CREATE TABLE IF NOT EXISTS.
func Migrate(db *sql.DB) error {
	_, err := db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}
