package store

// Schema creates the tables of the book. Amounts and rates are stored as
// decimal strings and dates as yyyy-mm-dd.
const Schema = `
CREATE TABLE IF NOT EXISTS positions (
	id          TEXT PRIMARY KEY,
	symbol      TEXT NOT NULL,
	currency    TEXT NOT NULL DEFAULT '',
	entry_price TEXT NOT NULL,
	quantity    INTEGER NOT NULL CHECK (quantity >= 1),
	entry_date  TEXT NOT NULL,
	margin_rate TEXT NOT NULL,
	exit_price  TEXT,
	exit_date   TEXT,
	notes       TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS closures (
	id          TEXT PRIMARY KEY,
	position_id TEXT NOT NULL REFERENCES positions(id) ON DELETE CASCADE,
	quantity    INTEGER NOT NULL CHECK (quantity >= 1),
	price       TEXT NOT NULL,
	closed_on   TEXT NOT NULL,
	notes       TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS closures_by_position ON closures(position_id);
`
