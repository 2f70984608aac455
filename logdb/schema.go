// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

// id keeps the emission order, events of a restarted engine may repeat (era, eventIndex).
const eventTableSchema = `CREATE TABLE IF NOT EXISTS event (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	era INTEGER NOT NULL,
	eventIndex INTEGER NOT NULL,
	kind TEXT NOT NULL,
	stash BLOB NOT NULL,
	other BLOB NOT NULL,
	amount BLOB
);

CREATE INDEX IF NOT EXISTS event_i_era ON event(era, eventIndex);
CREATE INDEX IF NOT EXISTS event_i_kind ON event(kind);
CREATE INDEX IF NOT EXISTS event_i_stash ON event(stash);
CREATE INDEX IF NOT EXISTS event_i_other ON event(other);`
