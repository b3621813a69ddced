// Package datarecording persists the run history of a line into a SQLite
// database: one row per item event, one row per periodic state snapshot.
package datarecording

import (
	"database/sql"
	"fmt"
	"os"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"

	"github.com/sortlab/sortline/plant"
	"github.com/sortlab/sortline/sim"
)

const createEventsSQL = `CREATE TABLE events (
	time REAL,
	kind TEXT,
	item INTEGER,
	station INTEGER,
	belt INTEGER,
	carrier INTEGER,
	lane INTEGER,
	unit TEXT
);`

const createSnapshotsSQL = `CREATE TABLE snapshots (
	time REAL,
	mode TEXT,
	created INTEGER,
	completed INTEGER,
	in_loop INTEGER,
	in_belts INTEGER,
	in_drain INTEGER,
	in_hold INTEGER,
	in_feed_queue INTEGER,
	on_unload_loop INTEGER,
	in_sort_queue INTEGER,
	in_lanes INTEGER,
	waiting_jobs INTEGER
);`

// A Recorder buffers events and snapshots and writes them to the database
// in batches. It can serve as a plant hook, persisting every emitted event.
type Recorder struct {
	db *sql.DB

	batchSize int
	events    []plant.Event
	snapshots []plant.Snapshot
}

// New creates a Recorder backed by a fresh database file. An empty path
// picks a unique name. The recorder flushes on process exit.
func New(path string) *Recorder {
	if path == "" {
		path = "sortline_run_" + xid.New().String()
	}

	filename := path + ".sqlite3"
	if _, err := os.Stat(filename); err == nil {
		panic(fmt.Errorf("file %s already exists", filename))
	}

	fmt.Fprintf(os.Stderr, "Database created for recording: %s\n", filename)

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		panic(err)
	}

	r := NewWithDB(db)

	atexit.Register(func() { r.Flush() })

	return r
}

// NewWithDB creates a Recorder on an already open database.
func NewWithDB(db *sql.DB) *Recorder {
	r := &Recorder{
		db:        db,
		batchSize: 100000,
	}

	r.mustExecute(createEventsSQL)
	r.mustExecute(createSnapshotsSQL)

	return r
}

// Func implements sim.Hook, recording plant events as they are emitted.
func (r *Recorder) Func(ctx sim.HookCtx) {
	if ctx.Pos != plant.HookPosPlantEvent {
		return
	}

	r.RecordEvent(ctx.Item.(plant.Event))
}

// RecordEvent buffers one event row.
func (r *Recorder) RecordEvent(ev plant.Event) {
	r.events = append(r.events, ev)
	r.flushIfFull()
}

// RecordSnapshot buffers one snapshot row.
func (r *Recorder) RecordSnapshot(s plant.Snapshot) {
	r.snapshots = append(r.snapshots, s)
	r.flushIfFull()
}

func (r *Recorder) flushIfFull() {
	if len(r.events)+len(r.snapshots) >= r.batchSize {
		r.Flush()
	}
}

// Flush writes all buffered rows in one transaction.
func (r *Recorder) Flush() {
	if len(r.events) == 0 && len(r.snapshots) == 0 {
		return
	}

	r.mustExecute("BEGIN TRANSACTION")
	defer r.mustExecute("COMMIT TRANSACTION")

	if len(r.events) > 0 {
		stmt := r.mustPrepare(
			"INSERT INTO events VALUES (?, ?, ?, ?, ?, ?, ?, ?)")

		for _, ev := range r.events {
			_, err := stmt.Exec(
				float64(ev.Time), ev.Kind.String(), ev.Item,
				ev.Station, ev.Belt, ev.Carrier, ev.Lane, ev.Unit)
			if err != nil {
				panic(err)
			}
		}

		stmt.Close()
		r.events = nil
	}

	if len(r.snapshots) > 0 {
		stmt := r.mustPrepare(
			"INSERT INTO snapshots VALUES " +
				"(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")

		for _, s := range r.snapshots {
			_, err := stmt.Exec(
				float64(s.Time), s.Mode, s.Created, s.Completed,
				s.InLoop, s.InBelts, s.InDrain, s.InHold,
				s.InFeedQueue, s.OnUnloadLoop, s.InSortQueue,
				s.InLanes, s.WaitingJobs)
			if err != nil {
				panic(err)
			}
		}

		stmt.Close()
		r.snapshots = nil
	}
}

// Close flushes and closes the database.
func (r *Recorder) Close() error {
	r.Flush()
	return r.db.Close()
}

func (r *Recorder) mustExecute(query string) sql.Result {
	res, err := r.db.Exec(query)
	if err != nil {
		fmt.Printf("Failed to execute: %s\n", query)
		panic(err)
	}

	return res
}

func (r *Recorder) mustPrepare(query string) *sql.Stmt {
	stmt, err := r.db.Prepare(query)
	if err != nil {
		panic(err)
	}

	return stmt
}
