package datarecording

import (
	"context"
	"database/sql"
	"fmt"
)

// An EventRow is one persisted item event.
type EventRow struct {
	Time    float64
	Kind    string
	Item    uint64
	Station int
	Belt    int
	Carrier int
	Lane    int
	Unit    string
}

// A SnapshotRow is one persisted periodic state snapshot.
type SnapshotRow struct {
	Time         float64
	Mode         string
	Created      uint64
	Completed    uint64
	InLoop       int
	InBelts      int
	InDrain      int
	InHold       int
	InFeedQueue  int
	OnUnloadLoop int
	InSortQueue  int
	InLanes      int
	WaitingJobs  int
}

// QueryParams narrows and pages a query.
type QueryParams struct {
	// Where holds the WHERE clause without the "WHERE" keyword.
	// Example: "time > ? AND kind = ?"
	Where string

	// Args holds the arguments for the placeholders in Where.
	Args []any

	// Limit is the maximum number of records to return; 0 means no limit.
	Limit int

	// Offset is the number of records to skip.
	Offset int

	// OrderBy specifies sorting, without the "ORDER BY" keywords.
	OrderBy string
}

// A Reader reads a recorded run back from its database.
type Reader struct {
	db *sql.DB
}

// NewReader opens a recorded database file.
func NewReader(dbFilename string) *Reader {
	db, err := sql.Open("sqlite3", dbFilename)
	if err != nil {
		panic(err)
	}

	return &Reader{db: db}
}

// NewReaderWithDB creates a Reader on an already open database.
func NewReaderWithDB(db *sql.DB) *Reader {
	return &Reader{db: db}
}

// Close closes the database.
func (r *Reader) Close() error {
	return r.db.Close()
}

func buildQuery(table string, params QueryParams) string {
	query := "SELECT * FROM " + table

	if params.Where != "" {
		query += " WHERE " + params.Where
	}

	if params.OrderBy != "" {
		query += " ORDER BY " + params.OrderBy
	}

	if params.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", params.Limit)
		if params.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", params.Offset)
		}
	}

	return query
}

func (r *Reader) totalCount(
	ctx context.Context,
	table string,
	params QueryParams,
) (int, error) {
	query := "SELECT COUNT(*) FROM " + table
	if params.Where != "" {
		query += " WHERE " + params.Where
	}

	var count int
	err := r.db.QueryRowContext(ctx, query, params.Args...).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

// QueryEvents returns the matching event rows and the total count of rows
// matching the filter regardless of pagination.
func (r *Reader) QueryEvents(
	ctx context.Context,
	params QueryParams,
) ([]EventRow, int, error) {
	total, err := r.totalCount(ctx, "events", params)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(
		ctx, buildQuery("events", params), params.Args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []EventRow
	for rows.Next() {
		var e EventRow
		err := rows.Scan(&e.Time, &e.Kind, &e.Item,
			&e.Station, &e.Belt, &e.Carrier, &e.Lane, &e.Unit)
		if err != nil {
			return nil, 0, err
		}

		results = append(results, e)
	}

	return results, total, rows.Err()
}

// QuerySnapshots returns the matching snapshot rows and the total count of
// rows matching the filter regardless of pagination.
func (r *Reader) QuerySnapshots(
	ctx context.Context,
	params QueryParams,
) ([]SnapshotRow, int, error) {
	total, err := r.totalCount(ctx, "snapshots", params)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(
		ctx, buildQuery("snapshots", params), params.Args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []SnapshotRow
	for rows.Next() {
		var s SnapshotRow
		err := rows.Scan(&s.Time, &s.Mode, &s.Created, &s.Completed,
			&s.InLoop, &s.InBelts, &s.InDrain, &s.InHold,
			&s.InFeedQueue, &s.OnUnloadLoop, &s.InSortQueue,
			&s.InLanes, &s.WaitingJobs)
		if err != nil {
			return nil, 0, err
		}

		results = append(results, s)
	}

	return results, total, rows.Err()
}
