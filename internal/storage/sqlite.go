package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/san-kum/orrery/internal/engine"
)

const schema = `
CREATE TABLE IF NOT EXISTS positions (
	tick 	INTEGER NOT NULL,
	name 	TEXT NOT NULL,
	x 		REAL NOT NULL,
	y 		REAL NOT NULL,
	vx 		REAL NOT NULL,
	vy 		REAL NOT NULL,
	net_force REAL NOT NULL,
	PRIMARY KEY (tick, name));
`

const (
	insertPosition  = `INSERT INTO positions VALUES (?, ?, ?, ?, ?, ?, ?);`
	queryTrajectory = `SELECT tick, x, y FROM positions WHERE name = ? ORDER BY tick ASC;`
	queryFrame      = `SELECT name, x, y FROM positions WHERE tick = ? ORDER BY name ASC;`
	queryLastTick   = `SELECT COALESCE(MAX(tick), 0) FROM positions;`
)

// SQLite records every tick of a run into a single database file, one
// transaction per tick. It is an engine.Observer.
type SQLite struct {
	db   *sql.DB
	stmt *sql.Stmt
	log  *slog.Logger

	mu  sync.Mutex
	err error
}

// OpenSQLite creates path and its schema. An existing file is refused so
// two runs never share a table.
func OpenSQLite(path string, log *slog.Logger) (*SQLite, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("storage: %s already exists", path)
	}
	if log == nil {
		log = slog.Default()
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, err
	}
	// sqlite allows one writer at a time
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	stmt, err := db.Prepare(insertPosition)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &SQLite{db: db, stmt: stmt, log: log}, nil
}

// OpenSQLiteReader opens an existing recording for queries.
func OpenSQLiteReader(path string) (*SQLite, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, err
	}
	return &SQLite{db: db, log: slog.Default()}, nil
}

func (s *SQLite) OnTick(r *engine.TickReport) {
	if err := s.WriteTick(r); err != nil {
		s.log.Error("sqlite record failed", "tick", r.Tick, "error", err)
		s.mu.Lock()
		s.err = errors.Join(s.err, err)
		s.mu.Unlock()
	}
}

// WriteTick inserts the tick's moves in one transaction.
func (s *SQLite) WriteTick(r *engine.TickReport) error {
	if s.stmt == nil {
		return errors.New("storage: sqlite opened read-only")
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	stmt := tx.Stmt(s.stmt)
	for _, mv := range r.Moves {
		_, err = stmt.Exec(mv.Tick, mv.Name,
			mv.Position.X(), mv.Position.Y(),
			mv.Velocity.X(), mv.Velocity.Y(),
			mv.NetForce)
		if err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Err reports the failures seen by OnTick so far.
func (s *SQLite) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *SQLite) Trajectory(name string) ([]Point, error) {
	rows, err := s.db.Query(queryTrajectory, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pts []Point
	for rows.Next() {
		var p Point
		if err := rows.Scan(&p.Tick, &p.X, &p.Y); err != nil {
			return nil, err
		}
		pts = append(pts, p)
	}
	return pts, rows.Err()
}

// Frame returns every body's position at tick, keyed by name.
func (s *SQLite) Frame(tick uint64) (map[string]Point, error) {
	rows, err := s.db.Query(queryFrame, tick)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]Point)
	for rows.Next() {
		var name string
		p := Point{Tick: tick}
		if err := rows.Scan(&name, &p.X, &p.Y); err != nil {
			return nil, err
		}
		out[name] = p
	}
	return out, rows.Err()
}

func (s *SQLite) LastTick() (uint64, error) {
	var tick int64
	if err := s.db.QueryRow(queryLastTick).Scan(&tick); err != nil {
		return 0, err
	}
	return uint64(tick), nil
}

func (s *SQLite) Close() error {
	var err error
	if s.stmt != nil {
		err = s.stmt.Close()
	}
	return errors.Join(err, s.db.Close())
}
