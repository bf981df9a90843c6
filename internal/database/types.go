package database

import (
	"database/sql"
	"time"
)

// StoredLandmark represents a pseudo-landmark persisted in the database.
type StoredLandmark struct {
	ID        int64
	Name      string
	Day       string
	Group     sql.NullInt64 // NULL means the landmark has no homology group yet
	Embedding []float32
	Dim       int
	CreatedAt time.Time
}

// StoredObservation represents a single phenotype measurement persisted in
// the database. Value and Label are JSON-encoded so scalar and list
// observations share one schema.
type StoredObservation struct {
	ID        int64
	RunID     string
	Sample    string
	Variable  string
	Trait     string
	Method    string
	Scale     string
	Datatype  string
	Value     []byte
	Label     []byte
	CreatedAt time.Time
}
