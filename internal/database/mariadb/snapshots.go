package mariadb

import (
	"context"
	"fmt"
	"time"
)

// Snapshot is one imaging event from a legacy phenotyping database.
type Snapshot struct {
	ID      int64
	PlantID string
	TakenAt time.Time
}

// LandmarkPoint is a raw pseudo-landmark coordinate attached to a snapshot.
type LandmarkPoint struct {
	SnapshotID int64
	Name       string
	X          float64
	Y          float64
}

// Snapshots returns all snapshots ordered by capture time.
func (p *Pool) Snapshots(ctx context.Context) ([]Snapshot, error) {
	query := `
		SELECT id, id_tag, time_stamp
		FROM snapshots
		ORDER BY time_stamp, id
	`

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []Snapshot
	for rows.Next() {
		var s Snapshot
		if err := rows.Scan(&s.ID, &s.PlantID, &s.TakenAt); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return snapshots, nil
}

// SnapshotsForPlant returns the snapshots of a single plant ordered by
// capture time.
func (p *Pool) SnapshotsForPlant(ctx context.Context, plantID string) ([]Snapshot, error) {
	query := `
		SELECT id, id_tag, time_stamp
		FROM snapshots
		WHERE id_tag = ?
		ORDER BY time_stamp, id
	`

	rows, err := p.db.QueryContext(ctx, query, plantID)
	if err != nil {
		return nil, fmt.Errorf("query snapshots for %s: %w", plantID, err)
	}
	defer rows.Close()

	var snapshots []Snapshot
	for rows.Next() {
		var s Snapshot
		if err := rows.Scan(&s.ID, &s.PlantID, &s.TakenAt); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return snapshots, nil
}

// LandmarkPoints returns the raw landmark coordinates recorded for a snapshot.
func (p *Pool) LandmarkPoints(ctx context.Context, snapshotID int64) ([]LandmarkPoint, error) {
	query := `
		SELECT snapshot_id, name, x, y
		FROM landmark_points
		WHERE snapshot_id = ?
		ORDER BY name
	`

	rows, err := p.db.QueryContext(ctx, query, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("query landmark points for snapshot %d: %w", snapshotID, err)
	}
	defer rows.Close()

	var points []LandmarkPoint
	for rows.Next() {
		var pt LandmarkPoint
		if err := rows.Scan(&pt.SnapshotID, &pt.Name, &pt.X, &pt.Y); err != nil {
			return nil, fmt.Errorf("scan landmark point: %w", err)
		}
		points = append(points, pt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate landmark points: %w", err)
	}
	return points, nil
}

// CountSnapshots returns the number of snapshots in the legacy database.
func (p *Pool) CountSnapshots(ctx context.Context) (int, error) {
	var count int
	if err := p.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM snapshots").Scan(&count); err != nil {
		return 0, fmt.Errorf("count snapshots: %w", err)
	}
	return count, nil
}
