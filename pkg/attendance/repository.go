package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var ErrInternshipNotFound = errors.New("internship not found")

type Repository interface {
	GetInternship(ctx context.Context, internId int) (Internship, error)
	StoreInternship(ctx context.Context, internship Internship) error
	// GetEntries returns attendance entries dated in [from, to), oldest first and, per day, in recording order.
	GetEntries(ctx context.Context, internId int, from time.Time, to time.Time) ([]Entry, error)
	StoreEntry(ctx context.Context, entry Entry) (Entry, error)
	// GetApprovedLeaves returns approved leaves overlapping [from, to).
	GetApprovedLeaves(ctx context.Context, internId int, from time.Time, to time.Time) ([]Leave, error)
	StoreLeave(ctx context.Context, leave Leave) (Leave, error)
}

type repositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) GetInternship(ctx context.Context, internId int) (Internship, error) {
	query := `SELECT intern_id, start_date, end_date FROM internship WHERE intern_id = $1`
	var internship Internship
	err := r.db.QueryRow(ctx, query, internId).Scan(&internship.InternId, &internship.StartDate, &internship.EndDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Internship{}, ErrInternshipNotFound
		}
		err := fmt.Errorf("could not get internship: %w", err)
		log.Error(err)
		return Internship{}, err
	}
	return internship, nil
}

func (r *repositoryImpl) StoreInternship(ctx context.Context, internship Internship) error {
	query := `INSERT INTO internship (intern_id, start_date, end_date) VALUES ($1, $2, $3)
			  ON CONFLICT (intern_id) DO UPDATE SET start_date = EXCLUDED.start_date, end_date = EXCLUDED.end_date`
	_, err := r.db.Exec(ctx, query, internship.InternId, internship.StartDate, internship.EndDate)
	if err != nil {
		err := fmt.Errorf("could not store internship: %w", err)
		log.Error(err)
		return err
	}
	return nil
}

func (r *repositoryImpl) GetEntries(ctx context.Context, internId int, from time.Time, to time.Time) ([]Entry, error) {
	query := `SELECT id, intern_id, entry_date, work_mode, recorded_at
			  FROM attendance_entry
			  WHERE intern_id = $1 AND entry_date >= $2 AND entry_date < $3
			  ORDER BY entry_date, recorded_at, id`
	rows, err := r.db.Query(ctx, query, internId, from, to)
	if err != nil {
		err := fmt.Errorf("could not query attendance entries: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var workMode string
		if err := rows.Scan(&entry.Id, &entry.InternId, &entry.Date, &workMode, &entry.RecordedAt); err != nil {
			err := fmt.Errorf("could not scan attendance entry: %w", err)
			log.Error(err)
			return nil, err
		}
		entry.WorkMode = WorkMode(workMode)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over rows: %w", err)
	}
	return entries, nil
}

func (r *repositoryImpl) StoreEntry(ctx context.Context, entry Entry) (Entry, error) {
	query := `INSERT INTO attendance_entry (intern_id, entry_date, work_mode, recorded_at)
			  VALUES ($1, $2, $3, $4) RETURNING id`
	err := r.db.QueryRow(ctx, query, entry.InternId, entry.Date, string(entry.WorkMode), entry.RecordedAt).Scan(&entry.Id)
	if err != nil {
		err := fmt.Errorf("could not store attendance entry: %w", err)
		log.Error(err)
		return Entry{}, err
	}
	return entry, nil
}

func (r *repositoryImpl) GetApprovedLeaves(ctx context.Context, internId int, from time.Time, to time.Time) ([]Leave, error) {
	query := `SELECT id, intern_id, start_date, end_date, status
			  FROM leave_request
			  WHERE intern_id = $1 AND status = 'APPROVED' AND start_date < $3 AND end_date >= $2
			  ORDER BY start_date`
	rows, err := r.db.Query(ctx, query, internId, from, to)
	if err != nil {
		err := fmt.Errorf("could not query leaves: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	var leaves []Leave
	for rows.Next() {
		var leave Leave
		var status string
		if err := rows.Scan(&leave.Id, &leave.InternId, &leave.StartDate, &leave.EndDate, &status); err != nil {
			err := fmt.Errorf("could not scan leave: %w", err)
			log.Error(err)
			return nil, err
		}
		leave.Status = LeaveStatus(status)
		leaves = append(leaves, leave)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over rows: %w", err)
	}
	return leaves, nil
}

func (r *repositoryImpl) StoreLeave(ctx context.Context, leave Leave) (Leave, error) {
	query := `INSERT INTO leave_request (intern_id, start_date, end_date, status) VALUES ($1, $2, $3, $4) RETURNING id`
	err := r.db.QueryRow(ctx, query, leave.InternId, leave.StartDate, leave.EndDate, string(leave.Status)).Scan(&leave.Id)
	if err != nil {
		err := fmt.Errorf("could not store leave: %w", err)
		log.Error(err)
		return Leave{}, err
	}
	return leave, nil
}
