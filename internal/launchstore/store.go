package launchstore

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/launchforge/launch-orchestrator/internal/domain"
	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound is returned when a launch does not exist
	ErrNotFound = errors.New("launch not found")

	// ErrStatusConflict is returned by SetLaunchStatus when the launch is not
	// in the expected status. The losing caller's transition is rejected.
	ErrStatusConflict = errors.New("launch status conflict")

	// ErrResultExists is returned when an agent result was already recorded
	// for this launch and agent. Results are written exactly once.
	ErrResultExists = errors.New("agent result already recorded")
)

// Store provides SQLite-backed launch persistence
type Store struct {
	db *sql.DB
}

// New creates a new Store with the given database path
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	// Cascade deletes of agent results require foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateLaunch inserts a new launch
func (s *Store) CreateLaunch(l *domain.Launch) error {
	_, err := s.db.Exec(`
		INSERT INTO launches (id, name, description, product_type, target_market, status, summary, created_at, updated_at, launch_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		l.ID,
		l.Name,
		l.Description,
		l.ProductType,
		l.TargetMarket,
		string(l.Status),
		nullString(l.Summary),
		l.CreatedAt,
		l.UpdatedAt,
		nullTime(l.LaunchDate),
	)
	return err
}

// GetLaunch retrieves a launch by ID
func (s *Store) GetLaunch(id string) (*domain.Launch, error) {
	row := s.db.QueryRow(`
		SELECT id, name, description, product_type, target_market, status, summary, created_at, updated_at, launch_date
		FROM launches WHERE id = ?
	`, id)

	l, err := scanLaunch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return l, err
}

// ListLaunches returns all launches, newest first
func (s *Store) ListLaunches() ([]*domain.Launch, error) {
	return s.queryLaunches(`
		SELECT id, name, description, product_type, target_market, status, summary, created_at, updated_at, launch_date
		FROM launches ORDER BY created_at DESC
	`)
}

// ListByStatus returns launches with the given status, oldest first
func (s *Store) ListByStatus(status domain.LaunchStatus) ([]*domain.Launch, error) {
	return s.queryLaunches(`
		SELECT id, name, description, product_type, target_market, status, summary, created_at, updated_at, launch_date
		FROM launches WHERE status = ? ORDER BY created_at
	`, string(status))
}

// ListDue returns pending launches whose launch date has passed
func (s *Store) ListDue(now time.Time) ([]*domain.Launch, error) {
	return s.queryLaunches(`
		SELECT id, name, description, product_type, target_market, status, summary, created_at, updated_at, launch_date
		FROM launches
		WHERE status = ? AND launch_date IS NOT NULL AND launch_date <= ?
		ORDER BY launch_date
	`, string(domain.LaunchPending), now)
}

// SetLaunchStatus transitions a launch's status only if it currently has the
// expected status. This is the conditional write that guards against
// duplicate starts and concurrent terminal transitions.
func (s *Store) SetLaunchStatus(id string, expected, next domain.LaunchStatus, summary string) error {
	res, err := s.db.Exec(`
		UPDATE launches SET status = ?, summary = COALESCE(?, summary), updated_at = ?
		WHERE id = ? AND status = ?
	`, string(next), nullString(summary), time.Now().UTC(), id, string(expected))
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// Distinguish a missing launch from a lost race
		if _, err := s.GetLaunch(id); err != nil {
			return err
		}
		return ErrStatusConflict
	}
	return nil
}

// DeleteLaunch removes a launch and, via cascade, all its agent results
func (s *Store) DeleteLaunch(id string) error {
	res, err := s.db.Exec(`DELETE FROM launches WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendAgentResult records an agent's terminal outcome for a launch.
// The first write for a given (launch, agent) pair wins; later attempts
// return ErrResultExists.
func (s *Store) AppendAgentResult(r *domain.AgentResult) error {
	res, err := s.db.Exec(`
		INSERT INTO agent_results (launch_id, agent_name, status, output, error_message, error_flag, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		r.LaunchID,
		r.AgentName,
		string(r.Status),
		nullString(r.Output),
		nullString(r.ErrorMessage),
		r.ErrorFlag,
		r.Timestamp,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrResultExists
		}
		return err
	}

	if id, err := res.LastInsertId(); err == nil {
		r.ID = id
	}
	return nil
}

// GetAgentResults returns a launch's agent results in creation order
func (s *Store) GetAgentResults(launchID string) ([]*domain.AgentResult, error) {
	rows, err := s.db.Query(`
		SELECT id, launch_id, agent_name, status, output, error_message, error_flag, timestamp
		FROM agent_results WHERE launch_id = ? ORDER BY id
	`, launchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*domain.AgentResult
	for rows.Next() {
		var r domain.AgentResult
		var status string
		var output, errorMessage sql.NullString

		if err := rows.Scan(&r.ID, &r.LaunchID, &r.AgentName, &status, &output, &errorMessage, &r.ErrorFlag, &r.Timestamp); err != nil {
			return nil, err
		}
		r.Status = domain.ResultStatus(status)
		r.Output = output.String
		r.ErrorMessage = errorMessage.String
		results = append(results, &r)
	}

	return results, rows.Err()
}

func (s *Store) queryLaunches(query string, args ...interface{}) ([]*domain.Launch, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var launches []*domain.Launch
	for rows.Next() {
		l, err := scanLaunchRows(rows)
		if err != nil {
			return nil, err
		}
		launches = append(launches, l)
	}

	return launches, rows.Err()
}

type scannable interface {
	Scan(dest ...interface{}) error
}

func scanLaunchFields(sc scannable) (*domain.Launch, error) {
	var l domain.Launch
	var status string
	var description, productType, targetMarket, summary sql.NullString
	var launchDate sql.NullTime

	err := sc.Scan(&l.ID, &l.Name, &description, &productType, &targetMarket, &status, &summary, &l.CreatedAt, &l.UpdatedAt, &launchDate)
	if err != nil {
		return nil, err
	}

	l.Status = domain.LaunchStatus(status)
	l.Description = description.String
	l.ProductType = productType.String
	l.TargetMarket = targetMarket.String
	l.Summary = summary.String
	if launchDate.Valid {
		t := launchDate.Time
		l.LaunchDate = &t
	}

	return &l, nil
}

func scanLaunch(row *sql.Row) (*domain.Launch, error) {
	return scanLaunchFields(row)
}

func scanLaunchRows(rows *sql.Rows) (*domain.Launch, error) {
	return scanLaunchFields(rows)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
