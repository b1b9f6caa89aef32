package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"examguard/types"
)

var ErrNotFound = errors.New("report not found")

const schemaSQL = `
CREATE TABLE IF NOT EXISTS analysis_reports (
    id TEXT PRIMARY KEY,
    quiz_id TEXT NOT NULL,
    question_id TEXT NOT NULL,
    created_at TEXT NOT NULL,
    algorithm_version TEXT NOT NULL,
    minimum_similarity DOUBLE PRECISION NOT NULL,
    suspicious_threshold DOUBLE PRECISION NOT NULL,
    high_risk_count INTEGER NOT NULL,
    result_json TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_analysis_reports_quiz ON analysis_reports (quiz_id, created_at);
`

// Fixed width so text ordering matches time ordering.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z"

// Record is the summary row of a stored report.
type Record struct {
	ID                  string    `json:"id"`
	QuizID              string    `json:"quiz_id"`
	QuestionID          string    `json:"question_id"`
	CreatedAt           time.Time `json:"created_at"`
	AlgorithmVersion    string    `json:"algorithm_version"`
	MinimumSimilarity   float64   `json:"minimum_similarity"`
	SuspiciousThreshold float64   `json:"suspicious_threshold"`
	HighRiskCount       int       `json:"high_risk_count"`
}

// Store keeps the history of analysis reports.
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects with driver "sqlite" or "postgres" and applies the schema.
func Open(driver, dsn string) (*Store, error) {
	switch driver {
	case "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", driver, err)
	}
	if driver == "sqlite" {
		// In-memory databases exist per connection.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}
	for _, stmt := range strings.Split(schemaSQL, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return &Store{db: db, driver: driver}, nil
}

// OpenFromEnv reads DB_DRIVER (default sqlite) and DB_DSN (default examguard.db).
func OpenFromEnv() (*Store, error) {
	driver := strings.TrimSpace(os.Getenv("DB_DRIVER"))
	if driver == "" {
		driver = "sqlite"
	}
	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))
	if dsn == "" {
		if driver != "sqlite" {
			return nil, fmt.Errorf("DB_DSN is required for driver %s", driver)
		}
		dsn = "examguard.db"
	}
	return Open(driver, dsn)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveReport assigns the report a new id and persists it.
func (s *Store) SaveReport(ctx context.Context, report *types.AnalysisReport) (string, error) {
	report.ID = uuid.NewString()
	body, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}

	meta := report.AnalysisMetadata
	_, err = s.db.ExecContext(ctx, s.rebind(`INSERT INTO analysis_reports
		(id, quiz_id, question_id, created_at, algorithm_version, minimum_similarity, suspicious_threshold, high_risk_count, result_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		report.ID,
		report.QuizID,
		report.QuestionID,
		report.Timestamp.UTC().Format(createdAtLayout),
		meta.AlgorithmVersion,
		meta.ThresholdSettings.MinimumSimilarity,
		meta.ThresholdSettings.SuspiciousThreshold,
		report.Summary.HighRiskCount,
		string(body),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert report: %w", err)
	}
	return report.ID, nil
}

func (s *Store) GetReport(ctx context.Context, id string) (*types.AnalysisReport, error) {
	var body string
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT result_json FROM analysis_reports WHERE id = ?`), id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load report %s: %w", id, err)
	}

	var report types.AnalysisReport
	if err := json.Unmarshal([]byte(body), &report); err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", id, err)
	}
	return &report, nil
}

// ListReports returns summary rows newest first. An empty quizID lists all
// quizzes; limit <= 0 means no limit.
func (s *Store) ListReports(ctx context.Context, quizID string, limit int) ([]Record, error) {
	query := `SELECT id, quiz_id, question_id, created_at, algorithm_version, minimum_similarity, suspicious_threshold, high_risk_count
		FROM analysis_reports`
	var args []any
	if quizID != "" {
		query += ` WHERE quiz_id = ?`
		args = append(args, quizID)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ` + strconv.Itoa(limit)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var createdAt string
		if err := rows.Scan(&r.ID, &r.QuizID, &r.QuestionID, &createdAt, &r.AlgorithmVersion,
			&r.MinimumSimilarity, &r.SuspiciousThreshold, &r.HighRiskCount); err != nil {
			return nil, fmt.Errorf("failed to scan report row: %w", err)
		}
		r.CreatedAt, err = time.Parse(createdAtLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("bad created_at %q: %w", createdAt, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *Store) rebind(query string) string {
	if s.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
