package training

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"
)

// SessionStore is an optional write-through persistence layer. The live
// TrainingSession held by a Manager is always the source of truth while
// the process runs; a SessionStore only extends visibility across
// restarts and is never consulted by the Manager for non-terminal reads.
type SessionStore interface {
	SaveModelConfig(id, name, datasetID, description string, layers []LayerSpec, status string) error
	SaveSession(session TrainingSession) error
	AppendMetric(sessionID string, metric TrainingMetric) error
	MarkIncompleteAsFailed() error
	Close() error
}

// PostgresStore persists model_configs/training_sessions/training_metrics
// to Postgres via database/sql + lib/pq, the only SQL driver carried by
// this module. It is intentionally the lone consumer of "database/sql"
// in the repo: nothing else needs relational storage.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	store := &PostgresStore{db: db}
	if err := store.migrate(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *PostgresStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS model_configs (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			dataset_id TEXT NOT NULL,
			description TEXT,
			layers_json TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE TABLE IF NOT EXISTS training_sessions (
			session_id TEXT PRIMARY KEY,
			model_id TEXT NOT NULL,
			dataset_id TEXT NOT NULL,
			status TEXT NOT NULL,
			total_epochs INTEGER NOT NULL,
			current_epoch INTEGER NOT NULL,
			start_time TIMESTAMPTZ NOT NULL,
			end_time TIMESTAMPTZ,
			error_message TEXT
		);
		CREATE TABLE IF NOT EXISTS training_metrics (
			session_id TEXT NOT NULL REFERENCES training_sessions(session_id),
			epoch INTEGER NOT NULL,
			loss DOUBLE PRECISION NOT NULL,
			accuracy DOUBLE PRECISION,
			timestamp TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (session_id, epoch)
		);
	`)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveModelConfig(id, name, datasetID, description string, layers []LayerSpec, status string) error {
	layersJSON, err := json.Marshal(layers)
	if err != nil {
		return fmt.Errorf("marshaling layers: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO model_configs (id, name, dataset_id, description, layers_json, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET status = $6`,
		id, name, datasetID, description, string(layersJSON), status)
	return err
}

func (s *PostgresStore) SaveSession(session TrainingSession) error {
	_, err := s.db.Exec(`
		INSERT INTO training_sessions (session_id, model_id, dataset_id, status, total_epochs, current_epoch, start_time, end_time, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (session_id) DO UPDATE SET
			status = $4, current_epoch = $6, end_time = $8, error_message = $9`,
		session.SessionID, session.ModelID, session.DatasetID, session.Status,
		session.TotalEpochs, session.CurrentEpoch, session.StartTime, session.EndTime, session.ErrorMessage)
	return err
}

func (s *PostgresStore) AppendMetric(sessionID string, metric TrainingMetric) error {
	var accuracy interface{}
	if metric.Accuracy != nil {
		accuracy = *metric.Accuracy
	}
	_, err := s.db.Exec(`
		INSERT INTO training_metrics (session_id, epoch, loss, accuracy, timestamp)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (session_id, epoch) DO NOTHING`,
		sessionID, metric.Epoch, metric.Loss, accuracy, metric.Timestamp)
	return err
}

// MarkIncompleteAsFailed is run once at startup: any session that was
// non-terminal when the process last exited could not have kept
// training (live engines are never persisted), so its stored status is
// corrected to failed.
func (s *PostgresStore) MarkIncompleteAsFailed() error {
	_, err := s.db.Exec(`
		UPDATE training_sessions
		SET status = 'failed', error_message = 'process restart'
		WHERE status NOT IN ('completed', 'stopped', 'failed')`)
	return err
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
