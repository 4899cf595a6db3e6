package audit

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

//go:embed migrations.sql
var migrations embed.FS

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

type PostgresJournal struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresJournal(config DatabaseConfig, logger *zap.Logger) (*PostgresJournal, error) {
	return OpenPostgresJournal(config.DSN(), logger)
}

// OpenPostgresJournal connects using a lib/pq connection string or URL
func OpenPostgresJournal(dsn string, logger *zap.Logger) (*PostgresJournal, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	j := &PostgresJournal{db: db, logger: logger}
	if err := j.initializeSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error initializing database schema: %w", err)
	}

	logger.Info("Moderation journal ready", zap.String("backend", "postgres"))
	return j, nil
}

func (j *PostgresJournal) initializeSchema() error {
	migrationSQL, err := migrations.ReadFile("migrations.sql")
	if err != nil {
		return fmt.Errorf("error reading migrations file: %w", err)
	}

	if _, err := j.db.Exec(string(migrationSQL)); err != nil {
		return fmt.Errorf("error executing migrations: %w", err)
	}
	return nil
}

func (j *PostgresJournal) Record(ctx context.Context, entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.At.IsZero() {
		entry.At = time.Now()
	}

	query := `
		INSERT INTO moderation_log (id, actor, action, target_id, parent_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := j.db.ExecContext(ctx, query,
		entry.ID,
		entry.Actor,
		string(entry.Action),
		entry.TargetID,
		entry.ParentID,
		entry.At,
	)
	if err != nil {
		return fmt.Errorf("error recording moderation entry: %w", err)
	}
	return nil
}

func (j *PostgresJournal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, actor, action, target_id, parent_id, created_at
		FROM moderation_log
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := j.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying moderation log: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var action string
		if err := rows.Scan(&e.ID, &e.Actor, &action, &e.TargetID, &e.ParentID, &e.At); err != nil {
			return nil, fmt.Errorf("error scanning moderation entry: %w", err)
		}
		e.Action = Action(action)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating moderation log: %w", err)
	}

	return entries, nil
}

func (j *PostgresJournal) Close() error {
	return j.db.Close()
}
