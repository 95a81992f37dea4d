package database

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/codevet/crucible/internal/config"
)

const DatabasePingTimeout = 10

const submissionsSchema = `
CREATE TABLE IF NOT EXISTS submissions (
	id           BIGSERIAL PRIMARY KEY,
	job_id       TEXT NOT NULL,
	language     TEXT NOT NULL,
	status       TEXT NOT NULL,
	passed_count INT NOT NULL,
	failed_count INT NOT NULL,
	duration_ms  BIGINT NOT NULL,
	degraded     BOOLEAN NOT NULL DEFAULT FALSE,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// SubmissionRecord is one row of the verdict audit log. Source code and
// transcripts are deliberately not persisted here.
type SubmissionRecord struct {
	JobID       string
	Language    string
	Status      string
	PassedCount int
	FailedCount int
	DurationMs  int64
	Degraded    bool
}

type Database struct {
	Pool *pgxpool.Pool
	log  *zerolog.Logger
}

func New(conf *config.Config, log *zerolog.Logger) (*Database, error) {
	host := net.JoinHostPort(conf.Db.Host, strconv.Itoa(conf.Db.Port))
	encodedPassword := url.QueryEscape(conf.Db.Password)

	dsn := fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=%s",
		conf.Db.User,
		encodedPassword,
		host,
		conf.Db.Name,
		conf.Db.SSLMode,
	)

	pgxPoolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	pgxPoolConfig.ConnConfig.RuntimeParams["application_name"] = "crucible"

	pgxPoolConfig.ConnConfig.DialFunc = func(ctx context.Context, network, addr string) (net.Conn, error) {
		dialer := &net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}
		return dialer.DialContext(ctx, network, addr)
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), pgxPoolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), DatabasePingTimeout*time.Second)
	defer cancel()

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, submissionsSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ensure submissions table: %w", err)
	}

	log.Info().Msg("database connection established")

	return &Database{Pool: pool, log: log}, nil
}

// RecordSubmission appends one verdict summary to the audit log.
func (db *Database) RecordSubmission(ctx context.Context, rec SubmissionRecord) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO submissions (job_id, language, status, passed_count, failed_count, duration_ms, degraded)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.JobID, rec.Language, rec.Status, rec.PassedCount, rec.FailedCount, rec.DurationMs, rec.Degraded,
	)
	if err != nil {
		return fmt.Errorf("failed to insert submission record: %w", err)
	}
	return nil
}

func (db *Database) Close() error {
	db.log.Info().Msg("Closing database connection pool")
	db.Pool.Close()
	return nil
}
