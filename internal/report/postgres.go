// Copyright (c) 2024-2026 IT Help San Diego Inc.
// Licensed under BUSL-1.1 — See LICENSE for terms.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `CREATE TABLE IF NOT EXISTS phish_reports (
	id            UUID PRIMARY KEY,
	analyzed_at   TIMESTAMPTZ NOT NULL,
	url           TEXT NOT NULL,
	domain        TEXT NOT NULL,
	title         TEXT NOT NULL DEFAULT '',
	score         INTEGER NOT NULL,
	verdict       TEXT NOT NULL,
	partial       BOOLEAN NOT NULL DEFAULT FALSE,
	missing       TEXT[] NOT NULL DEFAULT '{}',
	title_terms   TEXT[] NOT NULL DEFAULT '{}',
	body_terms    TEXT[] NOT NULL DEFAULT '{}',
	known_phish   BOOLEAN,
	signals       JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS phish_reports_analyzed_at_idx ON phish_reports (analyzed_at DESC);`

const insertReport = `INSERT INTO phish_reports
	(id, analyzed_at, url, domain, title, score, verdict, partial, missing, title_terms, body_terms, known_phish, signals)
	VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

const selectRecent = `SELECT id::text, analyzed_at, url, domain, title, score, verdict, partial,
	missing, title_terms, body_terms, known_phish, signals
	FROM phish_reports ORDER BY analyzed_at DESC LIMIT $1`

// PostgresSink stores reports in the phish_reports table.
type PostgresSink struct {
	Pool *pgxpool.Pool
}

// Connect opens a pool and makes sure the reports table exists.
func Connect(ctx context.Context, databaseURL string) (*PostgresSink, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 5
	config.MinConns = 1
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 2 * time.Minute
	config.HealthCheckPeriod = 30 * time.Second

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create reports table: %w", err)
	}

	slog.Info("Database connected successfully")
	return &PostgresSink{Pool: pool}, nil
}

func (p *PostgresSink) Close() {
	if p.Pool != nil {
		p.Pool.Close()
		slog.Info("Database connection closed")
	}
}

func (p *PostgresSink) HealthCheck(ctx context.Context) error {
	return p.Pool.Ping(ctx)
}

func (p *PostgresSink) Save(ctx context.Context, r Report) error {
	signals, err := json.Marshal(r.Data)
	if err != nil {
		return fmt.Errorf("encode signals: %w", err)
	}
	_, err = p.Pool.Exec(ctx, insertReport,
		r.ID.String(), r.Time, r.URL, r.Domain, r.Title, r.Score, r.Verdict, r.Partial,
		nonNil(r.Missing), nonNil(r.TitleTerms), nonNil(r.BodyTerms), r.KnownPhishing, signals,
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// Recent returns up to limit reports, newest first.
func (p *PostgresSink) Recent(ctx context.Context, limit int) ([]Report, error) {
	rows, err := p.Pool.Query(ctx, selectRecent, limit)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	var out []Report
	for rows.Next() {
		var (
			r       Report
			id      string
			signals []byte
		)
		if err := rows.Scan(&id, &r.Time, &r.URL, &r.Domain, &r.Title, &r.Score, &r.Verdict, &r.Partial,
			&r.Missing, &r.TitleTerms, &r.BodyTerms, &r.KnownPhishing, &signals); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		if r.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse report id: %w", err)
		}
		if err := json.Unmarshal(signals, &r.Data); err != nil {
			return nil, fmt.Errorf("decode signals: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
