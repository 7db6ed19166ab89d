package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
)

// DBService represents a service that interacts with a database.
type DBService struct {
	DB  *sql.DB
	log zerolog.Logger
}

// NewDBService opens a pgx backed connection pool and checks that the database answers.
func NewDBService(ctx context.Context, connStr string, log zerolog.Logger) (*DBService, error) {
	if connStr == "" {
		return nil, fmt.Errorf("missing database connection string")
	}

	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("could not open db connection: %w", err)
	}

	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not connect to the database: %w", err)
	}

	return &DBService{DB: db, log: log}, nil
}

// Health pings the database and reports its status with a few pool statistics.
func (s *DBService) Health(ctx context.Context) map[string]string {
	stats := make(map[string]string)

	if err := s.DB.PingContext(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = "db down"
		s.log.Error().Err(err).Msg("database health check failed")
		return stats
	}

	pool := s.DB.Stats()
	stats["status"] = "up"
	stats["message"] = "It's healthy"
	stats["open_connections"] = fmt.Sprint(pool.OpenConnections)
	stats["in_use"] = fmt.Sprint(pool.InUse)
	return stats
}

func (s *DBService) Close() error {
	s.log.Info().Msg("Closing database connection")
	return s.DB.Close()
}
