package storage

import (
	"context"

	"skillswap-backend/internal/config"
)

type Storage struct {
	DB    *PostgresDB
	Redis *RedisClient
}

func NewStorage(ctx context.Context, dbCfg config.DatabaseConfig, redisURL string) (*Storage, error) {
	db, err := NewPostgresDB(ctx, dbCfg)
	if err != nil {
		return nil, err
	}

	redisClient, err := NewRedisClient(ctx, redisURL)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Storage{
		DB:    db,
		Redis: redisClient,
	}, nil
}

func (s *Storage) Close() error {
	s.DB.Close()
	return s.Redis.Close()
}
