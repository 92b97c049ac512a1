package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	autherrors "agenda/internal/auth/errors"
	"agenda/pkg/model"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "session:"

type SessionRepository interface {
	FindByID(ctx context.Context, sessionID string) (*model.Session, error)
}

type redisSessionRepository struct {
	client *redis.Client
}

// NewRedisSessionRepository reads sessions written by the identity provider.
// This service never creates or expires them.
func NewRedisSessionRepository(client *redis.Client) SessionRepository {
	return &redisSessionRepository{client: client}
}

func (r *redisSessionRepository) FindByID(ctx context.Context, sessionID string) (*model.Session, error) {
	data, err := r.client.Get(ctx, sessionKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", autherrors.ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	if session.UserID == "" {
		return nil, fmt.Errorf("%w: %s has no user", autherrors.ErrSessionNotFound, sessionID)
	}
	return &session, nil
}
