package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/verte-zerg/keyload/internal/model"
)

// DefaultPrefix namespaces every key keyload writes to Redis.
const DefaultPrefix = "keyload"

// pollInterval bounds each blocking pop so context cancellation is noticed.
const pollInterval = time.Second

// Dial connects to Redis and checks the connection.
func Dial(ctx context.Context, cfg model.QueueConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// Redis is a broker backed by two Redis lists.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis creates a broker using lists under prefix.
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Redis{client: client, prefix: prefix}
}

// TasksKey is the list workers pop tasks from.
func (r *Redis) TasksKey() string {
	return r.prefix + ":tasks"
}

// ResultsKey is the list the coordinator pops completions from.
func (r *Redis) ResultsKey() string {
	return r.prefix + ":results"
}

// PublishTask pushes a task.
func (r *Redis) PublishTask(ctx context.Context, task model.Task) error {
	return r.push(ctx, r.TasksKey(), task)
}

// NextTask pops the oldest task, blocking until one arrives.
func (r *Redis) NextTask(ctx context.Context) (model.Task, error) {
	var task model.Task
	err := r.pop(ctx, r.TasksKey(), &task)
	return task, err
}

// PublishCompletion pushes a completion.
func (r *Redis) PublishCompletion(ctx context.Context, c model.Completion) error {
	return r.push(ctx, r.ResultsKey(), c)
}

// NextCompletion pops the oldest completion, blocking until one arrives.
func (r *Redis) NextCompletion(ctx context.Context) (model.Completion, error) {
	var c model.Completion
	err := r.pop(ctx, r.ResultsKey(), &c)
	return c, err
}

// Purge drops queued tasks and completions.
func (r *Redis) Purge(ctx context.Context) error {
	return r.client.Del(ctx, r.TasksKey(), r.ResultsKey()).Err()
}

func (r *Redis) push(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}
	if err := r.client.LPush(ctx, key, data).Err(); err != nil {
		return fmt.Errorf("failed to push to %s: %w", key, err)
	}
	return nil
}

func (r *Redis) pop(ctx context.Context, key string, v any) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err := r.client.BRPop(ctx, pollInterval, key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if errors.Is(err, redis.ErrClosed) {
				return ErrClosed
			}
			return fmt.Errorf("failed to pop from %s: %w", key, err)
		}
		if len(res) != 2 {
			return fmt.Errorf("unexpected reply from %s: %v", key, res)
		}
		if err := json.Unmarshal([]byte(res[1]), v); err != nil {
			return fmt.Errorf("failed to decode message from %s: %w", key, err)
		}
		return nil
	}
}
