package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"faceswapd/internal/domain/model"
	"faceswapd/internal/domain/ports/repository"

	"github.com/go-redis/redis/v8"
)

var _ repository.TaskQueue = (*Queue)(nil)

const taskList = "swap:tasks"

// Queue is the broker channel between dispatcher and workers: a Redis list
// pushed on the left and popped on the right, so tasks reach workers in
// submission order.
type Queue struct {
	client *Client
}

func NewQueue(client *Client) *Queue {
	return &Queue{client: client}
}

func (q *Queue) Enqueue(ctx context.Context, task *model.Task) error {
	b, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}
	if err := q.client.cli.LPush(ctx, taskList, b).Err(); err != nil {
		return fmt.Errorf("enqueue task: %w", err)
	}
	return nil
}

// Dequeue blocks until a task arrives or ctx is cancelled. BRPOP is issued
// with a short timeout in a loop so cancellation is observed promptly.
func (q *Queue) Dequeue(ctx context.Context) (*model.Task, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := q.client.cli.BRPop(ctx, 5*time.Second, taskList).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("dequeue task: %w", err)
		}
		// res is [key, value]
		var task model.Task
		if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
			return nil, fmt.Errorf("decode task: %w", err)
		}
		return &task, nil
	}
}
