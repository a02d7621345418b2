package call

import (
	"context"
	"fmt"
	"time"

	"github.com/handybob/callops/pkg/redis"
)

// callEvent is the payload published for every call lifecycle transition.
type callEvent struct {
	CallID      string `json:"callId"`
	WorkspaceID string `json:"workspaceId"`
	Kind        string `json:"kind"`
	At          string `json:"at"`
}

// RedisEventPublisher broadcasts call lifecycle events over a
// per-workspace pub/sub channel so connected UIs can live-update their
// call views.
type RedisEventPublisher struct {
	redis redis.RedisServiceInterface
}

// NewRedisEventPublisher creates a publisher backed by the given redis
// service.
func NewRedisEventPublisher(svc redis.RedisServiceInterface) *RedisEventPublisher {
	return &RedisEventPublisher{redis: svc}
}

// PublishCallEvent publishes one event on the workspace's channel.
func (p *RedisEventPublisher) PublishCallEvent(ctx context.Context, workspaceID, callID, kind string) error {
	event := callEvent{
		CallID:      callID,
		WorkspaceID: workspaceID,
		Kind:        kind,
		At:          time.Now().UTC().Format(time.RFC3339),
	}
	channel := fmt.Sprintf("callops:events:%s", workspaceID)
	return p.redis.Publish(ctx, channel, event)
}
