package claimindex

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"testament/internal/privacy"
	"testament/pkg/domain"
	"testament/pkg/platform/sentinel"
)

const keyPrefix = "claim:"

// unbindScript deletes the key only when it still holds the expected plan
// ID, making Unbind safe against a concurrent re-bind.
var unbindScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is the shared claim index used when more than one instance serves
// the claim flow.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func key(hashedEmail privacy.Digest) string {
	return keyPrefix + hashedEmail.Hex()
}

func (r *Redis) Bind(ctx context.Context, hashedEmail privacy.Digest, planID domain.PlanID) error {
	if err := r.client.Set(ctx, key(hashedEmail), planID.String(), 0).Err(); err != nil {
		return fmt.Errorf("bind claim: %w", err)
	}
	return nil
}

func (r *Redis) Unbind(ctx context.Context, hashedEmail privacy.Digest, planID domain.PlanID) error {
	if err := unbindScript.Run(ctx, r.client, []string{key(hashedEmail)}, planID.String()).Err(); err != nil {
		return fmt.Errorf("unbind claim: %w", err)
	}
	return nil
}

func (r *Redis) Lookup(ctx context.Context, hashedEmail privacy.Digest) (domain.PlanID, error) {
	val, err := r.client.Get(ctx, key(hashedEmail)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.PlanID{}, sentinel.ErrNotFound
		}
		return domain.PlanID{}, fmt.Errorf("lookup claim: %w", err)
	}
	return domain.ParsePlanID(val)
}
