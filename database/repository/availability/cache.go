package availabilityRepo

import (
	"context"
	"encoding/json"
	"time"

	"tutordesk/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	cacheKeyPrefix      = "availability:"
	generationKeyPrefix = "availability-gen:"
)

// CacheClient is the part of the go-redis client the availability cache needs.
type CacheClient interface {
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// fillScript sets each entry only while its teacher's generation still matches the one read
// before the store was queried. KEYS alternate entry and generation keys; ARGV[1] is the TTL
// in milliseconds followed by generation and payload pairs.
const fillScript = `
local written = 0
for i = 1, #KEYS, 2 do
  local gen = redis.call('GET', KEYS[i + 1]) or '0'
  if gen == ARGV[i + 1] then
    if tonumber(ARGV[1]) > 0 then
      redis.call('SET', KEYS[i], ARGV[i + 2], 'PX', ARGV[1])
    else
      redis.call('SET', KEYS[i], ARGV[i + 2])
    end
    written = written + 1
  end
end
return written
`

// CachedAvailabilityRepo is a Redis read-through cache in front of another AvailabilityRepository.
// Entries hold one teacher's full window set. ReplaceAll bumps the teacher's generation and drops
// the entry after the store commits, and a fill started under an older generation is discarded.
// Redis failures are logged and the underlying store answers instead.
type CachedAvailabilityRepo struct {
	next   AvailabilityRepository
	client CacheClient
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedAvailabilityRepo(next AvailabilityRepository, client CacheClient, ttl time.Duration, logger *zap.Logger) *CachedAvailabilityRepo {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedAvailabilityRepo{next: next, client: client, ttl: ttl, logger: logger}
}

func cacheKey(teacherID string) string {
	return cacheKeyPrefix + teacherID
}

func generationKey(teacherID string) string {
	return generationKeyPrefix + teacherID
}

func (c *CachedAvailabilityRepo) ListWindows(ctx context.Context, teacherID string) ([]models.AvailabilityWindow, error) {
	return c.ListWindowsForTeachers(ctx, []string{teacherID})
}

func (c *CachedAvailabilityRepo) ListWindowsForTeachers(ctx context.Context, teacherIDs []string) ([]models.AvailabilityWindow, error) {
	if len(teacherIDs) == 0 {
		return []models.AvailabilityWindow{}, nil
	}
	n := len(teacherIDs)
	keys := make([]string, 2*n)
	for i, id := range teacherIDs {
		keys[i] = cacheKey(id)
		keys[n+i] = generationKey(id)
	}

	out := []models.AvailabilityWindow{}
	var missing []string
	generations := map[string]string{}

	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil || len(values) != len(keys) {
		if err != nil {
			c.logger.Warn("Availability cache read failed", zap.Error(err))
		}
		values = nil
	}
	for i, id := range teacherIDs {
		if values == nil {
			missing = append(missing, id)
			continue
		}
		raw, ok := values[i].(string)
		if !ok {
			missing = append(missing, id)
			generations[id] = generationValue(values[n+i])
			continue
		}
		var cached []models.AvailabilityWindow
		if err := json.Unmarshal([]byte(raw), &cached); err != nil {
			c.logger.Warn("Discarding malformed availability cache entry", zap.String("teacherId", id), zap.Error(err))
			missing = append(missing, id)
			generations[id] = generationValue(values[n+i])
			continue
		}
		out = append(out, cached...)
	}
	if len(missing) == 0 {
		return out, nil
	}

	loaded, err := c.next.ListWindowsForTeachers(ctx, missing)
	if err != nil {
		return nil, err
	}
	out = append(out, loaded...)
	if values != nil {
		c.fill(ctx, missing, generations, loaded)
	}
	return out, nil
}

func generationValue(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return "0"
}

// fill caches every requested teacher, including those without windows.
func (c *CachedAvailabilityRepo) fill(ctx context.Context, teacherIDs []string, generations map[string]string, windows []models.AvailabilityWindow) {
	byTeacher := make(map[string][]models.AvailabilityWindow, len(teacherIDs))
	for _, id := range teacherIDs {
		byTeacher[id] = []models.AvailabilityWindow{}
	}
	for _, w := range windows {
		byTeacher[w.TeacherID] = append(byTeacher[w.TeacherID], w)
	}

	keys := make([]string, 0, 2*len(teacherIDs))
	args := []interface{}{c.ttl.Milliseconds()}
	for _, id := range teacherIDs {
		payload, err := json.Marshal(byTeacher[id])
		if err != nil {
			continue
		}
		keys = append(keys, cacheKey(id), generationKey(id))
		args = append(args, generations[id], string(payload))
	}
	if len(keys) == 0 {
		return
	}
	written, err := c.client.Eval(ctx, fillScript, keys, args...).Int()
	if err != nil {
		c.logger.Warn("Availability cache write failed", zap.Error(err))
		return
	}
	if skipped := len(keys)/2 - written; skipped > 0 {
		c.logger.Debug("Skipped availability cache fill for replaced teachers", zap.Int("skipped", skipped))
	}
}

// ReplaceAll writes through to the store, then bumps the generation and drops the cached entry.
func (c *CachedAvailabilityRepo) ReplaceAll(ctx context.Context, teacherID string, windows []models.AvailabilityWindow) error {
	if err := c.next.ReplaceAll(ctx, teacherID, windows); err != nil {
		return err
	}
	if err := c.client.Incr(ctx, generationKey(teacherID)).Err(); err != nil {
		c.logger.Warn("Availability cache generation bump failed", zap.String("teacherId", teacherID), zap.Error(err))
	}
	if err := c.client.Del(ctx, cacheKey(teacherID)).Err(); err != nil {
		c.logger.Warn("Availability cache invalidation failed", zap.String("teacherId", teacherID), zap.Error(err))
	}
	return nil
}
