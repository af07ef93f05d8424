package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

// Prefix 所有键的命名空间，和其他服务共用 Redis 时不冲突
const Prefix = "ats:"

// Key 拼接缓存键，如 Key("app", id) => ats:app:<id>
func Key(parts ...string) string { return Prefix + strings.Join(parts, ":") }

// GetOrLoadJSON 读穿缓存并按 JSON 编解码。
// load 的错误不会被缓存；缓存里的脏数据解不开时删掉并回源一次。
func GetOrLoadJSON[T any](
	ctx context.Context,
	c Loader,
	key string,
	ttl time.Duration,
	load func(ctx context.Context) (*T, error),
) (*T, error) {
	if c == nil {
		c = Nop{}
	}
	fetch := func(ctx context.Context) ([]byte, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(v)
	}
	b, err := c.GetOrLoad(ctx, key, ttl, fetch)
	if err != nil {
		return nil, err
	}
	out, err := decode[T](b)
	if err == nil {
		return out, nil
	}
	_ = c.Del(ctx, key)
	if b, err = c.GetOrLoad(ctx, key, ttl, fetch); err != nil {
		return nil, err
	}
	return decode[T](b)
}

func decode[T any](b []byte) (*T, error) {
	if string(b) == "null" {
		return nil, nil
	}
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
