package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix       = "user:%d"
	PostsListVersionKey = "posts:list:version"
	PostsListKeyPrefix  = "posts:list:v%d:page:%d"
)

const (
	UserTTL = 5 * time.Minute
	ListTTL = 1 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

// PostsListKey returns the key for one anonymous listing page under the current
// list version. Bumping the version orphans every cached page at once.
func PostsListKey(ctx context.Context, page int) string {
	var version int64
	if client != nil {
		if v, err := client.Get(ctx, PostsListVersionKey).Int64(); err == nil {
			version = v
		}
	}
	return fmt.Sprintf(PostsListKeyPrefix, version, page)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

// InvalidatePostsList retires all cached listing pages.
func InvalidatePostsList(ctx context.Context) {
	if client != nil {
		client.Incr(ctx, PostsListVersionKey)
	}
}
