package cache

import (
	"context"
	"fmt"
	"time"
)

// Key formats. Keep every cache key in one place so invalidation stays honest.
const (
	UserKeyPrefix      = "user:%d"
	PostKeyPrefix      = "post:%s"
	PopularTagsKey     = "tags:popular"
	BookKeyPrefix      = "book:%d"
	AuthorKeyPrefix    = "author:%d"
	BlacklistKeyPrefix = "blacklist:%s"
	UnreadCountKeyTmpl = "notifications:unread:%d"
)

// TTLs per key family.
const (
	UserTTL        = 5 * time.Minute
	PostTTL        = 30 * time.Minute
	PopularTagsTTL = 10 * time.Minute
	BookTTL        = 15 * time.Minute
	AuthorTTL      = 15 * time.Minute
	UnreadCountTTL = time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func PostKey(slug string) string {
	return fmt.Sprintf(PostKeyPrefix, slug)
}

func BookKey(bookID uint) string {
	return fmt.Sprintf(BookKeyPrefix, bookID)
}

func AuthorKey(authorID uint) string {
	return fmt.Sprintf(AuthorKeyPrefix, authorID)
}

func BlacklistKey(jti string) string {
	return fmt.Sprintf(BlacklistKeyPrefix, jti)
}

func UnreadCountKey(userID uint) string {
	return fmt.Sprintf(UnreadCountKeyTmpl, userID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidatePost(ctx context.Context, slug string) {
	Invalidate(ctx, PostKey(slug))
}

func InvalidatePopularTags(ctx context.Context) {
	Invalidate(ctx, PopularTagsKey)
}

func InvalidateBook(ctx context.Context, bookID uint) {
	Invalidate(ctx, BookKey(bookID))
}

func InvalidateAuthor(ctx context.Context, authorID uint) {
	Invalidate(ctx, AuthorKey(authorID))
}

func InvalidateUnreadCount(ctx context.Context, userID uint) {
	Invalidate(ctx, UnreadCountKey(userID))
}
