package data

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const streamUploads = "vaahaka.uploads"

// NewRedis connects to Redis from a URL. Returns nil when no URL is
// configured; the upload event stream is optional.
func NewRedis(url string) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opt), nil
}

// PublishUpload appends an accepted-upload event to the Redis stream for
// external consumers.
func PublishUpload(ctx context.Context, rdb *redis.Client, userID, fileHash, fileName string, pageCount int64) error {
	if rdb == nil {
		return nil
	}
	_, err := rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: streamUploads,
		Values: map[string]interface{}{
			"user_id":    userID,
			"file_hash":  fileHash,
			"file_name":  fileName,
			"page_count": pageCount,
		},
	}).Result()
	return err
}
