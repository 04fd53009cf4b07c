package storage

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"

	"clipstream/internal/models"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		full_name TEXT NOT NULL,
		avatar_url TEXT NOT NULL DEFAULT '',
		avatar_key TEXT NOT NULL DEFAULT '',
		cover_url TEXT NOT NULL DEFAULT '',
		cover_key TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		refresh_token TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS videos (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		video_url TEXT NOT NULL,
		video_key TEXT NOT NULL DEFAULT '',
		thumbnail_url TEXT NOT NULL DEFAULT '',
		thumbnail_key TEXT NOT NULL DEFAULT '',
		duration DOUBLE PRECISION NOT NULL DEFAULT 0,
		views BIGINT NOT NULL DEFAULT 0,
		published BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_videos_owner ON videos(owner_id)`,
	`CREATE TABLE IF NOT EXISTS comments (
		id TEXT PRIMARY KEY,
		video_id TEXT NOT NULL REFERENCES videos(id) ON DELETE CASCADE,
		owner_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		content TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_video ON comments(video_id)`,
	`CREATE TABLE IF NOT EXISTS tweets (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		content TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tweets_owner ON tweets(owner_id)`,
	`CREATE TABLE IF NOT EXISTS likes (
		id TEXT PRIMARY KEY,
		liked_by TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		target_kind TEXT NOT NULL,
		target_id TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		UNIQUE (liked_by, target_kind, target_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_likes_target ON likes(target_kind, target_id)`,
	`CREATE TABLE IF NOT EXISTS playlists (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		privacy TEXT NOT NULL DEFAULT 'public',
		views BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS playlist_videos (
		playlist_id TEXT NOT NULL REFERENCES playlists(id) ON DELETE CASCADE,
		video_id TEXT NOT NULL REFERENCES videos(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		PRIMARY KEY (playlist_id, video_id)
	)`,
	`CREATE TABLE IF NOT EXISTS subscriptions (
		id TEXT PRIMARY KEY,
		subscriber_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		channel_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL,
		UNIQUE (subscriber_id, channel_id)
	)`,
	`CREATE TABLE IF NOT EXISTS watch_history (
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		video_id TEXT NOT NULL REFERENCES videos(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		PRIMARY KEY (user_id, video_id)
	)`,
}

func (r *postgresRepository) migrate(ctx context.Context) error {
	for _, stmt := range postgresSchema {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

func rollbackTx(ctx context.Context, tx pgx.Tx) {
	_ = tx.Rollback(ctx)
}

// ImportSnapshot loads a JSON store's dataset into Postgres in a single
// transaction, used when cutting an installation over from the file driver.
// Existing rows win on conflict.
func (r *postgresRepository) ImportSnapshot(ctx context.Context, snapshot Snapshot) error {
	if r == nil || r.pool == nil {
		return ErrPostgresUnavailable
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin snapshot transaction: %w", err)
	}
	defer rollbackTx(ctx, tx)

	if err := importSnapshotUsers(ctx, tx, snapshot.Users); err != nil {
		return err
	}
	if err := importSnapshotVideos(ctx, tx, snapshot.Videos); err != nil {
		return err
	}
	if err := importSnapshotComments(ctx, tx, snapshot.Comments); err != nil {
		return err
	}
	if err := importSnapshotTweets(ctx, tx, snapshot.Tweets); err != nil {
		return err
	}
	if err := importSnapshotLikes(ctx, tx, snapshot.Likes); err != nil {
		return err
	}
	if err := importSnapshotPlaylists(ctx, tx, snapshot.Playlists); err != nil {
		return err
	}
	if err := importSnapshotSubscriptions(ctx, tx, snapshot.Subscriptions); err != nil {
		return err
	}
	if err := importSnapshotWatchHistory(ctx, tx, snapshot.Users); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit snapshot import: %w", err)
	}
	return nil
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func normalizeTimestamp(ts time.Time) time.Time {
	if ts.IsZero() {
		return time.Now().UTC()
	}
	return ts.UTC()
}

func importSnapshotUsers(ctx context.Context, tx pgx.Tx, users map[string]models.User) error {
	for _, id := range sortedKeys(users) {
		user := users[id]
		_, err := tx.Exec(ctx,
			`INSERT INTO users (id, username, email, full_name, avatar_url, avatar_key, cover_url, cover_key, password_hash, refresh_token, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) ON CONFLICT (id) DO NOTHING`,
			id, user.Username, user.Email, user.FullName,
			user.AvatarURL, user.AvatarKey, user.CoverURL, user.CoverKey,
			user.PasswordHash, user.RefreshToken,
			normalizeTimestamp(user.CreatedAt), normalizeTimestamp(user.UpdatedAt))
		if err != nil {
			return fmt.Errorf("insert user %s: %w", id, err)
		}
	}
	return nil
}

func importSnapshotVideos(ctx context.Context, tx pgx.Tx, videos map[string]models.Video) error {
	for _, id := range sortedKeys(videos) {
		video := videos[id]
		_, err := tx.Exec(ctx,
			`INSERT INTO videos (id, owner_id, title, description, video_url, video_key, thumbnail_url, thumbnail_key, duration, views, published, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) ON CONFLICT (id) DO NOTHING`,
			id, video.OwnerID, video.Title, video.Description,
			video.VideoFile.URL, video.VideoFile.Key, video.Thumbnail.URL, video.Thumbnail.Key,
			video.Duration, video.Views, video.Published,
			normalizeTimestamp(video.CreatedAt), normalizeTimestamp(video.UpdatedAt))
		if err != nil {
			return fmt.Errorf("insert video %s: %w", id, err)
		}
	}
	return nil
}

func importSnapshotComments(ctx context.Context, tx pgx.Tx, comments map[string]models.Comment) error {
	for _, id := range sortedKeys(comments) {
		comment := comments[id]
		_, err := tx.Exec(ctx,
			`INSERT INTO comments (id, video_id, owner_id, content, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT (id) DO NOTHING`,
			id, comment.VideoID, comment.OwnerID, comment.Content,
			normalizeTimestamp(comment.CreatedAt), normalizeTimestamp(comment.UpdatedAt))
		if err != nil {
			return fmt.Errorf("insert comment %s: %w", id, err)
		}
	}
	return nil
}

func importSnapshotTweets(ctx context.Context, tx pgx.Tx, tweets map[string]models.Tweet) error {
	for _, id := range sortedKeys(tweets) {
		tweet := tweets[id]
		_, err := tx.Exec(ctx,
			`INSERT INTO tweets (id, owner_id, content, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5) ON CONFLICT (id) DO NOTHING`,
			id, tweet.OwnerID, tweet.Content,
			normalizeTimestamp(tweet.CreatedAt), normalizeTimestamp(tweet.UpdatedAt))
		if err != nil {
			return fmt.Errorf("insert tweet %s: %w", id, err)
		}
	}
	return nil
}

func importSnapshotLikes(ctx context.Context, tx pgx.Tx, likes map[string]models.Like) error {
	for _, id := range sortedKeys(likes) {
		like := likes[id]
		_, err := tx.Exec(ctx,
			`INSERT INTO likes (id, liked_by, target_kind, target_id, created_at)
			 VALUES ($1, $2, $3, $4, $5) ON CONFLICT DO NOTHING`,
			id, like.LikedBy, string(like.Target.Kind), like.Target.ID,
			normalizeTimestamp(like.CreatedAt))
		if err != nil {
			return fmt.Errorf("insert like %s: %w", id, err)
		}
	}
	return nil
}

func importSnapshotPlaylists(ctx context.Context, tx pgx.Tx, playlists map[string]models.Playlist) error {
	for _, id := range sortedKeys(playlists) {
		playlist := playlists[id]
		_, err := tx.Exec(ctx,
			`INSERT INTO playlists (id, owner_id, title, description, privacy, views, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) ON CONFLICT (id) DO NOTHING`,
			id, playlist.OwnerID, playlist.Title, playlist.Description,
			string(playlist.Privacy), playlist.Views,
			normalizeTimestamp(playlist.CreatedAt), normalizeTimestamp(playlist.UpdatedAt))
		if err != nil {
			return fmt.Errorf("insert playlist %s: %w", id, err)
		}
		for position, videoID := range playlist.VideoIDs {
			_, err := tx.Exec(ctx,
				`INSERT INTO playlist_videos (playlist_id, video_id, position)
				 VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`,
				id, videoID, position)
			if err != nil {
				return fmt.Errorf("insert playlist entry %s/%s: %w", id, videoID, err)
			}
		}
	}
	return nil
}

func importSnapshotSubscriptions(ctx context.Context, tx pgx.Tx, subscriptions map[string]models.Subscription) error {
	for _, id := range sortedKeys(subscriptions) {
		sub := subscriptions[id]
		_, err := tx.Exec(ctx,
			`INSERT INTO subscriptions (id, subscriber_id, channel_id, created_at)
			 VALUES ($1, $2, $3, $4) ON CONFLICT DO NOTHING`,
			id, sub.SubscriberID, sub.ChannelID,
			normalizeTimestamp(sub.CreatedAt))
		if err != nil {
			return fmt.Errorf("insert subscription %s: %w", id, err)
		}
	}
	return nil
}

func importSnapshotWatchHistory(ctx context.Context, tx pgx.Tx, users map[string]models.User) error {
	for _, userID := range sortedKeys(users) {
		for position, videoID := range users[userID].WatchHistory {
			_, err := tx.Exec(ctx,
				`INSERT INTO watch_history (user_id, video_id, position)
				 VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`,
				userID, videoID, position)
			if err != nil {
				return fmt.Errorf("insert watch history %s/%s: %w", userID, videoID, err)
			}
		}
	}
	return nil
}
