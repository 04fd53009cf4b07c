package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"clipstream/internal/models"
)

// ErrPostgresUnavailable is returned by data operations that have not yet
// been cut over from the JSON store. The Postgres driver currently ships the
// pool, schema migration, and snapshot import paths only.
var ErrPostgresUnavailable = fmt.Errorf("postgres repository unavailable")

type postgresRepository struct {
	pool  *pgxpool.Pool
	cfg   PostgresConfig
	media MediaStore
}

// NewPostgresRepository opens a Postgres-backed repository and applies the
// schema migration before returning.
func NewPostgresRepository(ctx context.Context, dsn string, opts ...PostgresOption) (Repository, error) {
	cfg := newPostgresConfig(dsn, opts...)
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("postgres dsn required")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	if cfg.MaxConnections > 0 {
		poolCfg.MaxConns = cfg.MaxConnections
	}
	if cfg.MinConnections >= 0 {
		poolCfg.MinConns = cfg.MinConnections
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	if cfg.HealthCheckInterval > 0 {
		poolCfg.HealthCheckPeriod = cfg.HealthCheckInterval
	}
	if cfg.AcquireTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.AcquireTimeout
	}
	if cfg.ApplicationName != "" {
		if poolCfg.ConnConfig.RuntimeParams == nil {
			poolCfg.ConnConfig.RuntimeParams = make(map[string]string)
		}
		poolCfg.ConnConfig.RuntimeParams["application_name"] = cfg.ApplicationName
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}

	repo := &postgresRepository{
		pool:  pool,
		cfg:   cfg,
		media: NewMediaStore(cfg.Media),
	}
	if err := repo.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return repo, nil
}

// Close releases the connection pool, honouring the context deadline.
func (r *postgresRepository) Close(ctx context.Context) error {
	if r == nil || r.pool == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		r.pool.Close()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (r *postgresRepository) Ping(ctx context.Context) error {
	if r == nil || r.pool == nil {
		return ErrPostgresUnavailable
	}
	return r.pool.Ping(ctx)
}

func (r *postgresRepository) CreateUser(params CreateUserParams) (models.User, error) {
	return models.User{}, ErrPostgresUnavailable
}

func (r *postgresRepository) AuthenticateUser(identifier, password string) (models.User, error) {
	return models.User{}, ErrPostgresUnavailable
}

func (r *postgresRepository) GetUser(id string) (models.User, bool) {
	return models.User{}, false
}

func (r *postgresRepository) FindUserByUsername(username string) (models.User, bool) {
	return models.User{}, false
}

func (r *postgresRepository) UpdateUser(id string, update UserUpdate) (models.User, error) {
	return models.User{}, ErrPostgresUnavailable
}

func (r *postgresRepository) SetUserPassword(id, password string) error {
	return ErrPostgresUnavailable
}

func (r *postgresRepository) SetRefreshToken(userID, token string) error {
	return ErrPostgresUnavailable
}

func (r *postgresRepository) AddWatchHistory(userID, videoID string) error {
	return ErrPostgresUnavailable
}

func (r *postgresRepository) WatchHistory(userID string, page, limit int) ([]models.Video, int, error) {
	return nil, 0, ErrPostgresUnavailable
}

func (r *postgresRepository) CreateVideo(params CreateVideoParams) (models.Video, error) {
	return models.Video{}, ErrPostgresUnavailable
}

func (r *postgresRepository) GetVideo(id string) (models.Video, bool) {
	return models.Video{}, false
}

func (r *postgresRepository) ListVideos(params ListVideosParams) ([]models.Video, int, error) {
	return nil, 0, ErrPostgresUnavailable
}

func (r *postgresRepository) UpdateVideo(id string, update VideoUpdate) (models.Video, error) {
	return models.Video{}, ErrPostgresUnavailable
}

func (r *postgresRepository) SetVideoPublished(id string, published bool) (models.Video, error) {
	return models.Video{}, ErrPostgresUnavailable
}

func (r *postgresRepository) IncrementVideoViews(id string) (models.Video, error) {
	return models.Video{}, ErrPostgresUnavailable
}

func (r *postgresRepository) DeleteVideo(id string) (models.Video, error) {
	return models.Video{}, ErrPostgresUnavailable
}

func (r *postgresRepository) CreateComment(videoID, ownerID, content string) (models.Comment, error) {
	return models.Comment{}, ErrPostgresUnavailable
}

func (r *postgresRepository) GetComment(id string) (models.Comment, bool) {
	return models.Comment{}, false
}

func (r *postgresRepository) UpdateComment(id, content string) (models.Comment, error) {
	return models.Comment{}, ErrPostgresUnavailable
}

func (r *postgresRepository) DeleteComment(id string) error {
	return ErrPostgresUnavailable
}

func (r *postgresRepository) ListVideoComments(videoID string, page, limit int) ([]models.Comment, int, error) {
	return nil, 0, ErrPostgresUnavailable
}

func (r *postgresRepository) CreateTweet(ownerID, content string) (models.Tweet, error) {
	return models.Tweet{}, ErrPostgresUnavailable
}

func (r *postgresRepository) GetTweet(id string) (models.Tweet, bool) {
	return models.Tweet{}, false
}

func (r *postgresRepository) UpdateTweet(id, content string) (models.Tweet, error) {
	return models.Tweet{}, ErrPostgresUnavailable
}

func (r *postgresRepository) DeleteTweet(id string) error {
	return ErrPostgresUnavailable
}

func (r *postgresRepository) ListUserTweets(userID string, page, limit int) ([]models.Tweet, int, error) {
	return nil, 0, ErrPostgresUnavailable
}

func (r *postgresRepository) ToggleLike(userID string, target models.LikeTarget) (bool, error) {
	return false, ErrPostgresUnavailable
}

func (r *postgresRepository) CountLikes(target models.LikeTarget) int {
	return 0
}

func (r *postgresRepository) HasLiked(userID string, target models.LikeTarget) bool {
	return false
}

func (r *postgresRepository) ListLikedVideos(userID string, page, limit int) ([]models.Video, int, error) {
	return nil, 0, ErrPostgresUnavailable
}

func (r *postgresRepository) CreatePlaylist(params CreatePlaylistParams) (models.Playlist, error) {
	return models.Playlist{}, ErrPostgresUnavailable
}

func (r *postgresRepository) GetPlaylist(id string) (models.Playlist, bool) {
	return models.Playlist{}, false
}

func (r *postgresRepository) UpdatePlaylist(id string, update PlaylistUpdate) (models.Playlist, error) {
	return models.Playlist{}, ErrPostgresUnavailable
}

func (r *postgresRepository) DeletePlaylist(id string) error {
	return ErrPostgresUnavailable
}

func (r *postgresRepository) AddPlaylistVideo(playlistID, videoID string) (models.Playlist, error) {
	return models.Playlist{}, ErrPostgresUnavailable
}

func (r *postgresRepository) RemovePlaylistVideo(playlistID, videoID string) (models.Playlist, error) {
	return models.Playlist{}, ErrPostgresUnavailable
}

func (r *postgresRepository) IncrementPlaylistViews(id string) error {
	return ErrPostgresUnavailable
}

func (r *postgresRepository) ListUserPlaylists(ownerID string, includePrivate bool) ([]models.Playlist, error) {
	return nil, ErrPostgresUnavailable
}

func (r *postgresRepository) ToggleSubscription(subscriberID, channelID string) (bool, error) {
	return false, ErrPostgresUnavailable
}

func (r *postgresRepository) IsSubscribed(subscriberID, channelID string) bool {
	return false
}

func (r *postgresRepository) CountSubscribers(channelID string) int {
	return 0
}

func (r *postgresRepository) ListChannelSubscribers(channelID string) ([]models.User, error) {
	return nil, ErrPostgresUnavailable
}

func (r *postgresRepository) ListSubscribedChannels(subscriberID string) ([]models.User, error) {
	return nil, ErrPostgresUnavailable
}

func (r *postgresRepository) ChannelStats(channelID string) (ChannelStats, error) {
	return ChannelStats{}, ErrPostgresUnavailable
}

func (r *postgresRepository) ListChannelVideos(channelID string, includeUnpublished bool, page, limit int) ([]models.Video, int, error) {
	return nil, 0, ErrPostgresUnavailable
}

var _ Repository = (*postgresRepository)(nil)
