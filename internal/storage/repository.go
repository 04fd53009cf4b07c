package storage

import (
	"context"

	"clipstream/internal/models"
)

// Repository exposes the datastore operations required by API handlers and
// the session manager. Both the JSON-file store and the Postgres store
// implement it.
type Repository interface {
	Ping(ctx context.Context) error

	CreateUser(params CreateUserParams) (models.User, error)
	AuthenticateUser(identifier, password string) (models.User, error)
	GetUser(id string) (models.User, bool)
	FindUserByUsername(username string) (models.User, bool)
	UpdateUser(id string, update UserUpdate) (models.User, error)
	SetUserPassword(id, password string) error
	SetRefreshToken(userID, token string) error
	AddWatchHistory(userID, videoID string) error
	WatchHistory(userID string, page, limit int) ([]models.Video, int, error)

	CreateVideo(params CreateVideoParams) (models.Video, error)
	GetVideo(id string) (models.Video, bool)
	ListVideos(params ListVideosParams) ([]models.Video, int, error)
	UpdateVideo(id string, update VideoUpdate) (models.Video, error)
	SetVideoPublished(id string, published bool) (models.Video, error)
	IncrementVideoViews(id string) (models.Video, error)
	DeleteVideo(id string) (models.Video, error)

	CreateComment(videoID, ownerID, content string) (models.Comment, error)
	GetComment(id string) (models.Comment, bool)
	UpdateComment(id, content string) (models.Comment, error)
	DeleteComment(id string) error
	ListVideoComments(videoID string, page, limit int) ([]models.Comment, int, error)

	CreateTweet(ownerID, content string) (models.Tweet, error)
	GetTweet(id string) (models.Tweet, bool)
	UpdateTweet(id, content string) (models.Tweet, error)
	DeleteTweet(id string) error
	ListUserTweets(userID string, page, limit int) ([]models.Tweet, int, error)

	ToggleLike(userID string, target models.LikeTarget) (bool, error)
	CountLikes(target models.LikeTarget) int
	HasLiked(userID string, target models.LikeTarget) bool
	ListLikedVideos(userID string, page, limit int) ([]models.Video, int, error)

	CreatePlaylist(params CreatePlaylistParams) (models.Playlist, error)
	GetPlaylist(id string) (models.Playlist, bool)
	UpdatePlaylist(id string, update PlaylistUpdate) (models.Playlist, error)
	DeletePlaylist(id string) error
	AddPlaylistVideo(playlistID, videoID string) (models.Playlist, error)
	RemovePlaylistVideo(playlistID, videoID string) (models.Playlist, error)
	IncrementPlaylistViews(id string) error
	ListUserPlaylists(ownerID string, includePrivate bool) ([]models.Playlist, error)

	ToggleSubscription(subscriberID, channelID string) (bool, error)
	IsSubscribed(subscriberID, channelID string) bool
	CountSubscribers(channelID string) int
	ListChannelSubscribers(channelID string) ([]models.User, error)
	ListSubscribedChannels(subscriberID string) ([]models.User, error)

	ChannelStats(channelID string) (ChannelStats, error)
	ListChannelVideos(channelID string, includeUnpublished bool, page, limit int) ([]models.Video, int, error)
}

var _ Repository = (*Storage)(nil)

// CreateUserParams captures the attributes required to register an account.
type CreateUserParams struct {
	Username string
	Email    string
	FullName string
	Password string
	Avatar   models.MediaObject
	Cover    models.MediaObject
}

// UserUpdate carries optional profile changes. Nil fields are left untouched.
type UserUpdate struct {
	FullName *string
	Email    *string
	Avatar   *models.MediaObject
	Cover    *models.MediaObject
}

// CreateVideoParams captures the attributes set when publishing a video.
type CreateVideoParams struct {
	OwnerID     string
	Title       string
	Description string
	VideoFile   models.MediaObject
	Thumbnail   models.MediaObject
	Duration    float64
	Published   bool
}

// VideoUpdate carries optional metadata changes. Nil fields are left
// untouched.
type VideoUpdate struct {
	Title       *string
	Description *string
	Thumbnail   *models.MediaObject
}

// ListVideosParams filters, sorts, and paginates the public video catalogue.
// SortBy is one of createdAt, views, duration, title; empty means createdAt.
type ListVideosParams struct {
	Query   string
	OwnerID string
	SortBy  string
	SortAsc bool
	Page    int
	Limit   int
}

// CreatePlaylistParams captures the attributes set when creating a playlist.
type CreatePlaylistParams struct {
	OwnerID     string
	Title       string
	Description string
	Privacy     models.PlaylistPrivacy
}

// PlaylistUpdate carries optional playlist changes. Nil fields are left
// untouched.
type PlaylistUpdate struct {
	Title       *string
	Description *string
	Privacy     *models.PlaylistPrivacy
}

// ChannelStats aggregates the dashboard figures for one channel.
type ChannelStats struct {
	TotalVideos       int             `json:"totalVideos"`
	PublishedVideos   int             `json:"publishedVideos"`
	DraftVideos       int             `json:"draftVideos"`
	TotalViews        int64           `json:"totalViews"`
	TotalDuration     float64         `json:"totalDuration"`
	TotalComments     int             `json:"totalComments"`
	TotalLikes        int             `json:"totalLikes"`
	TotalPlaylists    int             `json:"totalPlaylists"`
	TotalSubscribers  int             `json:"totalSubscribers"`
	TotalSubscribedTo int             `json:"totalSubscribedTo"`
	TopVideo          *VideoHighlight `json:"topVideo,omitempty"`
}

// VideoHighlight identifies the channel's most viewed upload.
type VideoHighlight struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Views int64  `json:"views"`
}
