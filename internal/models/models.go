package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// User is a registered account. Every account doubles as a channel that other
// users can subscribe to. PasswordHash and RefreshToken are secrets and must
// never be serialised into API responses; handlers expose a trimmed profile
// view instead.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FullName     string    `json:"fullName"`
	AvatarURL    string    `json:"avatarUrl,omitempty"`
	AvatarKey    string    `json:"avatarKey,omitempty"`
	CoverURL     string    `json:"coverUrl,omitempty"`
	CoverKey     string    `json:"coverKey,omitempty"`
	PasswordHash string    `json:"passwordHash,omitempty"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	WatchHistory []string  `json:"watchHistory,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// MediaObject references a stored media asset: the public playback URL plus
// the object key needed to delete it later.
type MediaObject struct {
	URL string `json:"url"`
	Key string `json:"key,omitempty"`
}

type Video struct {
	ID          string      `json:"id"`
	OwnerID     string      `json:"ownerId"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	VideoFile   MediaObject `json:"videoFile"`
	Thumbnail   MediaObject `json:"thumbnail"`
	Duration    float64     `json:"duration"`
	Views       int64       `json:"views"`
	Published   bool        `json:"published"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

type Comment struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"videoId"`
	OwnerID   string    `json:"ownerId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Tweet struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LikeTargetKind discriminates the entity a like points at.
type LikeTargetKind string

const (
	LikeTargetVideo   LikeTargetKind = "video"
	LikeTargetComment LikeTargetKind = "comment"
	LikeTargetTweet   LikeTargetKind = "tweet"
)

// LikeTarget identifies exactly one likeable entity. Modelling the target as
// a kind+id pair (rather than three nullable references) keeps the
// "exactly one target" invariant enforceable at construction time.
type LikeTarget struct {
	Kind LikeTargetKind `json:"kind"`
	ID   string         `json:"id"`
}

// Validate reports whether the target carries a known kind and a non-empty id.
func (t LikeTarget) Validate() error {
	switch t.Kind {
	case LikeTargetVideo, LikeTargetComment, LikeTargetTweet:
	default:
		return fmt.Errorf("unknown like target kind %q", t.Kind)
	}
	if t.ID == "" {
		return fmt.Errorf("like target id is required")
	}
	return nil
}

// UnmarshalJSON rejects payloads that fail target validation so malformed
// likes never enter the system half-built.
func (t *LikeTarget) UnmarshalJSON(data []byte) error {
	type alias LikeTarget
	var raw alias
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	decoded := LikeTarget(raw)
	if err := decoded.Validate(); err != nil {
		return err
	}
	*t = decoded
	return nil
}

type Like struct {
	ID        string     `json:"id"`
	LikedBy   string     `json:"likedBy"`
	Target    LikeTarget `json:"target"`
	CreatedAt time.Time  `json:"createdAt"`
}

// PlaylistPrivacy controls who may read a playlist.
type PlaylistPrivacy string

const (
	PlaylistPublic   PlaylistPrivacy = "public"
	PlaylistPrivate  PlaylistPrivacy = "private"
	PlaylistUnlisted PlaylistPrivacy = "unlisted"
)

// ValidPlaylistPrivacy reports whether the value is one of the supported
// privacy levels.
func ValidPlaylistPrivacy(p PlaylistPrivacy) bool {
	switch p {
	case PlaylistPublic, PlaylistPrivate, PlaylistUnlisted:
		return true
	}
	return false
}

type Playlist struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"ownerId"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Privacy     PlaylistPrivacy `json:"privacy"`
	VideoIDs    []string        `json:"videoIds"`
	Views       int64           `json:"views"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Contains reports whether the playlist already references the video.
func (p Playlist) Contains(videoID string) bool {
	for _, id := range p.VideoIDs {
		if id == videoID {
			return true
		}
	}
	return false
}

// Subscription records that Subscriber follows Channel. Both sides are user
// ids; a user never subscribes to themselves.
type Subscription struct {
	ID           string    `json:"id"`
	SubscriberID string    `json:"subscriberId"`
	ChannelID    string    `json:"channelId"`
	CreatedAt    time.Time `json:"createdAt"`
}
