package storage

import "clipstream/internal/models"

// Snapshot is a point-in-time export of the JSON store, used to seed a
// Postgres installation.
type Snapshot struct {
	Users         map[string]models.User         `json:"users"`
	Videos        map[string]models.Video        `json:"videos"`
	Comments      map[string]models.Comment      `json:"comments"`
	Tweets        map[string]models.Tweet        `json:"tweets"`
	Likes         map[string]models.Like         `json:"likes"`
	Playlists     map[string]models.Playlist     `json:"playlists"`
	Subscriptions map[string]models.Subscription `json:"subscriptions"`
}

// Snapshot copies the current dataset. The copy is deep enough for callers
// to hold after the store moves on.
func (s *Storage) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := Snapshot{
		Users:         make(map[string]models.User, len(s.data.Users)),
		Videos:        make(map[string]models.Video, len(s.data.Videos)),
		Comments:      make(map[string]models.Comment, len(s.data.Comments)),
		Tweets:        make(map[string]models.Tweet, len(s.data.Tweets)),
		Likes:         make(map[string]models.Like, len(s.data.Likes)),
		Playlists:     make(map[string]models.Playlist, len(s.data.Playlists)),
		Subscriptions: make(map[string]models.Subscription, len(s.data.Subscriptions)),
	}
	for id, user := range s.data.Users {
		user.WatchHistory = append([]string(nil), user.WatchHistory...)
		snapshot.Users[id] = user
	}
	for id, video := range s.data.Videos {
		snapshot.Videos[id] = video
	}
	for id, comment := range s.data.Comments {
		snapshot.Comments[id] = comment
	}
	for id, tweet := range s.data.Tweets {
		snapshot.Tweets[id] = tweet
	}
	for id, like := range s.data.Likes {
		snapshot.Likes[id] = like
	}
	for id, playlist := range s.data.Playlists {
		playlist.VideoIDs = append([]string(nil), playlist.VideoIDs...)
		snapshot.Playlists[id] = playlist
	}
	for id, sub := range s.data.Subscriptions {
		snapshot.Subscriptions[id] = sub
	}
	return snapshot
}
