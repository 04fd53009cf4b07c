package storage

import (
	"clipstream/internal/apperr"
	"clipstream/internal/models"
)

// ChannelStats aggregates the channel's dashboard figures: upload counts
// split by publish state, views, watch time, comments and likes received,
// playlist and subscription totals, and the most viewed upload. Unpublished
// videos count because the dashboard is owner-only.
func (s *Storage) ChannelStats(channelID string) (ChannelStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.data.Users[channelID]; !ok {
		return ChannelStats{}, apperr.NotFoundf("channel %s not found", channelID)
	}

	stats := ChannelStats{}
	videoIDs := make(map[string]struct{})
	var top models.Video
	for _, video := range s.data.Videos {
		if video.OwnerID != channelID {
			continue
		}
		stats.TotalVideos++
		if video.Published {
			stats.PublishedVideos++
		} else {
			stats.DraftVideos++
		}
		stats.TotalViews += video.Views
		stats.TotalDuration += video.Duration
		videoIDs[video.ID] = struct{}{}
		if top.ID == "" || video.Views > top.Views || (video.Views == top.Views && video.ID < top.ID) {
			top = video
		}
	}
	if top.ID != "" {
		stats.TopVideo = &VideoHighlight{ID: top.ID, Title: top.Title, Views: top.Views}
	}
	for _, comment := range s.data.Comments {
		if _, ok := videoIDs[comment.VideoID]; ok {
			stats.TotalComments++
		}
	}
	for _, like := range s.data.Likes {
		if like.Target.Kind != models.LikeTargetVideo {
			continue
		}
		if _, ok := videoIDs[like.Target.ID]; ok {
			stats.TotalLikes++
		}
	}
	for _, playlist := range s.data.Playlists {
		if playlist.OwnerID == channelID {
			stats.TotalPlaylists++
		}
	}
	for _, sub := range s.data.Subscriptions {
		if sub.ChannelID == channelID {
			stats.TotalSubscribers++
		}
		if sub.SubscriberID == channelID {
			stats.TotalSubscribedTo++
		}
	}
	return stats, nil
}
