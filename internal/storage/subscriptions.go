package storage

import (
	"time"

	"clipstream/internal/apperr"
	"clipstream/internal/models"
)

func (s *Storage) findSubscriptionLocked(subscriberID, channelID string) (string, bool) {
	for id, sub := range s.data.Subscriptions {
		if sub.SubscriberID == subscriberID && sub.ChannelID == channelID {
			return id, true
		}
	}
	return "", false
}

// ToggleSubscription flips the subscriber's subscription to the channel. It
// returns true when the subscription now exists and false when it was
// removed. Subscribing to your own channel is rejected.
func (s *Storage) ToggleSubscription(subscriberID, channelID string) (bool, error) {
	if subscriberID == channelID {
		return false, apperr.Validationf("cannot subscribe to your own channel")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Users[subscriberID]; !ok {
		return false, apperr.NotFoundf("user %s not found", subscriberID)
	}
	if _, ok := s.data.Users[channelID]; !ok {
		return false, apperr.NotFoundf("channel %s not found", channelID)
	}

	if subID, ok := s.findSubscriptionLocked(subscriberID, channelID); ok {
		removed := s.data.Subscriptions[subID]
		delete(s.data.Subscriptions, subID)
		if err := s.persist(); err != nil {
			s.data.Subscriptions[subID] = removed
			return false, apperr.Dependency(err)
		}
		return false, nil
	}

	id, err := s.generateID()
	if err != nil {
		return false, apperr.Dependency(err)
	}
	sub := models.Subscription{
		ID:           id,
		SubscriberID: subscriberID,
		ChannelID:    channelID,
		CreatedAt:    time.Now().UTC(),
	}
	s.data.Subscriptions[id] = sub
	if err := s.persist(); err != nil {
		delete(s.data.Subscriptions, id)
		return false, apperr.Dependency(err)
	}
	return true, nil
}

// IsSubscribed reports whether the subscriber currently follows the channel.
func (s *Storage) IsSubscribed(subscriberID, channelID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.findSubscriptionLocked(subscriberID, channelID)
	return ok
}

// CountSubscribers returns the channel's subscriber count.
func (s *Storage) CountSubscribers(channelID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, sub := range s.data.Subscriptions {
		if sub.ChannelID == channelID {
			count++
		}
	}
	return count
}

// ListChannelSubscribers resolves the users subscribed to the channel, most
// recent subscription first.
func (s *Storage) ListChannelSubscribers(channelID string) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.data.Users[channelID]; !ok {
		return nil, apperr.NotFoundf("channel %s not found", channelID)
	}

	subs := make([]models.Subscription, 0)
	for _, sub := range s.data.Subscriptions {
		if sub.ChannelID == channelID {
			subs = append(subs, sub)
		}
	}
	sortByCreatedAtDesc(subs, func(s models.Subscription) time.Time { return s.CreatedAt }, func(s models.Subscription) string { return s.ID })

	users := make([]models.User, 0, len(subs))
	for _, sub := range subs {
		if user, ok := s.data.Users[sub.SubscriberID]; ok {
			users = append(users, user)
		}
	}
	return users, nil
}

// ListSubscribedChannels resolves the channels the subscriber follows, most
// recent subscription first.
func (s *Storage) ListSubscribedChannels(subscriberID string) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.data.Users[subscriberID]; !ok {
		return nil, apperr.NotFoundf("user %s not found", subscriberID)
	}

	subs := make([]models.Subscription, 0)
	for _, sub := range s.data.Subscriptions {
		if sub.SubscriberID == subscriberID {
			subs = append(subs, sub)
		}
	}
	sortByCreatedAtDesc(subs, func(s models.Subscription) time.Time { return s.CreatedAt }, func(s models.Subscription) string { return s.ID })

	channels := make([]models.User, 0, len(subs))
	for _, sub := range subs {
		if user, ok := s.data.Users[sub.ChannelID]; ok {
			channels = append(channels, user)
		}
	}
	return channels, nil
}
