package kick

import "github.com/goliatone/go-eventsub/core"

const (
	EventChatMessageSent            = "chat.message.sent"
	EventChannelFollowed            = "channel.followed"
	EventChannelSubscriptionRenewal = "channel.subscription.renewal"
	EventChannelSubscriptionGifts   = "channel.subscription.gifts"
	EventChannelSubscriptionNew     = "channel.subscription.new"
	EventLivestreamStatusUpdated    = "livestream.status.updated"
	EventLivestreamMetadataUpdated  = "livestream.metadata.updated"
	EventModerationBanned           = "moderation.banned"
	EventKicksGifted                = "kicks.gifted"
)

// DesiredEvents lists the webhook subscriptions the integration depends on.
func DesiredEvents() []core.DesiredSubscription {
	return []core.DesiredSubscription{
		{Name: EventChatMessageSent, Version: 1},
		{Name: EventChannelFollowed, Version: 1},
		{Name: EventChannelSubscriptionRenewal, Version: 1},
		{Name: EventChannelSubscriptionGifts, Version: 1},
		{Name: EventChannelSubscriptionNew, Version: 1},
		{Name: EventLivestreamStatusUpdated, Version: 1},
		{Name: EventLivestreamMetadataUpdated, Version: 1},
		{Name: EventModerationBanned, Version: 1},
		{Name: EventKicksGifted, Version: 1},
	}
}

var desiredSet = core.MustDesiredSet(DesiredEvents()...)

func DesiredSet() core.DesiredSet {
	return desiredSet
}
