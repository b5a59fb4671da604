package models

// Instagram webhook payloads (Meta Graph API shape). A single POST can batch
// multiple entries, each with multiple messaging events.

type InstagramWebhookPayload struct {
	Object string                  `json:"object"`
	Entry  []InstagramWebhookEntry `json:"entry"`
}

type InstagramWebhookEntry struct {
	ID        string                    `json:"id"`
	Time      int64                     `json:"time"`
	Messaging []InstagramMessagingEvent `json:"messaging"`
}

type InstagramMessagingEvent struct {
	Sender struct {
		ID string `json:"id"`
	} `json:"sender"`
	Recipient struct {
		ID string `json:"id"`
	} `json:"recipient"`
	Timestamp int64 `json:"timestamp"`
	Message   *struct {
		MID  string `json:"mid"`
		Text string `json:"text"`
	} `json:"message,omitempty"`
}
