package slack

// Export internal functions for testing
var (
	ToBlocks         = toBlocks
	ToAttachment     = toAttachment
	PanelOf          = panelOf
	ToWebhookMessage = toWebhookMessage
)
