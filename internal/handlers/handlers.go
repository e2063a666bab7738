package handlers

// Handlers groups the HTTP handlers registered by the router
type Handlers struct {
	Auth         *AuthHandler
	Category     *CategoryHandler
	Feedback     *FeedbackHandler
	Notification *NotificationHandler
	Dashboard    *DashboardHandler
}
