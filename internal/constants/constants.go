package constants

const (
	// Context keys shared by middleware and handlers
	ContextKeyUserID = "user_id"
	ContextKeyUser   = "current_user"

	// SessionCookieName is the cookie that carries the signed token session
	SessionCookieName = "feedback_session"
	SessionKeyToken   = "token"

	MinPasswordLength = 6
	MaxNameLength     = 255
	MaxSubjectLength  = 255

	MinPageSize                 = 1
	DefaultPageSize             = 10
	DefaultNotificationPageSize = 20
	MaxPageSize                 = 100

	// MonthlyTrendMonths is the number of calendar months in the dashboard trend
	MonthlyTrendMonths = 6

	MaxAIDraftLength = 4000
)
