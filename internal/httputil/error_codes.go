package httputil

// 對外錯誤訊息常數.
const (
	MessageNotFound     = "Message not found"
	UserNotFound        = "User not found"
	InvalidRequestBody  = "Invalid request body"
	InternalServerError = "Internal server error"
	NotAuthorized       = "Not authorized"
	TooManyRequests     = "Too many requests, please try again later"
)
