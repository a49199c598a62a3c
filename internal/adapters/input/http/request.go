package http

type (
	// UserSessionsRequest struct - HTTP path parameters of the sessions endpoint
	UserSessionsRequest struct {
		Platform string `json:"platform" params:"platform" validate:"required,oneof=telegram line"`
		UserID   string `json:"user_id" params:"user_id" validate:"required,max=128"`
	}
)
