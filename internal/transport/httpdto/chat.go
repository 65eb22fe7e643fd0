package httpdto

// SendMessageRequest is the non-file part of a multipart send. Text may be
// empty when a file part is present.
type SendMessageRequest struct {
	Text string `form:"text"`
	// Kind optionally classifies the attachment: IMAGE, AUDIO or FILE.
	// Left empty, it is inferred from the uploaded file's content type.
	Kind string `form:"kind"`
}

type SendMessageResponse struct {
	Message interface{} `json:"message,omitempty"`
	Notice  string      `json:"notice,omitempty"`
}

type ThreadResponse struct {
	Messages interface{} `json:"messages"`
	HasMore  bool        `json:"has_more"`
}

type QuotaStatusResponse struct {
	// Unlimited is set when no cap is configured for the user.
	Unlimited    bool  `json:"unlimited"`
	Limit        int   `json:"limit,omitempty"`
	Remaining    int   `json:"remaining,omitempty"`
	ResetSeconds int64 `json:"reset_seconds,omitempty"`
}

type BlockRequest struct {
	BlockedID string `json:"blocked_id"`
}

type ReportRequest struct {
	ReportedUserID string `json:"reported_user_id"`
	ConversationID string `json:"conversation_id"`
	Reason         string `json:"reason"`
	Note           string `json:"note"`
}
