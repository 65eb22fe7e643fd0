package handler

import (
	"net/http"

	"producer-chat/internal/domain/chat"
	"producer-chat/internal/services"
	"producer-chat/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// maxAttachmentBytes caps a single uploaded file.
const maxAttachmentBytes = 25 << 20

type MessageHandler struct {
	sessions *services.SessionManager
}

func NewMessageHandler(sessions *services.SessionManager) *MessageHandler {
	return &MessageHandler{sessions: sessions}
}

// GetThread opens (or re-opens) the conversation with :otherID and returns
// its newest page, oldest first. Opening the thread marks it read.
func (h *MessageHandler) GetThread(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	otherID, ok := parseUUIDParam(c, "otherID")
	if !ok {
		return
	}

	session := h.sessions.Session(userID)
	messages := session.Load(c.Request.Context(), otherID)
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ThreadResponse{
		Messages: emptyIfNil(messages),
		HasMore:  session.HasMore(),
	}))
}

// GetOlderMessages pages backwards from the oldest loaded message and
// returns the grown history. It requires the thread to be the active one.
func (h *MessageHandler) GetOlderMessages(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	otherID, ok := parseUUIDParam(c, "otherID")
	if !ok {
		return
	}

	session := h.sessions.Session(userID)
	if session.ActiveParty() != otherID {
		session.Load(c.Request.Context(), otherID)
	} else {
		session.LoadMore(c.Request.Context())
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ThreadResponse{
		Messages: emptyIfNil(session.Messages()),
		HasMore:  session.HasMore(),
	}))
}

// SendMessage accepts a multipart form with an optional "text" field and an
// optional "file" part. An empty payload is acknowledged without creating
// anything; a quota refusal comes back as a notice, not an error.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	otherID, ok := parseUUIDParam(c, "otherID")
	if !ok {
		return
	}

	var req httpdto.SendMessageRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_INPUT"))
		return
	}

	input := services.SendInput{Text: req.Text}

	fileHeader, err := c.FormFile("file")
	if err == nil && fileHeader != nil {
		if fileHeader.Size > maxAttachmentBytes {
			c.JSON(http.StatusRequestEntityTooLarge, httpdto.NewErrorResponse("file too large", "TOO_LARGE"))
			return
		}
		file, openErr := fileHeader.Open()
		if openErr != nil {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("unreadable file", "INVALID_INPUT"))
			return
		}
		defer file.Close()

		input.Attachment = &services.AttachmentInput{
			Reader:      file,
			Filename:    fileHeader.Filename,
			ContentType: fileHeader.Header.Get("Content-Type"),
			Kind:        chat.AttachmentKind(req.Kind),
		}
	}

	// The recipient comes from the route, not from session state, so a
	// concurrent thread switch cannot redirect the message.
	session := h.sessions.Session(userID)
	result := session.Send(c.Request.Context(), otherID, input)

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.SendMessageResponse{
		Message: result.Message,
		Notice:  result.Notice,
	}))
}

// ClearChat deletes the entire history with :otherID for both sides.
func (h *MessageHandler) ClearChat(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	otherID, ok := parseUUIDParam(c, "otherID")
	if !ok {
		return
	}

	session := h.sessions.Session(userID)
	session.ClearChat(c.Request.Context(), otherID)
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"cleared": true}))
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
	}
	return userID, ok
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil || id == uuid.Nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid "+name, "INVALID_INPUT"))
		return uuid.Nil, false
	}
	return id, true
}

func emptyIfNil(messages []chat.Message) []chat.Message {
	if messages == nil {
		return []chat.Message{}
	}
	return messages
}
