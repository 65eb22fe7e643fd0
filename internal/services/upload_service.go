package services

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"producer-chat/internal/domain/chat"
	chat_errors "producer-chat/pkg/errors"

	"github.com/google/uuid"
)

// ObjectStore is the upload(file) -> publicUrl boundary. It must fail
// atomically: no URL is ever returned for an object that is not fully stored.
type ObjectStore interface {
	PutObject(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}

type AttachmentInput struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	// Kind may be left empty; it is then inferred from ContentType.
	Kind chat.AttachmentKind
}

// AttachmentRef is what gets persisted on the message: a confirmed public
// URL plus display metadata.
type AttachmentRef struct {
	URL  string
	Kind chat.AttachmentKind
	Name string
}

type Uploader interface {
	Upload(ctx context.Context, senderID uuid.UUID, in AttachmentInput) (AttachmentRef, error)
}

type AttachmentUploader struct {
	store ObjectStore
}

func NewAttachmentUploader(store ObjectStore) *AttachmentUploader {
	return &AttachmentUploader{store: store}
}

func (u *AttachmentUploader) Upload(ctx context.Context, senderID uuid.UUID, in AttachmentInput) (AttachmentRef, error) {
	if u.store == nil {
		return AttachmentRef{}, chat_errors.ErrNotUploaded
	}
	if senderID == uuid.Nil || in.Reader == nil {
		return AttachmentRef{}, chat_errors.ErrInvalidInput
	}

	kind := in.Kind
	if kind == "" {
		kind = chat.KindForContentType(in.ContentType)
	}

	key := buildObjectKey(senderID, in.Filename)
	publicURL, err := u.store.PutObject(ctx, key, in.ContentType, in.Reader)
	if err != nil {
		return AttachmentRef{}, fmt.Errorf("%w: %v", chat_errors.ErrNotUploaded, err)
	}

	return AttachmentRef{
		URL:  publicURL,
		Kind: kind,
		Name: in.Filename,
	}, nil
}

func buildObjectKey(senderID uuid.UUID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	base := fmt.Sprintf("attachments/%s/%s", senderID.String(), uuid.New().String())
	if ext == "" {
		return base
	}
	return base + ext
}
