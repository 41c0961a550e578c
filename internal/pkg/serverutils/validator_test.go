package serverutils

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"arivu-ai-be/internal/dto"
)

func TestValidateSendChatRequiresTextOrAttachments(t *testing.T) {
	req := dto.SendChatRequest{ChatSessionId: uuid.New()}

	err := ValidateRequest(req)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Contains(t, ve.Message, "Chat")
}

func TestValidateSendChatAllowsAttachmentsOnly(t *testing.T) {
	req := dto.SendChatRequest{
		ChatSessionId: uuid.New(),
		Attachments: []dto.AttachmentDTO{
			{Name: "notes.png", MimeType: "image/png", Data: "aGVsbG8="},
		},
	}

	require.NoError(t, ValidateRequest(req))
}

func TestValidateSendChatAllowsTextOnly(t *testing.T) {
	req := dto.SendChatRequest{ChatSessionId: uuid.New(), Chat: "hello"}

	require.NoError(t, ValidateRequest(req))
}

func TestValidateSendChatRequiresSessionId(t *testing.T) {
	req := dto.SendChatRequest{Chat: "hello"}

	err := ValidateRequest(req)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
}
