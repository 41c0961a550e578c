package mapper

import (
	"testing"
	"time"

	"arivu-ai-be/internal/constant"
	"arivu-ai-be/internal/entity"
	"arivu-ai-be/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestChatSessionDeletedAtRoundTrip(t *testing.T) {
	m := NewChatMapper()
	deleted := time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC)

	src := &model.ChatSession{
		Id:        uuid.New(),
		UserId:    uuid.New(),
		Title:     "Go generics question",
		CreatedAt: deleted.Add(-time.Hour),
		DeletedAt: gorm.DeletedAt{Time: deleted, Valid: true},
	}

	e := m.ChatSessionToEntity(src)
	assert.True(t, e.IsDeleted)
	assert.NotNil(t, e.DeletedAt)
	assert.Equal(t, deleted, *e.DeletedAt)

	back := m.ChatSessionToModel(e)
	assert.True(t, back.DeletedAt.Valid)
	assert.Equal(t, deleted, back.DeletedAt.Time)
	assert.Equal(t, src.Title, back.Title)
}

func TestChatSessionLiveRow(t *testing.T) {
	m := NewChatMapper()

	e := m.ChatSessionToEntity(&model.ChatSession{
		Id:     uuid.New(),
		UserId: uuid.New(),
		Title:  "New Chat",
	})
	assert.False(t, e.IsDeleted)
	assert.Nil(t, e.DeletedAt)
	assert.Nil(t, e.UpdatedAt)
}

func TestChatMessageAttachmentsRoundTrip(t *testing.T) {
	m := NewChatMapper()

	src := &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: uuid.New(),
		Role:          constant.ChatRoleUser,
		Chat:          "what is in this picture?",
		Attachments: []entity.TurnAttachment{
			{Name: "photo.png", MimeType: "image/png"},
			{Name: "notes.pdf", MimeType: "application/pdf"},
		},
	}

	row := m.ChatMessageToModel(src)
	assert.NotEmpty(t, row.Attachments)

	back := m.ChatMessageToEntity(row)
	assert.Len(t, back.Attachments, 2)
	assert.Equal(t, "photo.png", back.Attachments[0].Name)
	assert.Equal(t, "application/pdf", back.Attachments[1].MimeType)
}

func TestChatMessageMalformedAttachmentsDegrade(t *testing.T) {
	m := NewChatMapper()

	e := m.ChatMessageToEntity(&model.ChatMessage{
		Id:          uuid.New(),
		Role:        constant.ChatRoleAssistant,
		Chat:        "reply",
		Attachments: []byte(`{not json`),
	})
	assert.Empty(t, e.Attachments)
	assert.Equal(t, "reply", e.Chat)
}

func TestChatMessageErrorFlagSurvives(t *testing.T) {
	m := NewChatMapper()

	row := m.ChatMessageToModel(&entity.ChatMessage{
		Id:      uuid.New(),
		Role:    constant.ChatRoleAssistant,
		Chat:    "API quota exceeded. Please try again later.",
		IsError: true,
	})
	assert.True(t, row.IsError)
	assert.True(t, m.ChatMessageToEntity(row).IsError)
}

func TestNilMappings(t *testing.T) {
	m := NewChatMapper()
	assert.Nil(t, m.ChatSessionToEntity(nil))
	assert.Nil(t, m.ChatSessionToModel(nil))
	assert.Nil(t, m.ChatMessageToEntity(nil))
	assert.Nil(t, m.ChatMessageToModel(nil))
}
