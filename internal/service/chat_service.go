package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"arivu-ai-be/internal/constant"
	"arivu-ai-be/internal/dto"
	"arivu-ai-be/internal/entity"
	"arivu-ai-be/internal/pkg/logger"
	"arivu-ai-be/internal/repository/memory"
	"arivu-ai-be/internal/repository/specification"
	"arivu-ai-be/internal/repository/unitofwork"
	"arivu-ai-be/pkg/events"
	"arivu-ai-be/pkg/llm"
	pktNats "arivu-ai-be/pkg/nats"
	"arivu-ai-be/pkg/prompt"
	"arivu-ai-be/pkg/quota"

	"github.com/google/uuid"
)

// IChatService defines the conversation service interface
type IChatService interface {
	CreateSession(ctx context.Context, userId uuid.UUID) (*dto.CreateSessionResponse, error)
	GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllSessionsResponse, error)
	GetChatHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.GetChatHistoryResponse, error)
	SendChat(ctx context.Context, userId uuid.UUID, request *dto.SendChatRequest) (*dto.SendChatResponse, error)
	SelectSession(ctx context.Context, userId uuid.UUID, request *dto.SelectSessionRequest) error
	SetToolMode(ctx context.Context, userId uuid.UUID, request *dto.SetToolModeRequest) error
	DeleteSession(ctx context.Context, userId uuid.UUID, request *dto.DeleteSessionRequest) (*dto.DeleteSessionResponse, error)
	ClearSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error
}

type chatService struct {
	uowFactory       unitofwork.RepositoryFactory
	gateway          *llm.Gateway
	toolModes        *memory.ToolModeRepository
	publisherService IPublisherService
	eventPublisher   *pktNats.Publisher
	logger           logger.ILogger
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	gateway *llm.Gateway,
	toolModes *memory.ToolModeRepository,
	publisherService IPublisherService,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) IChatService {
	return &chatService{
		uowFactory:       uowFactory,
		gateway:          gateway,
		toolModes:        toolModes,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		logger:           log,
	}
}

// loadTier returns the stored tier, defaulting to free when no row exists.
func loadTier(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID) (quota.Tier, error) {
	tier, err := uow.TierRepository().FindOne(ctx, specification.UserOwnedBy{UserID: userId})
	if err != nil {
		return quota.Tier{Kind: quota.TierFree}, err
	}
	return tier.Quota(), nil
}

// CreateSession creates a new empty chat session and makes it active.
func (cs *chatService) CreateSession(ctx context.Context, userId uuid.UUID) (*dto.CreateSessionResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)
	now := time.Now()

	tier, err := loadTier(ctx, uow, userId)
	if err != nil {
		return nil, err
	}

	sessionCount, err := uow.ChatSessionRepository().Count(ctx, specification.UserOwnedBy{UserID: userId})
	if err != nil {
		return nil, err
	}
	if err := quota.CanCreateSession(tier, now, int(sessionCount)).Err(); err != nil {
		return nil, err
	}

	chatSession := entity.ChatSession{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     constant.DefaultSessionTitle,
		CreatedAt: now,
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.ChatSessionRepository().Create(ctx, &chatSession); err != nil {
		return nil, err
	}
	if err := uow.UserRepository().UpdateActiveSession(ctx, userId, &chatSession.Id); err != nil {
		return nil, err
	}
	// The new active session is empty, so the counter resets.
	if err := uow.UserRepository().UpdateMessageUsage(ctx, userId, 0); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	return &dto.CreateSessionResponse{Id: chatSession.Id, Title: chatSession.Title}, nil
}

// GetAllSessions retrieves all chat sessions, newest first.
func (cs *chatService) GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllSessionsResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user not found")
	}

	chatSessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	response := make([]*dto.GetAllSessionsResponse, 0, len(chatSessions))
	for _, s := range chatSessions {
		isActive := user.ActiveSessionId != nil && *user.ActiveSessionId == s.Id
		response = append(response, &dto.GetAllSessionsResponse{
			Id:        s.Id,
			Title:     s.Title,
			CreatedAt: s.CreatedAt,
			UpdatedAt: s.UpdatedAt,
			IsActive:  isActive,
		})
	}

	return response, nil
}

// GetChatHistory retrieves chat history for a session
func (cs *chatService) GetChatHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.GetChatHistoryResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	sess, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fmt.Errorf("session not found or access denied")
	}

	chatMessages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	resp := make([]*dto.GetChatHistoryResponse, 0, len(chatMessages))
	for _, msg := range chatMessages {
		resp = append(resp, &dto.GetChatHistoryResponse{
			Id:          msg.Id,
			Role:        msg.Role,
			Chat:        msg.Chat,
			Attachments: attachmentDTOs(msg.Attachments),
			IsError:     msg.IsError,
			CreatedAt:   msg.CreatedAt,
		})
	}

	return resp, nil
}

// SendChat runs one request/response exchange. The user turn is persisted
// before the provider is called; a provider failure still produces an
// assistant turn, flagged as an error.
func (cs *chatService) SendChat(ctx context.Context, userId uuid.UUID, request *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)
	now := time.Now()

	chatSession, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: request.ChatSessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if chatSession == nil {
		return nil, fmt.Errorf("session not found or access denied")
	}

	tier, err := loadTier(ctx, uow, userId)
	if err != nil {
		return nil, err
	}

	turnCount, err := uow.ChatMessageRepository().Count(ctx,
		specification.ByChatSessionID{ChatSessionID: request.ChatSessionId},
	)
	if err != nil {
		return nil, err
	}
	if err := quota.CanSend(tier, now, int(turnCount)).Err(); err != nil {
		return nil, err
	}

	// Resolve the effective tool mode: a structured field wins, a marker
	// in the text is honored for older clients, and an armed toolbar
	// selection covers the rest. Whatever the source, it applies to this
	// exchange only.
	structured := prompt.ToolMode(request.ToolMode)
	mode, displayText := prompt.ParseMode(request.Chat, structured)
	if mode == prompt.ModeNone {
		if armed, ok := cs.toolModes.Consume(request.ChatSessionId.String()); ok {
			mode = armed
		}
	} else {
		cs.toolModes.Clear(request.ChatSessionId.String())
	}

	attachments, llmAttachments, err := decodeAttachments(request.Attachments)
	if err != nil {
		return nil, err
	}

	userMessage := entity.ChatMessage{
		Id:            uuid.New(),
		Chat:          displayText,
		Role:          constant.ChatRoleUser,
		ChatSessionId: request.ChatSessionId,
		Attachments:   attachments,
		CreatedAt:     now,
	}

	history, err := cs.loadHistory(ctx, uow, request.ChatSessionId)
	if err != nil {
		return nil, err
	}

	firstUserTurn := true
	for _, h := range history {
		if h.Role == llm.RoleUser {
			firstUserTurn = false
			break
		}
	}

	// Persist the user turn first so it survives a provider failure.
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.ChatMessageRepository().Create(ctx, &userMessage); err != nil {
		return nil, err
	}

	if firstUserTurn {
		chatSession.Title = deriveTitle(displayText)
		if err := uow.ChatSessionRepository().Update(ctx, chatSession); err != nil {
			return nil, err
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	// Provider call is outside any transaction.
	composed := prompt.ComposeWithAttachments(displayText, mode, len(llmAttachments) > 0)
	reply, sendErr := cs.gateway.Send(ctx, composed, history, llmAttachments)

	assistantMessage := entity.ChatMessage{
		Id:            uuid.New(),
		Role:          constant.ChatRoleAssistant,
		ChatSessionId: request.ChatSessionId,
		CreatedAt:     time.Now(),
	}
	if sendErr != nil {
		cs.logger.Error("ChatService", "Gateway exchange failed", map[string]interface{}{
			"session_id": request.ChatSessionId,
			"error":      sendErr.Error(),
		})
		assistantMessage.Chat = sendErr.Error()
		assistantMessage.IsError = true
	} else {
		assistantMessage.Chat = reply
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	if err := uow.ChatMessageRepository().Create(ctx, &assistantMessage); err != nil {
		return nil, err
	}

	// Usage always reflects the active session's stored turn count.
	newCount, err := uow.ChatMessageRepository().Count(ctx,
		specification.ByChatSessionID{ChatSessionID: request.ChatSessionId},
	)
	if err != nil {
		return nil, err
	}
	if err := uow.UserRepository().UpdateMessageUsage(ctx, userId, int(newCount)); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	cs.publishTurn(ctx, userId, &userMessage)
	cs.publishTurn(ctx, userId, &assistantMessage)

	return &dto.SendChatResponse{
		ChatSessionId:    chatSession.Id,
		ChatSessionTitle: chatSession.Title,
		MessageUsage:     int(newCount),
		Sent: &dto.SendChatResponseChat{
			Id:          userMessage.Id,
			Chat:        userMessage.Chat,
			Role:        userMessage.Role,
			Attachments: attachmentDTOs(userMessage.Attachments),
			CreatedAt:   userMessage.CreatedAt,
		},
		Reply: &dto.SendChatResponseChat{
			Id:        assistantMessage.Id,
			Chat:      assistantMessage.Chat,
			Role:      assistantMessage.Role,
			IsError:   assistantMessage.IsError,
			CreatedAt: assistantMessage.CreatedAt,
		},
	}, nil
}

// SelectSession re-points the active session.
func (cs *chatService) SelectSession(ctx context.Context, userId uuid.UUID, request *dto.SelectSessionRequest) error {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	sess, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: request.ChatSessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return err
	}
	if sess == nil {
		return fmt.Errorf("session not found or access denied")
	}

	turnCount, err := uow.ChatMessageRepository().Count(ctx,
		specification.ByChatSessionID{ChatSessionID: sess.Id},
	)
	if err != nil {
		return err
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.UserRepository().UpdateActiveSession(ctx, userId, &sess.Id); err != nil {
		return err
	}
	if err := uow.UserRepository().UpdateMessageUsage(ctx, userId, int(turnCount)); err != nil {
		return err
	}

	return uow.Commit()
}

// SetToolMode arms a tool mode that the next send in the session consumes.
func (cs *chatService) SetToolMode(ctx context.Context, userId uuid.UUID, request *dto.SetToolModeRequest) error {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	sess, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: request.ChatSessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return err
	}
	if sess == nil {
		return fmt.Errorf("session not found or access denied")
	}

	mode := prompt.ToolMode(request.ToolMode)
	if !mode.Valid() {
		return fmt.Errorf("unknown tool mode: %s", request.ToolMode)
	}

	if mode == prompt.ModeNone {
		cs.toolModes.Clear(request.ChatSessionId.String())
		return nil
	}
	cs.toolModes.Arm(request.ChatSessionId.String(), mode)
	return nil
}

// DeleteSession removes a session and its turns. If the deleted session
// was active, the pointer moves to the next most recent session.
func (cs *chatService) DeleteSession(ctx context.Context, userId uuid.UUID, request *dto.DeleteSessionRequest) (*dto.DeleteSessionResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	sess, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: request.ChatSessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fmt.Errorf("session not found or access denied")
	}

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user not found")
	}

	wasActive := user.ActiveSessionId != nil && *user.ActiveSessionId == sess.Id

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.ChatMessageRepository().DeleteByChatSessionId(ctx, sess.Id); err != nil {
		return nil, err
	}
	if err := uow.ChatSessionRepository().Delete(ctx, sess.Id); err != nil {
		return nil, err
	}

	activeId := user.ActiveSessionId
	if wasActive {
		remaining, err := uow.ChatSessionRepository().FindAll(ctx,
			specification.UserOwnedBy{UserID: userId},
			specification.OrderBy{Field: "created_at", Desc: true},
			specification.Pagination{Limit: 1, Offset: 0},
		)
		if err != nil {
			return nil, err
		}

		activeId = nil
		usage := 0
		if len(remaining) > 0 {
			activeId = &remaining[0].Id
			count, err := uow.ChatMessageRepository().Count(ctx,
				specification.ByChatSessionID{ChatSessionID: remaining[0].Id},
			)
			if err != nil {
				return nil, err
			}
			usage = int(count)
		}

		if err := uow.UserRepository().UpdateActiveSession(ctx, userId, activeId); err != nil {
			return nil, err
		}
		if err := uow.UserRepository().UpdateMessageUsage(ctx, userId, usage); err != nil {
			return nil, err
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	cs.toolModes.Clear(sess.Id.String())
	cs.publishSessionDeleted(ctx, userId, sess.Id)

	return &dto.DeleteSessionResponse{ActiveSessionId: activeId}, nil
}

// ClearSession wipes a session's turns but keeps the session itself.
func (cs *chatService) ClearSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	sess, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return err
	}
	if sess == nil {
		return fmt.Errorf("session not found or access denied")
	}

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return err
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ChatMessageRepository().DeleteByChatSessionId(ctx, sessionId); err != nil {
		return err
	}

	sess.Title = constant.DefaultSessionTitle
	if err := uow.ChatSessionRepository().Update(ctx, sess); err != nil {
		return err
	}

	if user != nil && user.ActiveSessionId != nil && *user.ActiveSessionId == sessionId {
		if err := uow.UserRepository().UpdateMessageUsage(ctx, userId, 0); err != nil {
			return err
		}
	}

	return uow.Commit()
}

// loadHistory converts the session's stored turns into provider messages.
// Error turns are skipped so a failed exchange never pollutes context.
func (cs *chatService) loadHistory(ctx context.Context, uow unitofwork.UnitOfWork, sessionId uuid.UUID) ([]llm.Message, error) {
	stored, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	history := make([]llm.Message, 0, len(stored))
	for _, msg := range stored {
		if msg.IsError {
			continue
		}
		role := llm.RoleUser
		if msg.Role == constant.ChatRoleAssistant {
			role = llm.RoleAssistant
		}
		history = append(history, llm.Message{Role: role, Content: msg.Chat})
	}
	return history, nil
}

func (cs *chatService) publishTurn(ctx context.Context, userId uuid.UUID, msg *entity.ChatMessage) {
	payload := dto.PublishSessionEventMessage{
		UserId:    userId,
		Type:      "turn_persisted",
		SessionId: &msg.ChatSessionId,
		TurnId:    &msg.Id,
		Role:      msg.Role,
		IsError:   msg.IsError,
	}
	raw, err := json.Marshal(payload)
	if err == nil && cs.publisherService != nil {
		if err := cs.publisherService.Publish(ctx, raw); err != nil {
			cs.logger.Warn("ChatService", "Failed to publish turn event", map[string]interface{}{"error": err})
		}
	}

	if cs.eventPublisher != nil {
		evt := events.NewTurnPersistedEvent(userId, msg.ChatSessionId, msg.Id, msg.Role, msg.IsError)
		if err := cs.eventPublisher.Publish(ctx, evt); err != nil {
			cs.logger.Warn("ChatService", "Failed to publish TURN_PERSISTED", map[string]interface{}{"error": err})
		}
	}
}

func (cs *chatService) publishSessionDeleted(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) {
	payload := dto.PublishSessionEventMessage{
		UserId:    userId,
		Type:      "session_deleted",
		SessionId: &sessionId,
	}
	raw, err := json.Marshal(payload)
	if err == nil && cs.publisherService != nil {
		if err := cs.publisherService.Publish(ctx, raw); err != nil {
			cs.logger.Warn("ChatService", "Failed to publish delete event", map[string]interface{}{"error": err})
		}
	}
}

// deriveTitle builds the session title from the first user turn.
func deriveTitle(text string) string {
	if text == "" {
		return constant.DefaultSessionTitle
	}
	runes := []rune(text)
	if len(runes) <= constant.TitleMaxLength {
		return text
	}
	return string(runes[:constant.TitleMaxLength]) + constant.TitleEllipsis
}

func decodeAttachments(in []dto.AttachmentDTO) ([]entity.TurnAttachment, []llm.Attachment, error) {
	if len(in) == 0 {
		return nil, nil, nil
	}
	stored := make([]entity.TurnAttachment, 0, len(in))
	outbound := make([]llm.Attachment, 0, len(in))
	for _, a := range in {
		stored = append(stored, entity.TurnAttachment{Name: a.Name, MimeType: a.MimeType})
		data, err := base64.StdEncoding.DecodeString(a.Data)
		if err != nil {
			return nil, nil, fmt.Errorf("attachment %s: invalid base64 payload", a.Name)
		}
		outbound = append(outbound, llm.Attachment{Name: a.Name, MimeType: a.MimeType, Data: data})
	}
	return stored, outbound, nil
}

func attachmentDTOs(in []entity.TurnAttachment) []dto.AttachmentDTO {
	if len(in) == 0 {
		return nil
	}
	out := make([]dto.AttachmentDTO, 0, len(in))
	for _, a := range in {
		out = append(out, dto.AttachmentDTO{Name: a.Name, MimeType: a.MimeType})
	}
	return out
}
