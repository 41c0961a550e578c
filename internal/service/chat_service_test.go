package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"arivu-ai-be/internal/constant"
	"arivu-ai-be/internal/dto"
	"arivu-ai-be/internal/entity"
	"arivu-ai-be/internal/repository/contract"
	"arivu-ai-be/internal/repository/memory"
	"arivu-ai-be/internal/repository/specification"
	"arivu-ai-be/internal/repository/unitofwork"
	"arivu-ai-be/pkg/llm"
	"arivu-ai-be/pkg/llm/keypool"
	"arivu-ai-be/pkg/quota"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- in-memory fakes ---

type fakeStore struct {
	users    map[uuid.UUID]*entity.User
	tiers    map[uuid.UUID]*entity.UserTier // keyed by user id
	sessions []*entity.ChatSession
	messages []*entity.ChatMessage
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users: make(map[uuid.UUID]*entity.User),
		tiers: make(map[uuid.UUID]*entity.UserTier),
	}
}

type fakeUow struct {
	store *fakeStore
}

func (u *fakeUow) Begin(ctx context.Context) error { return nil }
func (u *fakeUow) Commit() error                   { return nil }
func (u *fakeUow) Rollback() error                 { return nil }

func (u *fakeUow) UserRepository() contract.UserRepository {
	return &fakeUserRepo{store: u.store}
}
func (u *fakeUow) ChatSessionRepository() contract.ChatSessionRepository {
	return &fakeSessionRepo{store: u.store}
}
func (u *fakeUow) ChatMessageRepository() contract.ChatMessageRepository {
	return &fakeMessageRepo{store: u.store}
}
func (u *fakeUow) TierRepository() contract.TierRepository {
	return &fakeTierRepo{store: u.store}
}
func (u *fakeUow) PaymentRepository() contract.PaymentRepository { return nil }

type fakeFactory struct {
	store *fakeStore
}

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &fakeUow{store: f.store}
}

type fakeUserRepo struct {
	store *fakeStore
}

func (r *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.store.users[user.Id] = user
	return nil
}
func (r *fakeUserRepo) Update(ctx context.Context, user *entity.User) error {
	r.store.users[user.Id] = user
	return nil
}
func (r *fakeUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.store.users, id)
	return nil
}
func (r *fakeUserRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	for _, s := range specs {
		if byID, ok := s.(specification.ByID); ok {
			if u, found := r.store.users[byID.ID]; found {
				return u, nil
			}
		}
	}
	return nil, nil
}
func (r *fakeUserRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.User, error) {
	return nil, nil
}
func (r *fakeUserRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.store.users)), nil
}
func (r *fakeUserRepo) UpdateActiveSession(ctx context.Context, userId uuid.UUID, sessionId *uuid.UUID) error {
	if u, ok := r.store.users[userId]; ok {
		u.ActiveSessionId = sessionId
	}
	return nil
}
func (r *fakeUserRepo) UpdateMessageUsage(ctx context.Context, userId uuid.UUID, usage int) error {
	if u, ok := r.store.users[userId]; ok {
		u.MessageUsage = usage
	}
	return nil
}
func (r *fakeUserRepo) UpdateAvatar(ctx context.Context, userId uuid.UUID, avatarURL string) error {
	return nil
}
func (r *fakeUserRepo) SaveUserProvider(ctx context.Context, provider *entity.UserProvider) error {
	return nil
}
func (r *fakeUserRepo) FindUserProvider(ctx context.Context, specs ...specification.Specification) (*entity.UserProvider, error) {
	return nil, nil
}
func (r *fakeUserRepo) CreateRefreshToken(ctx context.Context, token *entity.UserRefreshToken) error {
	return nil
}
func (r *fakeUserRepo) FindRefreshToken(ctx context.Context, specs ...specification.Specification) (*entity.UserRefreshToken, error) {
	return nil, nil
}
func (r *fakeUserRepo) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	return nil
}

type fakeSessionRepo struct {
	store *fakeStore
}

func matchSession(s *entity.ChatSession, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch v := spec.(type) {
		case specification.ByID:
			if s.Id != v.ID {
				return false
			}
		case specification.UserOwnedBy:
			if s.UserId != v.UserID {
				return false
			}
		}
	}
	return true
}

func (r *fakeSessionRepo) Create(ctx context.Context, session *entity.ChatSession) error {
	copied := *session
	r.store.sessions = append(r.store.sessions, &copied)
	return nil
}
func (r *fakeSessionRepo) Update(ctx context.Context, session *entity.ChatSession) error {
	for i, s := range r.store.sessions {
		if s.Id == session.Id {
			copied := *session
			r.store.sessions[i] = &copied
		}
	}
	return nil
}
func (r *fakeSessionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	kept := r.store.sessions[:0]
	for _, s := range r.store.sessions {
		if s.Id != id {
			kept = append(kept, s)
		}
	}
	r.store.sessions = kept
	return nil
}
func (r *fakeSessionRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error) {
	for _, s := range r.store.sessions {
		if matchSession(s, specs) {
			copied := *s
			return &copied, nil
		}
	}
	return nil, nil
}
func (r *fakeSessionRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error) {
	var out []*entity.ChatSession
	for _, s := range r.store.sessions {
		if matchSession(s, specs) {
			out = append(out, s)
		}
	}
	for _, spec := range specs {
		if order, ok := spec.(specification.OrderBy); ok && order.Desc {
			// newest first; the store appends in creation order
			for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	for _, spec := range specs {
		if page, ok := spec.(specification.Pagination); ok && page.Limit > 0 && len(out) > page.Limit {
			out = out[:page.Limit]
		}
	}
	return out, nil
}
func (r *fakeSessionRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, _ := r.FindAll(ctx, specs...)
	return int64(len(all)), nil
}

type fakeMessageRepo struct {
	store *fakeStore
}

func matchMessage(m *entity.ChatMessage, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch v := spec.(type) {
		case specification.ByID:
			if m.Id != v.ID {
				return false
			}
		case specification.ByChatSessionID:
			if m.ChatSessionId != v.ChatSessionID {
				return false
			}
		}
	}
	return true
}

func (r *fakeMessageRepo) Create(ctx context.Context, message *entity.ChatMessage) error {
	copied := *message
	r.store.messages = append(r.store.messages, &copied)
	return nil
}
func (r *fakeMessageRepo) Delete(ctx context.Context, id uuid.UUID) error {
	kept := r.store.messages[:0]
	for _, m := range r.store.messages {
		if m.Id != id {
			kept = append(kept, m)
		}
	}
	r.store.messages = kept
	return nil
}
func (r *fakeMessageRepo) DeleteByChatSessionId(ctx context.Context, sessionId uuid.UUID) error {
	kept := r.store.messages[:0]
	for _, m := range r.store.messages {
		if m.ChatSessionId != sessionId {
			kept = append(kept, m)
		}
	}
	r.store.messages = kept
	return nil
}
func (r *fakeMessageRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatMessage, error) {
	for _, m := range r.store.messages {
		if matchMessage(m, specs) {
			copied := *m
			return &copied, nil
		}
	}
	return nil, nil
}
func (r *fakeMessageRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error) {
	var out []*entity.ChatMessage
	for _, m := range r.store.messages {
		if matchMessage(m, specs) {
			out = append(out, m)
		}
	}
	return out, nil
}
func (r *fakeMessageRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, _ := r.FindAll(ctx, specs...)
	return int64(len(all)), nil
}

type fakeTierRepo struct {
	store *fakeStore
}

func (r *fakeTierRepo) Create(ctx context.Context, tier *entity.UserTier) error {
	r.store.tiers[tier.UserId] = tier
	return nil
}
func (r *fakeTierRepo) Update(ctx context.Context, tier *entity.UserTier) error {
	r.store.tiers[tier.UserId] = tier
	return nil
}
func (r *fakeTierRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.UserTier, error) {
	for _, s := range specs {
		if owned, ok := s.(specification.UserOwnedBy); ok {
			if t, found := r.store.tiers[owned.UserID]; found {
				return t, nil
			}
		}
	}
	return nil, nil
}

type scriptedProvider struct {
	reply     string
	err       error
	prompts   []string
	histories [][]llm.Message
}

func (p *scriptedProvider) ChatMultimodal(ctx context.Context, history []llm.Message, prompt string, attachments []llm.Attachment, options ...llm.Option) (string, error) {
	p.prompts = append(p.prompts, prompt)
	p.histories = append(p.histories, history)
	if p.err != nil {
		return "", p.err
	}
	return p.reply, nil
}
func (p *scriptedProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return p.ChatMultimodal(ctx, history, "", nil)
}
func (p *scriptedProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.ChatMultimodal(ctx, nil, prompt, nil)
}

type capturingPublisher struct {
	payloads [][]byte
}

func (p *capturingPublisher) Publish(ctx context.Context, payload []byte) error {
	p.payloads = append(p.payloads, payload)
	return nil
}

type noopLogger struct{}

func (noopLogger) Debug(module, message string, details map[string]interface{}) {}
func (noopLogger) Info(module, message string, details map[string]interface{})  {}
func (noopLogger) Warn(module, message string, details map[string]interface{})  {}
func (noopLogger) Error(module, message string, details map[string]interface{}) {}
func (noopLogger) Sync() error                                                  { return nil }

type chatTestEnv struct {
	store     *fakeStore
	provider  *scriptedProvider
	publisher *capturingPublisher
	toolModes *memory.ToolModeRepository
	service   IChatService
	userId    uuid.UUID
}

func newChatTestEnv(t *testing.T) *chatTestEnv {
	t.Helper()

	store := newFakeStore()
	provider := &scriptedProvider{reply: "assistant reply"}
	publisher := &capturingPublisher{}
	toolModes := memory.NewToolModeRepository()

	gateway := llm.NewGateway(keypool.New([]string{"test-key"}), func(apiKey string) llm.LLMProvider {
		return provider
	})

	userId := uuid.New()
	store.users[userId] = &entity.User{Id: userId, Email: "dev@example.com"}

	svc := NewChatService(&fakeFactory{store: store}, gateway, toolModes, publisher, nil, noopLogger{})

	return &chatTestEnv{
		store:     store,
		provider:  provider,
		publisher: publisher,
		toolModes: toolModes,
		service:   svc,
		userId:    userId,
	}
}

func (e *chatTestEnv) addSession(title string, createdAt time.Time) uuid.UUID {
	id := uuid.New()
	e.store.sessions = append(e.store.sessions, &entity.ChatSession{
		Id:        id,
		UserId:    e.userId,
		Title:     title,
		CreatedAt: createdAt,
	})
	return id
}

func (e *chatTestEnv) addTurn(sessionId uuid.UUID, role, text string, isError bool) {
	e.store.messages = append(e.store.messages, &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: sessionId,
		Role:          role,
		Chat:          text,
		IsError:       isError,
		CreatedAt:     time.Now(),
	})
}

// --- tests ---

func TestCreateSessionStartsEmptyAndActive(t *testing.T) {
	env := newChatTestEnv(t)

	res, err := env.service.CreateSession(context.Background(), env.userId)
	require.NoError(t, err)

	assert.Equal(t, constant.DefaultSessionTitle, res.Title)
	require.Len(t, env.store.sessions, 1)
	assert.Empty(t, env.store.messages)

	user := env.store.users[env.userId]
	require.NotNil(t, user.ActiveSessionId)
	assert.Equal(t, res.Id, *user.ActiveSessionId)
	assert.Equal(t, 0, user.MessageUsage)
}

func TestCreateSessionDeniedAtFreeLimit(t *testing.T) {
	env := newChatTestEnv(t)
	for i := 0; i < quota.FreeMaxSessions; i++ {
		env.addSession("old", time.Now().Add(-time.Duration(i)*time.Hour))
	}

	_, err := env.service.CreateSession(context.Background(), env.userId)

	var denied *quota.DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, quota.FreeMaxSessions, denied.Limit)
	assert.Len(t, env.store.sessions, quota.FreeMaxSessions)
}

func TestCreateSessionProHasNoLimit(t *testing.T) {
	env := newChatTestEnv(t)
	env.store.tiers[env.userId] = &entity.UserTier{UserId: env.userId, Kind: quota.TierPro}
	for i := 0; i < quota.FreeMaxSessions+3; i++ {
		env.addSession("old", time.Now())
	}

	_, err := env.service.CreateSession(context.Background(), env.userId)
	assert.NoError(t, err)
}

func TestSendChatDeniedLeavesNoTurns(t *testing.T) {
	env := newChatTestEnv(t)
	sessionId := env.addSession("busy chat", time.Now())
	for i := 0; i < quota.FreeMaxTurnsPerSession; i++ {
		role := constant.ChatRoleUser
		if i%2 == 1 {
			role = constant.ChatRoleAssistant
		}
		env.addTurn(sessionId, role, "turn", false)
	}

	_, err := env.service.SendChat(context.Background(), env.userId, &dto.SendChatRequest{
		ChatSessionId: sessionId,
		Chat:          "one more",
	})

	var denied *quota.DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Len(t, env.store.messages, quota.FreeMaxTurnsPerSession)
	assert.Empty(t, env.provider.prompts, "provider must not be called on denial")
}

func TestSendChatPersistsBothTurns(t *testing.T) {
	env := newChatTestEnv(t)
	sessionId := env.addSession(constant.DefaultSessionTitle, time.Now())

	res, err := env.service.SendChat(context.Background(), env.userId, &dto.SendChatRequest{
		ChatSessionId: sessionId,
		Chat:          "hello world",
	})
	require.NoError(t, err)

	require.Len(t, env.store.messages, 2)
	assert.Equal(t, constant.ChatRoleUser, env.store.messages[0].Role)
	assert.Equal(t, constant.ChatRoleAssistant, env.store.messages[1].Role)
	assert.Equal(t, "assistant reply", res.Reply.Chat)
	assert.False(t, res.Reply.IsError)
	assert.Equal(t, 2, res.MessageUsage)
	assert.Equal(t, 2, env.store.users[env.userId].MessageUsage)

	// title derived from the first user turn
	assert.Equal(t, "hello world", res.ChatSessionTitle)
	assert.Equal(t, "hello world", env.store.sessions[0].Title)

	// one event per persisted turn
	assert.Len(t, env.publisher.payloads, 2)
}

func TestSendChatTitleTruncation(t *testing.T) {
	env := newChatTestEnv(t)
	sessionId := env.addSession(constant.DefaultSessionTitle, time.Now())

	long := strings.Repeat("a", 45)
	res, err := env.service.SendChat(context.Background(), env.userId, &dto.SendChatRequest{
		ChatSessionId: sessionId,
		Chat:          long,
	})
	require.NoError(t, err)

	want := strings.Repeat("a", constant.TitleMaxLength) + constant.TitleEllipsis
	assert.Equal(t, want, res.ChatSessionTitle)
}

func TestSendChatKeepsTitleAfterFirstTurn(t *testing.T) {
	env := newChatTestEnv(t)
	sessionId := env.addSession("existing title", time.Now())
	env.addTurn(sessionId, constant.ChatRoleUser, "earlier", false)
	env.addTurn(sessionId, constant.ChatRoleAssistant, "earlier reply", false)

	res, err := env.service.SendChat(context.Background(), env.userId, &dto.SendChatRequest{
		ChatSessionId: sessionId,
		Chat:          "second question",
	})
	require.NoError(t, err)
	assert.Equal(t, "existing title", res.ChatSessionTitle)
}

func TestSendChatProviderFailureKeepsUserTurn(t *testing.T) {
	env := newChatTestEnv(t)
	env.provider.err = errors.New("model refused to answer")
	sessionId := env.addSession(constant.DefaultSessionTitle, time.Now())

	res, err := env.service.SendChat(context.Background(), env.userId, &dto.SendChatRequest{
		ChatSessionId: sessionId,
		Chat:          "hello",
	})
	require.NoError(t, err, "a provider failure is not a request failure")

	require.Len(t, env.store.messages, 2)
	assert.False(t, env.store.messages[0].IsError)
	assert.True(t, env.store.messages[1].IsError)
	assert.True(t, res.Reply.IsError)
	assert.Contains(t, res.Reply.Chat, "model refused")
}

func TestSendChatSkipsErrorTurnsInHistory(t *testing.T) {
	env := newChatTestEnv(t)
	sessionId := env.addSession("chat", time.Now())
	env.addTurn(sessionId, constant.ChatRoleUser, "first", false)
	env.addTurn(sessionId, constant.ChatRoleAssistant, "API quota exceeded.", true)

	_, err := env.service.SendChat(context.Background(), env.userId, &dto.SendChatRequest{
		ChatSessionId: sessionId,
		Chat:          "retry please",
	})
	require.NoError(t, err)

	require.Len(t, env.provider.histories, 1)
	for _, m := range env.provider.histories[0] {
		assert.NotEqual(t, "API quota exceeded.", m.Content)
	}
}

func TestSendChatArmedToolModeConsumedOnce(t *testing.T) {
	env := newChatTestEnv(t)
	sessionId := env.addSession("chat", time.Now())

	err := env.service.SetToolMode(context.Background(), env.userId, &dto.SetToolModeRequest{
		ChatSessionId: sessionId,
		ToolMode:      "web-search",
	})
	require.NoError(t, err)

	_, err = env.service.SendChat(context.Background(), env.userId, &dto.SendChatRequest{
		ChatSessionId: sessionId,
		Chat:          "latest release",
	})
	require.NoError(t, err)
	require.Len(t, env.provider.prompts, 1)
	assert.True(t, strings.HasPrefix(env.provider.prompts[0], "Search the web"))

	// armed selection applies to one exchange only
	_, err = env.service.SendChat(context.Background(), env.userId, &dto.SendChatRequest{
		ChatSessionId: sessionId,
		Chat:          "and now plainly",
	})
	require.NoError(t, err)
	require.Len(t, env.provider.prompts, 2)
	assert.Equal(t, "and now plainly", env.provider.prompts[1])
}

func TestSendChatStructuredModeBeatsArmed(t *testing.T) {
	env := newChatTestEnv(t)
	sessionId := env.addSession("chat", time.Now())

	require.NoError(t, env.service.SetToolMode(context.Background(), env.userId, &dto.SetToolModeRequest{
		ChatSessionId: sessionId,
		ToolMode:      "web-search",
	}))

	_, err := env.service.SendChat(context.Background(), env.userId, &dto.SendChatRequest{
		ChatSessionId: sessionId,
		Chat:          "teach me recursion",
		ToolMode:      "study-mode",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(env.provider.prompts[0], "Explain in educational detail"))

	// the explicit mode also discards the armed one
	_, ok := env.toolModes.Peek(sessionId.String())
	assert.False(t, ok)
}

func TestSendChatUnknownSessionRejected(t *testing.T) {
	env := newChatTestEnv(t)

	_, err := env.service.SendChat(context.Background(), env.userId, &dto.SendChatRequest{
		ChatSessionId: uuid.New(),
		Chat:          "hi",
	})
	assert.Error(t, err)
	assert.Empty(t, env.store.messages)
}

func TestDeleteActiveSessionRepoints(t *testing.T) {
	env := newChatTestEnv(t)
	older := env.addSession("older", time.Now().Add(-time.Hour))
	newer := env.addSession("newer", time.Now())
	env.addTurn(older, constant.ChatRoleUser, "kept", false)

	user := env.store.users[env.userId]
	user.ActiveSessionId = &newer

	res, err := env.service.DeleteSession(context.Background(), env.userId, &dto.DeleteSessionRequest{
		ChatSessionId: newer,
	})
	require.NoError(t, err)

	require.NotNil(t, res.ActiveSessionId)
	assert.Equal(t, older, *res.ActiveSessionId)
	assert.Equal(t, older, *user.ActiveSessionId)
	assert.Equal(t, 1, user.MessageUsage)
	assert.Len(t, env.store.sessions, 1)
}

func TestDeleteLastSessionClearsActive(t *testing.T) {
	env := newChatTestEnv(t)
	only := env.addSession("only", time.Now())
	env.addTurn(only, constant.ChatRoleUser, "gone", false)

	user := env.store.users[env.userId]
	user.ActiveSessionId = &only

	res, err := env.service.DeleteSession(context.Background(), env.userId, &dto.DeleteSessionRequest{
		ChatSessionId: only,
	})
	require.NoError(t, err)

	assert.Nil(t, res.ActiveSessionId)
	assert.Nil(t, user.ActiveSessionId)
	assert.Equal(t, 0, user.MessageUsage)
	assert.Empty(t, env.store.messages)
}

func TestDeleteInactiveSessionKeepsPointer(t *testing.T) {
	env := newChatTestEnv(t)
	active := env.addSession("active", time.Now())
	other := env.addSession("other", time.Now().Add(-time.Hour))

	user := env.store.users[env.userId]
	user.ActiveSessionId = &active

	res, err := env.service.DeleteSession(context.Background(), env.userId, &dto.DeleteSessionRequest{
		ChatSessionId: other,
	})
	require.NoError(t, err)
	require.NotNil(t, res.ActiveSessionId)
	assert.Equal(t, active, *res.ActiveSessionId)
}

func TestClearSessionResetsTitleAndUsage(t *testing.T) {
	env := newChatTestEnv(t)
	sessionId := env.addSession("a long conversation", time.Now())
	env.addTurn(sessionId, constant.ChatRoleUser, "q", false)
	env.addTurn(sessionId, constant.ChatRoleAssistant, "a", false)

	user := env.store.users[env.userId]
	user.ActiveSessionId = &sessionId
	user.MessageUsage = 2

	err := env.service.ClearSession(context.Background(), env.userId, sessionId)
	require.NoError(t, err)

	assert.Empty(t, env.store.messages)
	assert.Equal(t, constant.DefaultSessionTitle, env.store.sessions[0].Title)
	assert.Equal(t, 0, user.MessageUsage)
}

func TestGetAllSessionsMarksActive(t *testing.T) {
	env := newChatTestEnv(t)
	first := env.addSession("first", time.Now().Add(-time.Hour))
	second := env.addSession("second", time.Now())

	user := env.store.users[env.userId]
	user.ActiveSessionId = &second

	res, err := env.service.GetAllSessions(context.Background(), env.userId)
	require.NoError(t, err)
	require.Len(t, res, 2)

	for _, s := range res {
		if s.Id == second {
			assert.True(t, s.IsActive)
		}
		if s.Id == first {
			assert.False(t, s.IsActive)
		}
	}
}

func TestSetToolModeRejectsUnknownMode(t *testing.T) {
	env := newChatTestEnv(t)
	sessionId := env.addSession("chat", time.Now())

	err := env.service.SetToolMode(context.Background(), env.userId, &dto.SetToolModeRequest{
		ChatSessionId: sessionId,
		ToolMode:      "turbo",
	})
	assert.Error(t, err)
}
