package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lawconnect/internal/models"
	"lawconnect/internal/repository"
	"lawconnect/internal/storage"
	"lawconnect/pkg/logger"
)

type emitted struct {
	target  string // 使用者 ID 或房間鍵
	except  string
	event   string
	payload any
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []emitted
	onEmit func()
}

func (e *recordingEmitter) EmitToUser(userID, event string, payload any) {
	e.record(emitted{target: userID, event: event, payload: payload})
}

func (e *recordingEmitter) EmitToRoom(room, event string, payload any, exceptConnID string) {
	e.record(emitted{target: room, except: exceptConnID, event: event, payload: payload})
}

func (e *recordingEmitter) record(ev emitted) {
	if e.onEmit != nil {
		e.onEmit()
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
}

func (e *recordingEmitter) all() []emitted {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]emitted(nil), e.events...)
}

type failingChatRepository struct {
	repository.ChatRepository
	err error
}

func (f failingChatRepository) AppendMessage(context.Context, *models.ChatMessage) error {
	return f.err
}

type stubUserRepository struct {
	users []models.User
	err   error
}

func (s stubUserRepository) Upsert(context.Context, *models.User) error { return s.err }

func (s stubUserRepository) FindByExternalID(_ context.Context, id string) (*models.User, error) {
	for i := range s.users {
		if s.users[i].ExternalID == id {
			return &s.users[i], nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s stubUserRepository) FindByExternalIDs(_ context.Context, ids []string) ([]models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []models.User
	for _, id := range ids {
		if u, err := s.FindByExternalID(context.Background(), id); err == nil {
			out = append(out, *u)
		}
	}
	return out, nil
}

var (
	userA = models.Identity{ID: "u1", Username: "alice", ImageURL: "https://img/alice"}
	userB = models.Identity{ID: "u2", Username: "bob"}
)

func newTestChatService(repo repository.ChatRepository, users repository.UserRepository, emitter Emitter) *ChatService {
	s := NewChatService(repo, users, emitter, logger.Discard())
	s.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }
	return s
}

func TestChatService_SendMessage(t *testing.T) {
	repo := repository.NewMemoryChatRepository()
	emitter := &recordingEmitter{}
	s := newTestChatService(repo, nil, emitter)
	ctx := context.Background()

	msg, err := s.SendMessage(ctx, userA, ChatMessageInput{ChatRoomID: "r1", ToUserID: "u2", Content: "hello", Type: "TEXT"})
	require.NoError(t, err)

	stored, err := repo.FindMessages(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "u1", stored[0].UserID)
	assert.Equal(t, "hello", stored[0].Content)
	assert.Equal(t, msg.ID, stored[0].ID)

	events := emitter.all()
	require.Len(t, events, 1)
	assert.Equal(t, "u2", events[0].target)
	assert.Equal(t, EventChatMessage, events[0].event)

	payload := events[0].payload.(ChatMessagePayload)
	assert.Equal(t, "hello", payload.Content)
	assert.Equal(t, "r1", payload.ChatRoomID)
	assert.Equal(t, SenderPayload{ID: "u1", Username: "alice", Avatar: "https://img/alice"}, payload.From)
}

func TestChatService_SendMessageDefaultsToText(t *testing.T) {
	repo := repository.NewMemoryChatRepository()
	s := newTestChatService(repo, nil, &recordingEmitter{})

	msg, err := s.SendMessage(context.Background(), userA, ChatMessageInput{ChatRoomID: "r1", ToUserID: "u2", Content: "hi"})
	require.NoError(t, err)
	assert.Equal(t, models.MessageTypeText, msg.Type)
}

func TestChatService_SendMessageValidation(t *testing.T) {
	tests := []struct {
		name string
		in   ChatMessageInput
	}{
		{name: "missing room", in: ChatMessageInput{ToUserID: "u2", Content: "x"}},
		{name: "missing recipient", in: ChatMessageInput{ChatRoomID: "r1", Content: "x"}},
		{name: "empty content", in: ChatMessageInput{ChatRoomID: "r1", ToUserID: "u2"}},
		{name: "unknown type", in: ChatMessageInput{ChatRoomID: "r1", ToUserID: "u2", Content: "x", Type: "PDF"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := repository.NewMemoryChatRepository()
			emitter := &recordingEmitter{}
			s := newTestChatService(repo, nil, emitter)

			_, err := s.SendMessage(context.Background(), userA, tt.in)
			assert.ErrorIs(t, err, ErrInvalidPayload)
			assert.Empty(t, emitter.all())

			stored, _ := repo.FindMessages(context.Background(), "r1")
			assert.Empty(t, stored)
		})
	}
}

func TestChatService_PersistenceFailureEmitsNothing(t *testing.T) {
	dbErr := errors.New("write concern timeout")
	emitter := &recordingEmitter{}
	s := newTestChatService(failingChatRepository{err: dbErr}, nil, emitter)

	_, err := s.SendMessage(context.Background(), userA, ChatMessageInput{ChatRoomID: "r1", ToUserID: "u2", Content: "lost"})
	assert.ErrorIs(t, err, dbErr)
	assert.NotErrorIs(t, err, ErrInvalidPayload)
	assert.Empty(t, emitter.all())
}

func TestChatService_PersistsBeforeEmit(t *testing.T) {
	repo := repository.NewMemoryChatRepository()
	emitter := &recordingEmitter{}
	var visibleAtEmit int
	emitter.onEmit = func() {
		stored, _ := repo.FindMessages(context.Background(), "r1")
		visibleAtEmit = len(stored)
	}
	s := newTestChatService(repo, nil, emitter)

	_, err := s.SendMessage(context.Background(), userA, ChatMessageInput{ChatRoomID: "r1", ToUserID: "u2", Content: "hello"})
	require.NoError(t, err)
	assert.Equal(t, 1, visibleAtEmit)
}

func TestChatService_Typing(t *testing.T) {
	emitter := &recordingEmitter{}
	s := newTestChatService(repository.NewMemoryChatRepository(), nil, emitter)

	require.NoError(t, s.Typing(userA, "conn-a", RoomInput{ChatRoomID: "r1"}, true))
	require.NoError(t, s.Typing(userA, "conn-a", RoomInput{ChatRoomID: "r1"}, false))
	assert.ErrorIs(t, s.Typing(userA, "conn-a", RoomInput{}, true), ErrInvalidPayload)

	events := emitter.all()
	require.Len(t, events, 2)
	assert.Equal(t, EventTypingIs, events[0].event)
	assert.Equal(t, EventTypingStopped, events[1].event)
	for _, ev := range events {
		assert.Equal(t, ChatRoom("r1"), ev.target)
		assert.Equal(t, "conn-a", ev.except)
		assert.Equal(t, TypingPayload{ChatRoomID: "r1", User: ToSenderPayload(userA)}, ev.payload)
	}
}

func TestChatService_History(t *testing.T) {
	repo := repository.NewMemoryChatRepository()
	users := stubUserRepository{users: []models.User{{ExternalID: "u1", Username: "alice", ImageURL: "https://img/alice"}}}
	s := newTestChatService(repo, users, &recordingEmitter{})
	ctx := context.Background()

	_, err := s.SendMessage(ctx, userA, ChatMessageInput{ChatRoomID: "r1", ToUserID: "u2", Content: "first"})
	require.NoError(t, err)
	_, err = s.SendMessage(ctx, userB, ChatMessageInput{ChatRoomID: "r1", ToUserID: "u1", Content: "second", Type: "image"})
	require.NoError(t, err)

	history, err := s.History(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, history, 2)

	assert.Equal(t, "first", history[0].Content)
	assert.Equal(t, "alice", history[0].From.Username)
	assert.Equal(t, "https://img/alice", history[0].From.Avatar)

	assert.Equal(t, "second", history[1].Content)
	assert.Equal(t, models.MessageTypeImage, history[1].Type)
	assert.Equal(t, SenderPayload{ID: "u2"}, history[1].From)
}

func TestChatService_HistorySenderLookupFailure(t *testing.T) {
	repo := repository.NewMemoryChatRepository()
	s := newTestChatService(repo, stubUserRepository{err: errors.New("db down")}, &recordingEmitter{})
	ctx := context.Background()

	_, err := s.SendMessage(ctx, userA, ChatMessageInput{ChatRoomID: "r1", ToUserID: "u2", Content: "hi"})
	require.NoError(t, err)

	history, err := s.History(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "u1", history[0].From.ID)
}

func TestChatService_ClearHistory(t *testing.T) {
	repo := repository.NewMemoryChatRepository()
	s := newTestChatService(repo, nil, &recordingEmitter{})
	ctx := context.Background()

	for _, room := range []string{"r1", "r1", "r2"} {
		_, err := s.SendMessage(ctx, userA, ChatMessageInput{ChatRoomID: room, ToUserID: "u2", Content: "x"})
		require.NoError(t, err)
	}

	n, err := s.ClearHistory(ctx, "r1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	h1, _ := s.History(ctx, "r1")
	h2, _ := s.History(ctx, "r2")
	assert.Empty(t, h1)
	assert.Len(t, h2, 1)
}

func TestChatService_CreatedAtMatchesHistory(t *testing.T) {
	db, err := storage.NewMemoryDatabase()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.AutoMigrate(&models.ChatRoom{}, &models.ChatMessage{}))

	emitter := &recordingEmitter{}
	// 使用預設時鐘
	s := NewChatService(repository.NewChatRepository(db), nil, emitter, logger.Discard())
	ctx := context.Background()

	_, err = s.SendMessage(ctx, userA, ChatMessageInput{ChatRoomID: "r1", ToUserID: "u2", Content: "hello"})
	require.NoError(t, err)

	events := emitter.all()
	require.Len(t, events, 1)
	live := events[0].payload.(ChatMessagePayload)
	assert.Zero(t, live.CreatedAt.Nanosecond()%int(time.Millisecond))

	history, err := s.History(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, live.CreatedAt.Equal(history[0].CreatedAt), "live %s, stored %s", live.CreatedAt, history[0].CreatedAt)
}
