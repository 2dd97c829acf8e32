package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"journeybot/internal/cache"
	"journeybot/internal/config"
	"journeybot/internal/model"
)

type fakeCatalogRepo struct {
	modules []*model.Module
}

func (f *fakeCatalogRepo) Create(ctx context.Context, module *model.Module) (string, error) {
	f.modules = append(f.modules, module)
	return module.ID, nil
}

func (f *fakeCatalogRepo) GetByID(ctx context.Context, id string) (*model.Module, error) {
	for _, m := range f.modules {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, nil
}

func (f *fakeCatalogRepo) GetForAge(ctx context.Context, ageInMonths int) ([]*model.Module, error) {
	var out []*model.Module
	for _, m := range f.modules {
		if m.MinMonths <= ageInMonths {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeCatalogRepo) List(ctx context.Context) ([]*model.Module, error) {
	return f.modules, nil
}

func (f *fakeCatalogRepo) Update(ctx context.Context, module *model.Module) error { return nil }
func (f *fakeCatalogRepo) Delete(ctx context.Context, id string) error            { return nil }

type fakeChildRepo struct {
	children map[string]*model.Child
}

func (f *fakeChildRepo) Create(ctx context.Context, child *model.Child) (string, error) {
	if child.ID == "" {
		child.ID = "child1"
	}
	f.children[child.ID] = child
	return child.ID, nil
}

func (f *fakeChildRepo) GetByID(ctx context.Context, id string) (*model.Child, error) {
	return f.children[id], nil
}

type fakeConvCache struct {
	mu          sync.Mutex
	snapshots   map[string]*model.ConversationSnapshot
	transcripts map[string][]model.ChatMessage
	active      map[string]bool
}

func newFakeConvCache() *fakeConvCache {
	return &fakeConvCache{
		snapshots:   make(map[string]*model.ConversationSnapshot),
		transcripts: make(map[string][]model.ChatMessage),
		active:      make(map[string]bool),
	}
}

func (f *fakeConvCache) SetSnapshot(ctx context.Context, conversationID string, snap *model.ConversationSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots[conversationID] = snap
	return nil
}

func (f *fakeConvCache) GetSnapshot(ctx context.Context, conversationID string) (*model.ConversationSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshots[conversationID], nil
}

func (f *fakeConvCache) AppendMessage(ctx context.Context, conversationID string, msg *model.ChatMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transcripts[conversationID] = append(f.transcripts[conversationID], *msg)
	return nil
}

func (f *fakeConvCache) GetTranscript(ctx context.Context, conversationID string) ([]model.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.ChatMessage(nil), f.transcripts[conversationID]...), nil
}

func (f *fakeConvCache) MarkActive(ctx context.Context, conversationID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.active[conversationID] {
		return false, nil
	}
	f.active[conversationID] = true
	return true, nil
}

func (f *fakeConvCache) ClearActive(ctx context.Context, conversationID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.active, conversationID)
	return nil
}

func (f *fakeConvCache) ClearConversation(ctx context.Context, conversationID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.snapshots, conversationID)
	delete(f.transcripts, conversationID)
	return nil
}

func (f *fakeConvCache) transcriptLen(conversationID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.transcripts[conversationID])
}

func (f *fakeConvCache) hasSnapshot(conversationID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshots[conversationID] != nil
}

func newTestConversationService(t *testing.T, responses *fakeResponseRepo, convCache cache.ConversationCache) *ConversationService {
	t.Helper()

	cfg := &config.Config{
		JWTSecret:     "test-secret",
		AdminUsername: "admin",
		AdminPassword: "password123",
		TypingDelay:   0,
		SettleDelay:   0,
	}

	catalogRepo := &fakeCatalogRepo{}
	for _, m := range catalogModules() {
		m.AgeRangeLabel = m.ID
		for i := range m.Questions {
			m.Questions[i].Template.Options = []model.AnswerOption{
				{Value: 1, Label: "Yes"},
				{Value: 2, Label: "Not yet"},
			}
		}
		catalogRepo.modules = append(catalogRepo.modules, m)
	}

	childRepo := &fakeChildRepo{children: map[string]*model.Child{
		"child1": {
			ID:         "child1",
			Name:       "Alice",
			BirthDate:  time.Now().AddDate(0, -8, 0),
			Pronoun:    "she",
			Possessive: "her",
		},
	}}

	catalogSvc := NewCatalogService(catalogRepo, nil)
	authSvc := NewAuthService(cfg)

	return NewConversationService(cfg, catalogSvc, authSvc, childRepo, responses, newFakeSessionRepo(), convCache, NewPersonalizer())
}

func TestConversationServiceStart(t *testing.T) {
	t.Run("new caregiver gets an id, token and opening question", func(t *testing.T) {
		svc := newTestConversationService(t, &fakeResponseRepo{}, nil)

		result, err := svc.Start(context.Background(), "child1", "", "Dana")
		require.NoError(t, err)

		assert.NotEmpty(t, result.CaregiverID)
		assert.NotEmpty(t, result.Token)
		assert.Equal(t, model.StateQuestion, result.View.State)
		assert.True(t, result.View.IsWaitingForAnswer)
		assert.Contains(t, result.View.Messages[0].Text, "Dana")
	})

	t.Run("unknown child fails", func(t *testing.T) {
		svc := newTestConversationService(t, &fakeResponseRepo{}, nil)

		_, err := svc.Start(context.Background(), "ghost", "", "Dana")
		assert.Error(t, err)
	})

	t.Run("restart skips questions answered in a previous run", func(t *testing.T) {
		responses := &fakeResponseRepo{}
		responses.appended = []*model.Response{
			{ChildID: "child1", CaregiverID: "other", QuestionID: "q1", Value: 1},
			{ChildID: "child1", CaregiverID: "other", QuestionID: "q2", Value: 1},
			{ChildID: "child1", CaregiverID: "other", QuestionID: "q3", Value: 1},
		}
		svc := newTestConversationService(t, responses, nil)

		result, err := svc.Start(context.Background(), "child1", "cg1", "Dana")
		require.NoError(t, err)

		// First module fully answered elsewhere, conversation opens on the second
		assert.Equal(t, model.StateQuestion, result.View.State)
		assert.Equal(t, 1, result.View.ModuleIndex)
		assert.InDelta(t, 60.0, result.View.Progress, 0.01)
	})

	t.Run("same caregiver restarting reuses the live engine", func(t *testing.T) {
		svc := newTestConversationService(t, &fakeResponseRepo{}, nil)

		first, err := svc.Start(context.Background(), "child1", "cg1", "Dana")
		require.NoError(t, err)

		second, err := svc.Start(context.Background(), "child1", "cg1", "Dana")
		require.NoError(t, err)

		assert.Equal(t, "cg1", second.CaregiverID)
		assert.Len(t, second.View.Messages, len(first.View.Messages), "no duplicate greeting")
	})

	t.Run("reconnect restores the cached transcript without re-greeting", func(t *testing.T) {
		cc := newFakeConvCache()
		convID := ConversationID("child1", "cg1")
		cc.transcripts[convID] = []model.ChatMessage{
			{ID: "old1", Role: model.RoleBot, Text: "Hi Dana! Let's talk about Alice's development. I'll ask a few quick questions, one at a time."},
			{ID: "old2", Role: model.RoleUser, Text: "Yes"},
		}
		svc := newTestConversationService(t, &fakeResponseRepo{}, cc)

		result, err := svc.Start(context.Background(), "child1", "cg1", "Dana")
		require.NoError(t, err)

		msgs := result.View.Messages
		require.Greater(t, len(msgs), 2)
		assert.Equal(t, "old1", msgs[0].ID, "restored history leads the transcript")
		assert.Equal(t, "old2", msgs[1].ID)

		var greetings, welcomeBacks int
		for _, m := range msgs {
			if m.Text == msgs[0].Text {
				greetings++
			}
			if m.Text == "Welcome back, Dana! Let's pick up where we left off." {
				welcomeBacks++
			}
		}
		assert.Equal(t, 1, greetings, "full introduction is not replayed")
		assert.Equal(t, 1, welcomeBacks)
	})

	t.Run("concurrent starts share one engine", func(t *testing.T) {
		svc := newTestConversationService(t, &fakeResponseRepo{}, nil)

		var wg sync.WaitGroup
		errs := make([]error, 4)
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = svc.Start(context.Background(), "child1", "cg1", "Dana")
			}(i)
		}
		wg.Wait()

		for _, err := range errs {
			require.NoError(t, err)
		}

		svc.mu.Lock()
		assert.Len(t, svc.engines, 1)
		svc.mu.Unlock()

		view, err := svc.View("child1", "cg1")
		require.NoError(t, err)
		var greetings int
		for _, m := range view.Messages {
			if m.Text == "Hi Dana! Let's talk about Alice's development. I'll ask a few quick questions, one at a time." {
				greetings++
			}
		}
		assert.Equal(t, 1, greetings, "only one engine ran the introduction")
	})
}

func TestConversationServiceCompletionClearsCache(t *testing.T) {
	cc := newFakeConvCache()
	svc := newTestConversationService(t, &fakeResponseRepo{}, cc)
	convID := ConversationID("child1", "cg1")

	_, err := svc.Start(context.Background(), "child1", "cg1", "Dana")
	require.NoError(t, err)
	assert.Greater(t, cc.transcriptLen(convID), 0)

	var view *model.ConversationView
	for i := 0; i < 5; i++ {
		_, err = svc.SubmitAnswer(context.Background(), "child1", "cg1", 1, "Yes")
		require.NoError(t, err)
		view, err = svc.Advance(context.Background(), "child1", "cg1")
		require.NoError(t, err)
	}
	require.Equal(t, model.StateCompletion, view.State)

	// The finished run leaves no cached chat behind, so the next run
	// for the same pair starts clean
	assert.Equal(t, 0, cc.transcriptLen(convID))
	assert.False(t, cc.hasSnapshot(convID))
}

func TestConversationServiceIntentRouting(t *testing.T) {
	svc := newTestConversationService(t, &fakeResponseRepo{}, nil)

	_, err := svc.SubmitAnswer(context.Background(), "child1", "nobody", 1, "Yes")
	assert.ErrorIs(t, err, ErrConversationNotFound)

	result, err := svc.Start(context.Background(), "child1", "cg1", "Dana")
	require.NoError(t, err)

	view, err := svc.SubmitAnswer(context.Background(), "child1", "cg1", 1, "Yes")
	require.NoError(t, err)
	assert.Equal(t, model.StateReadyToAdvance, view.State)

	view, err = svc.Advance(context.Background(), "child1", "cg1")
	require.NoError(t, err)
	assert.Equal(t, model.StateQuestion, view.State)

	view, err = svc.View("child1", "cg1")
	require.NoError(t, err)
	assert.Equal(t, result.View.ConversationID, view.ConversationID)

	svc.CloseConversation(context.Background(), "child1", "cg1")
	_, err = svc.View("child1", "cg1")
	assert.ErrorIs(t, err, ErrConversationNotFound)
}
