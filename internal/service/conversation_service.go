package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"journeybot/internal/cache"
	"journeybot/internal/config"
	"journeybot/internal/model"
	"journeybot/internal/repository"
)

var ErrConversationNotFound = errors.New("conversation not found")

// StartResult is returned when a conversation is started or resumed
type StartResult struct {
	CaregiverID string                  `json:"caregiverId"`
	Token       string                  `json:"token"`
	View        *model.ConversationView `json:"view"`
}

// ConversationService owns the engine registry: one engine per active
// caregiver/child conversation. It orchestrates catalog loading,
// answered-question filtering and session bookkeeping around the engine.
type ConversationService struct {
	mu      sync.Mutex
	engines map[string]*Engine

	catalogSvc   *CatalogService
	authSvc      *AuthService
	childRepo    repository.ChildRepo
	responseRepo repository.ResponseRepo
	sessionRepo  repository.SessionRepo
	convCache    cache.ConversationCache
	personalizer *Personalizer
	broadcaster  Broadcaster

	typingDelay time.Duration
	settleDelay time.Duration
}

// NewConversationService creates a new conversation service
func NewConversationService(
	cfg *config.Config,
	catalogSvc *CatalogService,
	authSvc *AuthService,
	childRepo repository.ChildRepo,
	responseRepo repository.ResponseRepo,
	sessionRepo repository.SessionRepo,
	convCache cache.ConversationCache,
	personalizer *Personalizer,
) *ConversationService {
	return &ConversationService{
		engines:      make(map[string]*Engine),
		catalogSvc:   catalogSvc,
		authSvc:      authSvc,
		childRepo:    childRepo,
		responseRepo: responseRepo,
		sessionRepo:  sessionRepo,
		convCache:    convCache,
		personalizer: personalizer,
		typingDelay:  cfg.TypingDelay,
		settleDelay:  cfg.SettleDelay,
	}
}

// SetBroadcaster sets the broadcaster for WebSocket events
func (s *ConversationService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// ConversationID derives the registry key for a child/caregiver pair
func ConversationID(childID, caregiverID string) string {
	return childID + ":" + caregiverID
}

// Start begins or resumes the conversation for a child. An empty
// caregiverID registers a new caregiver; passing the same ID back
// resumes against previously stored responses.
func (s *ConversationService) Start(ctx context.Context, childID, caregiverID, caregiverName string) (*StartResult, error) {
	if caregiverID == "" {
		caregiverID = "c_" + uuid.New().String()[:8]
	}
	convID := ConversationID(childID, caregiverID)

	token, err := s.authSvc.GenerateCaregiverToken(childID, caregiverID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.mu.Lock()
	if engine, ok := s.engines[convID]; ok {
		s.mu.Unlock()
		view, err := engine.Start(ctx) // no-op after welcome, returns current view
		if err != nil {
			return nil, err
		}
		return &StartResult{CaregiverID: caregiverID, Token: token, View: view}, nil
	}
	s.mu.Unlock()

	child, err := s.childRepo.GetByID(ctx, childID)
	if err != nil {
		return nil, fmt.Errorf("failed to get child: %w", err)
	}
	if child == nil {
		return nil, fmt.Errorf("child not found")
	}

	age := child.AgeInMonths(time.Now())
	modules, err := s.catalogSvc.GetModulesForAge(ctx, age)
	if err != nil {
		return nil, err
	}

	// A question counts as answered if any response exists for the
	// child, regardless of caregiver or session.
	responses, err := s.responseRepo.GetByChild(ctx, childID)
	if err != nil {
		return nil, fmt.Errorf("failed to get responses: %w", err)
	}

	filtered, _ := FilterAnswered(modules, responses)

	session, err := s.sessionRepo.GetActive(ctx, childID, caregiverID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}
	if session == nil {
		var total, answered int
		for _, m := range filtered {
			total += m.TotalCount
			answered += m.AnsweredCount
		}
		session = &model.Session{
			ChildID:           childID,
			CaregiverID:       caregiverID,
			TotalQuestions:    total,
			AnsweredQuestions: answered,
			Status:            model.SessionActive,
			StartedAt:         time.Now(),
		}
		if err := s.sessionRepo.Create(ctx, session); err != nil {
			// Optimistic: the run continues with an unpersisted session
			log.Printf("conversation %s: session create failed: %v", convID, err)
		}
	}

	// Reconnect path: restore the cached transcript so the caregiver
	// keeps their chat history instead of replaying the run. The stored
	// responses stay authoritative for position; the snapshot is only
	// cross-checked.
	var transcript []model.ChatMessage
	if s.convCache != nil {
		msgs, err := s.convCache.GetTranscript(ctx, convID)
		if err != nil {
			log.Printf("conversation %s: transcript restore failed: %v", convID, err)
		} else {
			transcript = msgs
		}

		snap, err := s.convCache.GetSnapshot(ctx, convID)
		if err != nil {
			log.Printf("conversation %s: snapshot read failed: %v", convID, err)
		} else if snap != nil {
			if recomputed := CalculateProgress(filtered); snap.Progress != recomputed {
				log.Printf("conversation %s: cached snapshot is stale (%.0f%% cached, %.0f%% recomputed)", convID, snap.Progress, recomputed)
			}
		}

		claimed, err := s.convCache.MarkActive(ctx, convID)
		if err != nil {
			log.Printf("conversation %s: active marker check failed: %v", convID, err)
		} else if !claimed {
			log.Printf("conversation %s: active marker already held, proceeding anyway", convID)
		}
	}

	pctx := model.PersonalizationContext{
		ChildName:     child.Name,
		CaregiverName: caregiverName,
		Pronoun:       child.Pronoun,
		Possessive:    child.Possessive,
	}

	engine := NewEngine(EngineParams{
		ConversationID:  convID,
		ChildID:         childID,
		CaregiverID:     caregiverID,
		Modules:         filtered,
		Session:         session,
		Personalization: pctx,
		Transcript:      transcript,
		ResponseRepo:    s.responseRepo,
		SessionRepo:     s.sessionRepo,
		ConvCache:       s.convCache,
		Personalizer:    s.personalizer,
		Broadcaster:     s.broadcaster,
		TypingDelay:     s.typingDelay,
		SettleDelay:     s.settleDelay,
	})

	s.mu.Lock()
	if existing, ok := s.engines[convID]; ok {
		// Lost the race to a concurrent Start for the same pair;
		// discard this engine and join the one already registered
		s.mu.Unlock()
		engine.Close()
		view, err := existing.Start(ctx)
		if err != nil {
			return nil, err
		}
		return &StartResult{CaregiverID: caregiverID, Token: token, View: view}, nil
	}
	s.engines[convID] = engine
	s.mu.Unlock()

	view, err := engine.Start(ctx)
	if err != nil {
		return nil, err
	}
	return &StartResult{CaregiverID: caregiverID, Token: token, View: view}, nil
}

// SubmitAnswer routes an answer to the caregiver's engine
func (s *ConversationService) SubmitAnswer(ctx context.Context, childID, caregiverID string, value int, text string) (*model.ConversationView, error) {
	engine, err := s.engine(childID, caregiverID)
	if err != nil {
		return nil, err
	}
	return engine.SubmitAnswer(ctx, value, text)
}

// Advance moves the conversation forward
func (s *ConversationService) Advance(ctx context.Context, childID, caregiverID string) (*model.ConversationView, error) {
	engine, err := s.engine(childID, caregiverID)
	if err != nil {
		return nil, err
	}
	return engine.Advance(ctx)
}

// Retreat moves the conversation backward
func (s *ConversationService) Retreat(ctx context.Context, childID, caregiverID string) (*model.ConversationView, error) {
	engine, err := s.engine(childID, caregiverID)
	if err != nil {
		return nil, err
	}
	return engine.Retreat(ctx)
}

// RetryCurrent re-arms the current question
func (s *ConversationService) RetryCurrent(ctx context.Context, childID, caregiverID string) (*model.ConversationView, error) {
	engine, err := s.engine(childID, caregiverID)
	if err != nil {
		return nil, err
	}
	return engine.RetryCurrent(ctx)
}

// View returns the observable state for rendering
func (s *ConversationService) View(childID, caregiverID string) (*model.ConversationView, error) {
	engine, err := s.engine(childID, caregiverID)
	if err != nil {
		return nil, err
	}
	return engine.View(), nil
}

// CloseConversation drops the engine from the registry and stops its
// timers. The Redis snapshot stays behind so the run can resume later.
func (s *ConversationService) CloseConversation(ctx context.Context, childID, caregiverID string) {
	convID := ConversationID(childID, caregiverID)
	s.mu.Lock()
	engine, ok := s.engines[convID]
	if ok {
		delete(s.engines, convID)
	}
	s.mu.Unlock()
	if ok {
		engine.Close()
	}
	if s.convCache != nil {
		if err := s.convCache.ClearActive(ctx, convID); err != nil {
			log.Printf("conversation %s: failed to clear active marker: %v", convID, err)
		}
	}
}

// CreateChild registers a child profile
func (s *ConversationService) CreateChild(ctx context.Context, child *model.Child) (string, error) {
	return s.childRepo.Create(ctx, child)
}

// GetChild fetches a child profile by ID
func (s *ConversationService) GetChild(ctx context.Context, id string) (*model.Child, error) {
	return s.childRepo.GetByID(ctx, id)
}

func (s *ConversationService) engine(childID, caregiverID string) (*Engine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	engine, ok := s.engines[ConversationID(childID, caregiverID)]
	if !ok {
		return nil, ErrConversationNotFound
	}
	return engine, nil
}
