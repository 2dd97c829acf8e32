package service

import (
	"context"
	"errors"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"journeybot/internal/cache"
	"journeybot/internal/model"
	"journeybot/internal/repository"
)

// ErrInvalidTransition signals an intent arriving in a state that does
// not accept it. The conversation state is left untouched; handlers
// surface the current view rather than an error message.
var ErrInvalidTransition = errors.New("invalid transition")

// WebSocket event types pushed to the caregiver
const (
	EventTyping      = "typing"
	EventChatMessage = "chat_message"
	EventStateUpdate = "state_update"
	EventCompleted   = "conversation_completed"
)

// Engine drives one caregiver/child conversation. All state mutation
// happens under the engine mutex; the transitioning flag additionally
// rejects a second advance while a module transition is in flight.
type Engine struct {
	mu sync.Mutex

	conversationID string
	childID        string
	caregiverID    string

	state           model.ConversationState
	modules         []*model.Module
	moduleIdx       int
	questionIdx     int
	isWaiting       bool
	transitioning   bool
	answeredThisRun map[string]bool
	transcript      []model.ChatMessage
	lastPersisted   bool
	session         *model.Session
	pctx            model.PersonalizationContext

	responseRepo repository.ResponseRepo
	sessionRepo  repository.SessionRepo
	convCache    cache.ConversationCache
	personalizer *Personalizer
	broadcaster  Broadcaster

	typingDelay time.Duration
	settleDelay time.Duration

	questionTimer *time.Timer
	settleTimer   *time.Timer
}

// EngineParams bundles the collaborators an engine needs
type EngineParams struct {
	ConversationID string
	ChildID        string
	CaregiverID    string
	Modules        []*model.Module
	Session        *model.Session
	Personalization model.PersonalizationContext

	// Transcript restored from cache on reconnect; empty for a fresh run
	Transcript []model.ChatMessage

	ResponseRepo repository.ResponseRepo
	SessionRepo  repository.SessionRepo
	ConvCache    cache.ConversationCache
	Personalizer *Personalizer
	Broadcaster  Broadcaster

	TypingDelay time.Duration
	SettleDelay time.Duration
}

// NewEngine creates an engine in the welcome state
func NewEngine(p EngineParams) *Engine {
	return &Engine{
		conversationID:  p.ConversationID,
		childID:         p.ChildID,
		caregiverID:     p.CaregiverID,
		state:           model.StateWelcome,
		modules:         p.Modules,
		transcript:      p.Transcript,
		answeredThisRun: make(map[string]bool),
		session:         p.Session,
		pctx:            p.Personalization,
		responseRepo:    p.ResponseRepo,
		sessionRepo:     p.SessionRepo,
		convCache:       p.ConvCache,
		personalizer:    p.Personalizer,
		broadcaster:     p.Broadcaster,
		typingDelay:     p.TypingDelay,
		settleDelay:     p.SettleDelay,
	}
}

// Start begins the conversation: greeting, then the category intro of
// the first unanswered question. A second call after the conversation
// has left welcome is a no-op returning the current view.
func (e *Engine) Start(ctx context.Context) (*model.ConversationView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != model.StateWelcome {
		return e.viewLocked(), nil
	}

	e.state = model.StateIntroduction
	if len(e.transcript) > 0 {
		// Reconnect with a restored transcript: greet briefly instead
		// of replaying the full introduction
		e.botSayLocked(ctx, "Welcome back, {caregiver}! Let's pick up where we left off.")
	} else {
		e.botSayLocked(ctx, "Hi {caregiver}! Let's talk about {child}'s development. I'll ask a few quick questions, one at a time.")
		e.botSayLocked(ctx, "There are no right or wrong answers. Everything you share helps us follow {child}'s journey.")
	}

	mi, qi, found := e.firstPositionLocked()
	if !found {
		e.completeLocked(ctx)
		return e.viewLocked(), nil
	}

	e.moduleIdx = mi
	e.questionIdx = qi
	e.emitCategoryIntroLocked(ctx)
	e.scheduleQuestionLocked(ctx)
	e.snapshotLocked(ctx)
	return e.viewLocked(), nil
}

// SubmitAnswer records the caregiver's answer for the current question.
// Exactly one response append and one counter increment per accepted
// call. Persistence failures are logged and do not block progression.
func (e *Engine) SubmitAnswer(ctx context.Context, value int, text string) (*model.ConversationView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != model.StateQuestion || !e.isWaiting {
		log.Printf("conversation %s: submit ignored in state %s", e.conversationID, e.state)
		return e.viewLocked(), ErrInvalidTransition
	}

	q := e.currentQuestionLocked()
	if q == nil {
		return e.viewLocked(), ErrInvalidTransition
	}

	e.userSayLocked(ctx, text)
	e.state = model.StateProcessing
	e.isWaiting = false

	response := &model.Response{
		ChildID:     e.childID,
		CaregiverID: e.caregiverID,
		QuestionID:  q.ID,
		Value:       value,
		Text:        text,
		RecordedAt:  time.Now(),
	}
	e.lastPersisted = true
	if err := e.responseRepo.Append(ctx, response); err != nil {
		// Optimistic: the in-memory state stays the source of truth
		// for the rest of the run.
		log.Printf("conversation %s: response write failed for %s: %v", e.conversationID, q.ID, err)
		e.lastPersisted = false
	}

	// Re-answers after a retry append a new event but must not double
	// count toward progress.
	if !e.answeredThisRun[q.ID] {
		e.answeredThisRun[q.ID] = true
		m := e.modules[e.moduleIdx]
		m.AnsweredCount++
		if m.AnsweredCount >= m.TotalCount {
			m.IsCompleted = true
			if next := e.nextModuleIndexLocked(e.moduleIdx); next >= 0 {
				e.modules[next].IsUnlocked = true
			}
		}

		e.session.AnsweredQuestions++
		answered := e.session.AnsweredQuestions
		if err := e.sessionRepo.Update(ctx, e.session.ID, &model.SessionPatch{AnsweredQuestions: &answered}); err != nil {
			log.Printf("conversation %s: session update failed: %v", e.conversationID, err)
		}
	}

	if feedback, ok := q.Template.FeedbackByValue[strconv.Itoa(value)]; ok && feedback != "" {
		e.botSayLocked(ctx, feedback)
	}
	if q.Template.ActivityText != "" {
		e.botSayLocked(ctx, q.Template.ActivityText)
	}

	if e.settleDelay == 0 {
		e.state = model.StateReadyToAdvance
	} else {
		e.settleTimer = time.AfterFunc(e.settleDelay, e.finishProcessing)
	}

	e.snapshotLocked(ctx)
	e.broadcastStateLocked()
	return e.viewLocked(), nil
}

// finishProcessing ends the settle delay after feedback delivery
func (e *Engine) finishProcessing() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != model.StateProcessing {
		return
	}
	e.state = model.StateReadyToAdvance
	e.snapshotLocked(context.Background())
	e.broadcastStateLocked()
}

// Advance moves to the next question, the next module, or completion.
// Valid from ready_to_advance, or from a question being re-displayed
// after backward navigation. A second call while a transition is in
// flight is rejected, not queued.
func (e *Engine) Advance(ctx context.Context) (*model.ConversationView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	displayOnly := e.state == model.StateQuestion && !e.isWaiting
	if e.transitioning || (e.state != model.StateReadyToAdvance && !displayOnly) {
		log.Printf("conversation %s: advance ignored in state %s", e.conversationID, e.state)
		return e.viewLocked(), ErrInvalidTransition
	}

	e.transitioning = true
	e.state = model.StateTransitioning
	e.cancelTimersLocked()

	m := e.modules[e.moduleIdx]
	switch {
	case e.questionIdx+1 < len(m.Questions):
		// Same-module advance goes straight to the question
		e.questionIdx++
		e.emitQuestionLocked(ctx)

	case e.nextModuleIndexLocked(e.moduleIdx) >= 0:
		next := e.nextModuleIndexLocked(e.moduleIdx)
		e.moduleIdx = next
		e.questionIdx = 0
		e.modules[next].IsUnlocked = true
		e.botSayLocked(ctx, "Nice work! Let's look at the "+e.modules[next].AgeRangeLabel+" stage now.")
		e.emitCategoryIntroLocked(ctx)
		e.scheduleQuestionLocked(ctx)

	default:
		e.completeLocked(ctx)
	}

	e.transitioning = false
	// completeLocked dropped the cached run; do not write it back
	if e.state != model.StateCompletion {
		e.snapshotLocked(ctx)
	}
	return e.viewLocked(), nil
}

// Retreat moves to the previous question; at the start of a module it
// jumps to the last question of the previous module. At the very first
// question it is a no-op.
func (e *Engine) Retreat(ctx context.Context) (*model.ConversationView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.transitioning || (e.state != model.StateQuestion && e.state != model.StateReadyToAdvance) {
		return e.viewLocked(), ErrInvalidTransition
	}

	switch {
	case e.questionIdx > 0:
		e.questionIdx--
	default:
		prev := e.prevModuleIndexLocked(e.moduleIdx)
		if prev < 0 {
			// Already at the very first question
			return e.viewLocked(), nil
		}
		e.moduleIdx = prev
		e.questionIdx = len(e.modules[prev].Questions) - 1
	}

	e.cancelTimersLocked()
	e.emitQuestionLocked(ctx)
	e.snapshotLocked(ctx)
	return e.viewLocked(), nil
}

// RetryCurrent re-arms the current question for a fresh answer
func (e *Engine) RetryCurrent(ctx context.Context) (*model.ConversationView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.transitioning || (e.state != model.StateQuestion && e.state != model.StateReadyToAdvance) {
		return e.viewLocked(), ErrInvalidTransition
	}
	if e.currentQuestionLocked() == nil {
		return e.viewLocked(), ErrInvalidTransition
	}

	e.cancelTimersLocked()
	e.state = model.StateQuestion
	e.isWaiting = true
	e.snapshotLocked(ctx)
	e.broadcastStateLocked()
	return e.viewLocked(), nil
}

// View returns the current observable state
func (e *Engine) View() *model.ConversationView {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.viewLocked()
}

// Close stops pending timers. The persisted snapshot stays behind for resume.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelTimersLocked()
}

// deliverQuestion transitions category_intro to question once the
// typing delay elapses
func (e *Engine) deliverQuestion() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != model.StateCategoryIntro {
		return
	}
	e.emitQuestionLocked(context.Background())
	e.snapshotLocked(context.Background())
}

func (e *Engine) scheduleQuestionLocked(ctx context.Context) {
	if e.broadcaster != nil {
		e.broadcaster.BroadcastToCaregiver(e.conversationID, EventTyping, map[string]bool{"typing": true})
	}
	if e.typingDelay == 0 {
		e.emitQuestionLocked(ctx)
		return
	}
	e.questionTimer = time.AfterFunc(e.typingDelay, e.deliverQuestion)
}

func (e *Engine) emitCategoryIntroLocked(ctx context.Context) {
	q := e.currentQuestionLocked()
	if q == nil {
		return
	}
	e.state = model.StateCategoryIntro
	if q.Template.CategoryName != "" {
		intro := "Now, a little about " + q.Template.CategoryName + "."
		if q.Template.CategoryIcon != "" {
			intro = q.Template.CategoryIcon + " " + intro
		}
		e.botSayLocked(ctx, intro)
	}
	if q.Template.ImportanceText != "" {
		e.botSayLocked(ctx, q.Template.ImportanceText)
	}
	e.broadcastStateLocked()
}

func (e *Engine) emitQuestionLocked(ctx context.Context) {
	q := e.currentQuestionLocked()
	if q == nil {
		return
	}
	e.state = model.StateQuestion
	e.isWaiting = !e.answeredThisRun[q.ID]
	e.botSayLocked(ctx, q.Prompt)
	e.broadcastStateLocked()
}

// completeLocked finalizes the session and enters the terminal state
func (e *Engine) completeLocked(ctx context.Context) {
	now := time.Now()
	status := model.SessionCompleted
	if e.session != nil && e.session.Status != model.SessionCompleted {
		e.session.Status = model.SessionCompleted
		e.session.CompletedAt = &now
		if err := e.sessionRepo.Update(ctx, e.session.ID, &model.SessionPatch{
			Status:      &status,
			CompletedAt: &now,
		}); err != nil {
			log.Printf("conversation %s: session completion write failed: %v", e.conversationID, err)
		}
	}

	e.state = model.StateCompletion
	e.isWaiting = false
	e.botSayLocked(ctx, "That's everything for now, {caregiver}! Thank you for sharing about {child}.")

	if e.convCache != nil {
		if err := e.convCache.ClearActive(ctx, e.conversationID); err != nil {
			log.Printf("conversation %s: failed to clear active marker: %v", e.conversationID, err)
		}
		// A finished run is not resumable; drop its snapshot and
		// transcript so the next run starts from a clean chat
		if err := e.convCache.ClearConversation(ctx, e.conversationID); err != nil {
			log.Printf("conversation %s: failed to clear cached run: %v", e.conversationID, err)
		}
	}
	if e.broadcaster != nil {
		e.broadcaster.BroadcastToCaregiver(e.conversationID, EventCompleted, map[string]float64{
			"progress": CalculateProgress(e.modules),
		})
	}
}

func (e *Engine) botSayLocked(ctx context.Context, template string) {
	msg := model.ChatMessage{
		ID:        uuid.New().String(),
		Role:      model.RoleBot,
		Text:      e.personalizer.Render(template, e.pctx),
		Timestamp: time.Now(),
	}
	e.appendMessageLocked(ctx, msg)
}

func (e *Engine) userSayLocked(ctx context.Context, text string) {
	msg := model.ChatMessage{
		ID:        uuid.New().String(),
		Role:      model.RoleUser,
		Text:      text,
		Timestamp: time.Now(),
	}
	e.appendMessageLocked(ctx, msg)
}

func (e *Engine) appendMessageLocked(ctx context.Context, msg model.ChatMessage) {
	e.transcript = append(e.transcript, msg)
	if e.convCache != nil {
		if err := e.convCache.AppendMessage(ctx, e.conversationID, &msg); err != nil {
			log.Printf("conversation %s: transcript cache append failed: %v", e.conversationID, err)
		}
	}
	if e.broadcaster != nil {
		e.broadcaster.BroadcastToCaregiver(e.conversationID, EventChatMessage, msg)
	}
}

func (e *Engine) currentQuestionLocked() *model.Question {
	if e.moduleIdx >= len(e.modules) {
		return nil
	}
	m := e.modules[e.moduleIdx]
	if e.questionIdx >= len(m.Questions) {
		return nil
	}
	return &m.Questions[e.questionIdx]
}

// firstPositionLocked finds the first module that still has questions
func (e *Engine) firstPositionLocked() (int, int, bool) {
	for i, m := range e.modules {
		if len(m.Questions) > 0 {
			return i, 0, true
		}
	}
	return 0, 0, false
}

// nextModuleIndexLocked returns the next module with questions, or -1
func (e *Engine) nextModuleIndexLocked(from int) int {
	for i := from + 1; i < len(e.modules); i++ {
		if len(e.modules[i].Questions) > 0 {
			return i
		}
	}
	return -1
}

// prevModuleIndexLocked returns the previous module with questions, or -1
func (e *Engine) prevModuleIndexLocked(from int) int {
	for i := from - 1; i >= 0; i-- {
		if len(e.modules[i].Questions) > 0 {
			return i
		}
	}
	return -1
}

func (e *Engine) cancelTimersLocked() {
	if e.questionTimer != nil {
		e.questionTimer.Stop()
		e.questionTimer = nil
	}
	if e.settleTimer != nil {
		e.settleTimer.Stop()
		e.settleTimer = nil
	}
}

func (e *Engine) viewLocked() *model.ConversationView {
	view := &model.ConversationView{
		ConversationID:     e.conversationID,
		State:              e.state,
		Messages:           append([]model.ChatMessage(nil), e.transcript...),
		Progress:           CalculateProgress(e.modules),
		ModuleIndex:        e.moduleIdx,
		QuestionIndex:      e.questionIdx,
		IsWaitingForAnswer: e.isWaiting,
		Persisted:          e.lastPersisted,
	}
	if e.state == model.StateQuestion && e.isWaiting {
		if q := e.currentQuestionLocked(); q != nil {
			view.Options = e.personalizer.RenderOptions(q.Template.Options, e.pctx)
		}
	}
	return view
}

func (e *Engine) snapshotLocked(ctx context.Context) {
	if e.convCache == nil {
		return
	}
	counts := make([]int, len(e.modules))
	for i, m := range e.modules {
		counts[i] = m.AnsweredCount
	}
	snap := &model.ConversationSnapshot{
		ConversationID: e.conversationID,
		SessionID:      e.session.ID,
		State:          e.state,
		ModuleIndex:    e.moduleIdx,
		QuestionIndex:  e.questionIdx,
		AnsweredCounts: counts,
		Progress:       CalculateProgress(e.modules),
		UpdatedAt:      time.Now(),
	}
	if err := e.convCache.SetSnapshot(ctx, e.conversationID, snap); err != nil {
		log.Printf("conversation %s: snapshot write failed: %v", e.conversationID, err)
	}
}

func (e *Engine) broadcastStateLocked() {
	if e.broadcaster == nil {
		return
	}
	e.broadcaster.BroadcastToCaregiver(e.conversationID, EventStateUpdate, map[string]interface{}{
		"state":              string(e.state),
		"progress":           CalculateProgress(e.modules),
		"isWaitingForAnswer": e.isWaiting,
	})
}
