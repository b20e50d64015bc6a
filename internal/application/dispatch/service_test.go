package dispatch

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/scribeapp/scribe/internal/application/chat"
	"github.com/scribeapp/scribe/internal/domain"
)

type nopLogger struct{}

func (nopLogger) Debug(string, map[string]interface{})        {}
func (nopLogger) Info(string, map[string]interface{})         {}
func (nopLogger) Warn(string, map[string]interface{})         {}
func (nopLogger) Error(string, error, map[string]interface{}) {}

type stubCapturer struct {
	result domain.CaptureResult
	err    error
	calls  int
}

func (c *stubCapturer) Capture(context.Context) (domain.CaptureResult, error) {
	c.calls++
	return c.result, c.err
}

type stubPicker struct {
	op     domain.Operation
	change string
	ok     bool
	err    error
	called bool
}

func (p *stubPicker) Pick(_ context.Context, ops []domain.Operation, captured domain.CaptureResult) (domain.Operation, string, bool, error) {
	p.called = true
	return p.op, p.change, p.ok, p.err
}

type recordingCore struct {
	mu        sync.Mutex
	submitted []domain.OperationRequest
	cancelled []string
	seqs      map[string]uint64
}

func newRecordingCore() *recordingCore {
	return &recordingCore{seqs: make(map[string]uint64)}
}

func (c *recordingCore) Submit(req domain.OperationRequest) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitted = append(c.submitted, req)
	c.seqs[req.CorrelationID]++
	return c.seqs[req.CorrelationID]
}

func (c *recordingCore) CancelCorrelation(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelled = append(c.cancelled, id)
}

func (c *recordingCore) Deliveries() <-chan domain.Delivery { return nil }

func (c *recordingCore) Current(id string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seqs[id]
}

func (c *recordingCore) submissions() []domain.OperationRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.OperationRequest(nil), c.submitted...)
}

type recordingSurface struct {
	mu      sync.Mutex
	opened  []string
	turns   []domain.Turn
	errKind []domain.ErrorKind
}

func (s *recordingSurface) OpenSession(session domain.ConversationSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opened = append(s.opened, session.ID)
}

func (s *recordingSurface) AppendTurn(sessionID string, turn domain.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, turn)
}

func (s *recordingSurface) ShowError(sessionID string, kind domain.ErrorKind, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errKind = append(s.errKind, kind)
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []string
}

func (n *recordingNotifier) Notify(title, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, title+": "+message)
}

type memRepo struct{}

func (memRepo) Save(domain.ConversationSession) error { return nil }
func (memRepo) Get(string) (domain.ConversationSession, error) {
	return domain.ConversationSession{}, errors.New("not found")
}
func (memRepo) List() ([]domain.ConversationSession, error) { return nil, nil }
func (memRepo) Delete(string) error                         { return nil }
func (memRepo) ExportJSON(string) error                     { return nil }

func testConfig() domain.Config {
	cfg := domain.Config{
		Provider: domain.ProviderConfig{
			TransformModel: "fast",
			ChatModel:      "smart",
			Models: []domain.ModelDefinition{
				{Name: "fast", ModelID: "fast-1"},
				{Name: "smart", ModelID: "smart-1"},
			},
		},
		Operations: []domain.Operation{
			{Name: "Proofread", Instruction: "Proofread the text.", Template: "{{.Text}}", Mode: domain.DeliveryReplace},
			{Name: "Summary", Instruction: "Summarize.", Template: "{{.Text}}", Mode: domain.DeliveryWindow},
			{Name: "Custom", Instruction: "Apply the change.", Template: "Described change: {{.Change}}\n\nText: {{.Text}}", Mode: domain.DeliveryReplace, CustomChange: true},
			{Name: "Chat", Instruction: "Chat.", Template: "{{.Text}}", Mode: domain.DeliveryWindow, NoSelectionDefault: true},
		},
	}
	return cfg.Normalize()
}

type fixture struct {
	dispatcher *Dispatcher
	capturer   *stubCapturer
	picker     *stubPicker
	core       *recordingCore
	surface    *recordingSurface
	notifier   *recordingNotifier
	chats      *chat.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testConfig()
	state, err := domain.NewProviderState(cfg)
	if err != nil {
		t.Fatalf("NewProviderState() error = %v", err)
	}
	f := &fixture{
		capturer: &stubCapturer{},
		picker:   &stubPicker{},
		core:     newRecordingCore(),
		surface:  &recordingSurface{},
		notifier: &recordingNotifier{},
		chats:    chat.NewManager(memRepo{}, cfg.Chat, nopLogger{}),
	}
	f.dispatcher = NewDispatcher(f.capturer, f.picker, f.core, f.chats, f.surface, f.notifier, cfg, state, nopLogger{})
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	var step time.Duration
	f.dispatcher.now = func() time.Time {
		step += 10 * time.Second
		return base.Add(step)
	}
	return f
}

func (f *fixture) pickReturns(opName, change string) {
	op, err := testConfig().OperationByName(opName)
	if err != nil {
		panic(err)
	}
	f.picker.op = op
	f.picker.change = change
	f.picker.ok = true
}

func TestReplaceDispatchSubmitsTransformModel(t *testing.T) {
	f := newFixture(t)
	f.capturer.result = domain.CaptureResult{Text: "their going to the store", Status: domain.CaptureOK}
	f.pickReturns("Proofread", "")

	sessionID, err := f.dispatcher.HandleTrigger(context.Background())
	if err != nil {
		t.Fatalf("HandleTrigger() error = %v", err)
	}
	if sessionID != "" {
		t.Errorf("replace dispatch created session %q", sessionID)
	}

	subs := f.core.submissions()
	if len(subs) != 1 {
		t.Fatalf("submissions = %d, want 1", len(subs))
	}
	req := subs[0]
	if req.Mode != domain.DeliveryReplace || req.Model.Name != "fast" {
		t.Errorf("request = %+v", req)
	}
	if req.Prompt != "their going to the store" {
		t.Errorf("prompt = %q", req.Prompt)
	}
	if req.Supersede {
		t.Error("one-shot dispatch must not supersede")
	}
	if !strings.Contains(req.SystemInstruction, "delivery mode: replace") {
		t.Errorf("system instruction missing delivery mode:\n%s", req.SystemInstruction)
	}
	if !strings.Contains(req.SystemInstruction, "2026-03-14") {
		t.Errorf("system instruction missing date:\n%s", req.SystemInstruction)
	}
}

func TestReplaceWithEmptyCaptureNeverSubmits(t *testing.T) {
	f := newFixture(t)
	op, _ := testConfig().OperationByName("Proofread")

	if _, err := f.dispatcher.Dispatch(op, domain.CaptureResult{Text: "   ", Status: domain.CaptureOK}, ""); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if len(f.core.submissions()) != 0 {
		t.Error("replace with blank capture must not reach the capability")
	}
	if len(f.notifier.notices) != 1 {
		t.Errorf("notices = %v, want one refusal notice", f.notifier.notices)
	}
}

func TestWindowDispatchOpensSeededSession(t *testing.T) {
	f := newFixture(t)
	f.capturer.result = domain.CaptureResult{Text: "A long article.", Status: domain.CaptureOK}
	f.pickReturns("Summary", "")

	sessionID, err := f.dispatcher.HandleTrigger(context.Background())
	if err != nil {
		t.Fatalf("HandleTrigger() error = %v", err)
	}
	if sessionID == "" {
		t.Fatal("window dispatch should open a session")
	}

	session, err := f.chats.Get(sessionID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(session.Turns) != 1 || !strings.Contains(session.Turns[0].Content, "A long article.") {
		t.Errorf("session not seeded: %+v", session.Turns)
	}

	subs := f.core.submissions()
	if len(subs) != 1 {
		t.Fatalf("submissions = %d, want 1", len(subs))
	}
	if subs[0].CorrelationID != sessionID || subs[0].SessionID != sessionID {
		t.Errorf("request ids = %+v, want session id %q", subs[0], sessionID)
	}
	if subs[0].Model.Name != "smart" {
		t.Errorf("window request model = %q, want chat model", subs[0].Model.Name)
	}
}

func TestNoSelectionOpensDefaultChatWithoutCapabilityCall(t *testing.T) {
	f := newFixture(t)
	f.capturer.result = domain.CaptureResult{Text: "", Status: domain.CaptureEmptySelection}

	sessionID, err := f.dispatcher.HandleTrigger(context.Background())
	if err != nil {
		t.Fatalf("HandleTrigger() error = %v", err)
	}
	if sessionID == "" {
		t.Fatal("no-selection trigger should open the default chat")
	}
	if f.picker.called {
		t.Error("picker should be bypassed when nothing was captured")
	}
	if len(f.core.submissions()) != 0 {
		t.Error("no capability call until the user sends a message")
	}

	session, _ := f.chats.Get(sessionID)
	if len(session.Turns) != 0 {
		t.Errorf("default chat should start empty, got %d turns", len(session.Turns))
	}
}

func TestCaptureTimeoutAlsoOpensDefaultChat(t *testing.T) {
	f := newFixture(t)
	f.capturer.result = domain.CaptureResult{Status: domain.CaptureTimeout}

	sessionID, err := f.dispatcher.HandleTrigger(context.Background())
	if err != nil {
		t.Fatalf("HandleTrigger() error = %v", err)
	}
	if sessionID == "" {
		t.Error("capture timeout should fall back to the default chat")
	}
}

func TestCustomChangeRendersIntoTemplate(t *testing.T) {
	f := newFixture(t)
	op, _ := testConfig().OperationByName("Custom")

	if _, err := f.dispatcher.Dispatch(op, domain.CaptureResult{Text: "some text", Status: domain.CaptureOK}, "make it rhyme"); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	subs := f.core.submissions()
	if len(subs) != 1 {
		t.Fatalf("submissions = %d, want 1", len(subs))
	}
	want := "Described change: make it rhyme\n\nText: some text"
	if subs[0].Prompt != want {
		t.Errorf("prompt = %q, want %q", subs[0].Prompt, want)
	}
}

func TestChatSendSupersedes(t *testing.T) {
	f := newFixture(t)
	session := f.chats.StartSession("", "Chat")

	if err := f.dispatcher.ChatSend(session.ID, "first question"); err != nil {
		t.Fatalf("ChatSend() error = %v", err)
	}
	if err := f.dispatcher.ChatSend(session.ID, "second question"); err != nil {
		t.Fatalf("ChatSend() second error = %v", err)
	}

	subs := f.core.submissions()
	if len(subs) != 2 {
		t.Fatalf("submissions = %d, want 2", len(subs))
	}
	for _, req := range subs {
		if !req.Supersede {
			t.Error("chat turns must supersede the previous in-flight request")
		}
		if req.CorrelationID != session.ID {
			t.Errorf("correlation id = %q, want session id", req.CorrelationID)
		}
	}
	if !strings.HasSuffix(subs[1].Prompt, "User: second question\n\nAssistant:") {
		t.Errorf("continuation prompt tail wrong:\n%s", subs[1].Prompt)
	}
}

func TestChatSendBlankIsIgnored(t *testing.T) {
	f := newFixture(t)
	session := f.chats.StartSession("", "Chat")

	if err := f.dispatcher.ChatSend(session.ID, "   "); err != nil {
		t.Fatalf("ChatSend() error = %v", err)
	}
	if len(f.core.submissions()) != 0 {
		t.Error("blank message must not submit")
	}
}

func TestSpamGuardSwallowsBurst(t *testing.T) {
	f := newFixture(t)
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	var ticks int
	f.dispatcher.now = func() time.Time {
		ticks++
		return base.Add(time.Duration(ticks) * 100 * time.Millisecond)
	}
	f.capturer.result = domain.CaptureResult{Text: "text", Status: domain.CaptureOK}
	f.picker.ok = false

	for i := 0; i < 5; i++ {
		if _, err := f.dispatcher.HandleTrigger(context.Background()); err != nil {
			t.Fatalf("HandleTrigger() error = %v", err)
		}
	}
	if f.capturer.calls != spamTriggerCount {
		t.Errorf("capture calls = %d, want %d (burst tail swallowed)", f.capturer.calls, spamTriggerCount)
	}
}

func TestSpamGuardCancelsPendingWork(t *testing.T) {
	f := newFixture(t)
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	var ticks int
	f.dispatcher.now = func() time.Time {
		ticks++
		return base.Add(time.Duration(ticks) * 100 * time.Millisecond)
	}
	f.capturer.result = domain.CaptureResult{Text: "long report text", Status: domain.CaptureOK}
	f.pickReturns("Summary", "")

	for i := 0; i < 5; i++ {
		if _, err := f.dispatcher.HandleTrigger(context.Background()); err != nil {
			t.Fatalf("HandleTrigger() error = %v", err)
		}
	}
	subs := f.core.submissions()
	if len(subs) != spamTriggerCount {
		t.Fatalf("submissions = %d, want %d", len(subs), spamTriggerCount)
	}
	if len(f.core.cancelled) == 0 {
		t.Fatal("tripped guard should cancel the pending correlation")
	}
	last := subs[len(subs)-1].CorrelationID
	for _, id := range f.core.cancelled {
		if id != last {
			t.Errorf("cancelled %q, want latest correlation %q", id, last)
		}
	}
}

func TestCaptureErrorNotifies(t *testing.T) {
	f := newFixture(t)
	f.capturer.err = errors.New("clipboard tool missing")

	if _, err := f.dispatcher.HandleTrigger(context.Background()); err == nil {
		t.Error("capture failure should propagate")
	}
	if len(f.notifier.notices) != 1 {
		t.Errorf("notices = %v, want one", f.notifier.notices)
	}
}

func TestReplaceProviderStateSwapsModels(t *testing.T) {
	f := newFixture(t)
	op, _ := testConfig().OperationByName("Proofread")

	f.dispatcher.ReplaceProviderState(domain.ProviderState{
		TransformModel: domain.ModelDefinition{Name: "upgraded"},
		ChatModel:      domain.ModelDefinition{Name: "upgraded"},
	})
	if _, err := f.dispatcher.Dispatch(op, domain.CaptureResult{Text: "text", Status: domain.CaptureOK}, ""); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	subs := f.core.submissions()
	if subs[0].Model.Name != "upgraded" {
		t.Errorf("model = %q, want the swapped snapshot", subs[0].Model.Name)
	}
}
