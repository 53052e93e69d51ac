package voice

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/seu-repo/rentmap-voice/internal/domain"
	"github.com/seu-repo/rentmap-voice/internal/mocks"
	"github.com/seu-repo/rentmap-voice/internal/ports"
)

// fakeClient stands in for the browser end of a session.
type fakeClient struct {
	*mocks.MockRecognizer
	*mocks.MockSpeaker
	*mocks.MockNavigator
	*mocks.MockWorkspace
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		MockRecognizer: &mocks.MockRecognizer{},
		MockSpeaker:    &mocks.MockSpeaker{},
		MockNavigator:  &mocks.MockNavigator{},
		MockWorkspace:  &mocks.MockWorkspace{WS: testWorkspace()},
	}
}

func newTestSession(t *testing.T, client *fakeClient, resolver *mocks.MockIntentResolver) *Controller {
	t.Helper()
	ctrl := newTestAssistant(resolver, nil, 10*time.Millisecond).NewSession(context.Background(), "test", client, SessionHooks{})
	t.Cleanup(ctrl.Close)
	return ctrl
}

func newTestAssistant(resolver *mocks.MockIntentResolver, store ports.HistoryStore, delay time.Duration) *Assistant {
	return NewAssistant(resolver, &mocks.MockPropertyService{}, &mocks.MockPropertyService{}, store, AssistantConfig{
		Locale:       "es-AR",
		HistoryLimit: 10,
		ExecuteDelay: delay,
	}, newTestLogger())
}

func replyWith(intent domain.ResolvedIntent) *mocks.MockIntentResolver {
	return &mocks.MockIntentResolver{
		ResolveFunc: func(ctx context.Context, transcript string, ws domain.Workspace, history []domain.ConversationTurn) domain.ResolvedIntent {
			return intent
		},
	}
}

func waitForState(t *testing.T, ctrl *Controller, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if ctrl.State() == want {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s, state is %s", want, ctrl.State())
}

func TestController_ToggleStartsListening(t *testing.T) {
	client := newFakeClient()
	ctrl := newTestSession(t, client, &mocks.MockIntentResolver{})

	if err := ctrl.Toggle(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ctrl.State() != StateListening {
		t.Errorf("expected listening, got %s", ctrl.State())
	}
	if client.Starts() != 1 {
		t.Errorf("expected 1 recognizer start, got %d", client.Starts())
	}
	if st := ctrl.Status(); !st.IsListening || st.State != "listening" {
		t.Errorf("unexpected status %+v", st)
	}
}

func TestController_ToggleUnsupported(t *testing.T) {
	client := newFakeClient()
	client.Unsupported = true
	ctrl := newTestSession(t, client, &mocks.MockIntentResolver{})

	err := ctrl.Toggle()

	if !errors.Is(err, ErrCaptureUnsupported) {
		t.Errorf("expected ErrCaptureUnsupported, got %v", err)
	}
	if ctrl.State() != StateIdle {
		t.Errorf("expected idle, got %s", ctrl.State())
	}
}

func TestController_RecognizerStartFailure(t *testing.T) {
	client := newFakeClient()
	client.StartFunc = func(ctx context.Context, locale string) error {
		return errors.New("microphone denied")
	}
	ctrl := newTestSession(t, client, &mocks.MockIntentResolver{})

	if err := ctrl.Toggle(); err == nil {
		t.Fatal("expected error")
	}
	if ctrl.State() != StateIdle {
		t.Errorf("expected idle, got %s", ctrl.State())
	}
}

func TestController_CaptureErrorsReturnToRest(t *testing.T) {
	tests := []struct {
		name string
		end  func(c *Capture)
	}{
		{name: "recognition error", end: func(c *Capture) { c.Fail(errors.New("no-speech")) }},
		{name: "empty transcript", end: func(c *Capture) { c.Deliver("   ") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newFakeClient()
			ctrl := newTestSession(t, client, &mocks.MockIntentResolver{})
			if err := ctrl.Toggle(); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			tt.end(ctrl.Capture())

			if ctrl.State() != StateIdle {
				t.Errorf("expected idle, got %s", ctrl.State())
			}
			if client.Starts() != 1 {
				t.Errorf("capture must not retry, got %d starts", client.Starts())
			}
		})
	}
}

func TestController_FollowUpListensAgain(t *testing.T) {
	// Arrange
	var (
		mu    sync.Mutex
		seen  [][]domain.ConversationTurn
		turns int
	)
	resolver := &mocks.MockIntentResolver{
		ResolveFunc: func(ctx context.Context, transcript string, ws domain.Workspace, history []domain.ConversationTurn) domain.ResolvedIntent {
			mu.Lock()
			defer mu.Unlock()
			seen = append(seen, history)
			turns++
			if turns == 1 {
				return domain.NewResolvedIntent(domain.IntentGeneralQuery, "¿De qué propiedad?", true, nil)
			}
			return domain.NewResolvedIntent(domain.IntentGeneralQuery, "Listo.", false, nil)
		},
	}
	client := newFakeClient()
	ctrl := newTestSession(t, client, resolver)

	// Act
	if err := ctrl.Toggle(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctrl.Capture().Deliver("cambiá el alquiler")
	waitForState(t, ctrl, StateListening)
	for client.Starts() < 2 {
		time.Sleep(time.Millisecond)
	}
	ctrl.Capture().Deliver("la de Corrientes")
	waitForState(t, ctrl, StateIdle)

	// Assert
	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 || len(seen[0]) != 0 || len(seen[1]) != 2 {
		t.Fatalf("expected second turn to see the first exchange, got %v", seen)
	}
	if seen[1][0].Content != "cambiá el alquiler" || seen[1][1].Content != "¿De qué propiedad?" {
		t.Errorf("unexpected history %v", seen[1])
	}
	if spoken := client.Spoken(); !reflect.DeepEqual(spoken, []string{"¿De qué propiedad?", "Listo."}) {
		t.Errorf("unexpected speech %v", spoken)
	}
	if ctrl.history.Len() != 4 {
		t.Errorf("general queries keep the conversation, got %d turns", ctrl.history.Len())
	}
}

func TestController_NavigateExecutesAndClearsHistory(t *testing.T) {
	client := newFakeClient()
	intent := domain.NewResolvedIntent(domain.IntentNavigate, "Vamos a finanzas.", false, &domain.RawPayload{TargetView: "FINANCE"})
	ctrl := newTestSession(t, client, replyWith(intent))

	if err := ctrl.Toggle(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctrl.Capture().Deliver("mostrame las finanzas")
	waitForState(t, ctrl, StateIdle)

	if calls := client.Calls(); !reflect.DeepEqual(calls, []string{"view:FINANCE"}) {
		t.Errorf("unexpected calls %v", calls)
	}
	if ctrl.history.Len() != 0 {
		t.Errorf("expected history cleared, got %d turns", ctrl.history.Len())
	}
	if st := ctrl.Status(); st.AssistantReply != "Vamos a finanzas." || st.Transcript != "mostrame las finanzas" {
		t.Errorf("unexpected status %+v", st)
	}
}

func TestController_StopListening(t *testing.T) {
	client := newFakeClient()
	ctrl := newTestSession(t, client, replyWith(domain.NewResolvedIntent(domain.IntentStopListening, "Chau.", false, nil)))

	if err := ctrl.Toggle(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctrl.Capture().Deliver("basta")
	waitForState(t, ctrl, StateIdle)

	if client.Cancels() != 1 {
		t.Errorf("expected speech cancelled, got %d", client.Cancels())
	}
	if len(client.Spoken()) != 0 {
		t.Errorf("stop should not be spoken, got %v", client.Spoken())
	}
	if ctrl.history.Len() != 0 {
		t.Errorf("expected history cleared, got %d", ctrl.history.Len())
	}
}

func TestController_CancelDropsLateResolution(t *testing.T) {
	release := make(chan struct{})
	resolver := &mocks.MockIntentResolver{
		ResolveFunc: func(ctx context.Context, transcript string, ws domain.Workspace, history []domain.ConversationTurn) domain.ResolvedIntent {
			<-release
			return domain.NewResolvedIntent(domain.IntentNavigate, "Vamos.", false, &domain.RawPayload{TargetView: "MAP"})
		},
	}
	client := newFakeClient()
	ctrl := newTestSession(t, client, resolver)

	if err := ctrl.Toggle(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctrl.Capture().Deliver("andá al mapa")
	waitForState(t, ctrl, StateProcessing)

	ctrl.Cancel()
	close(release)
	ctrl.Close()
	time.Sleep(30 * time.Millisecond)

	if ctrl.State() != StateIdle {
		t.Errorf("expected idle, got %s", ctrl.State())
	}
	if len(client.Calls()) != 0 || len(client.Spoken()) != 0 {
		t.Errorf("late intent must be discarded, got %v %v", client.Calls(), client.Spoken())
	}
}

func TestController_StagedUpdateAwaitsConfirmation(t *testing.T) {
	client := newFakeClient()
	intent := domain.NewResolvedIntent(domain.IntentUpdateProperty, "Te pido confirmación.", false, &domain.RawPayload{
		ActionType: "CHANGE_RENT",
		PropertyID: "p1",
		NewRent:    num(350000),
	})
	ctrl := newTestSession(t, client, replyWith(intent))

	if err := ctrl.Toggle(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctrl.Capture().Deliver("subí el alquiler de Corrientes a 350 mil")
	waitForState(t, ctrl, StateAwaitingConfirmation)

	if !ctrl.Status().PendingUpdate {
		t.Error("expected pending update in status")
	}

	updated, err := ctrl.ConfirmUpdate(context.Background())

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated == nil || updated.MonthlyRent != 350000 {
		t.Errorf("unexpected property %+v", updated)
	}
	if ctrl.State() != StateIdle {
		t.Errorf("expected idle after confirming, got %s", ctrl.State())
	}
}

func TestController_DeclineExpense(t *testing.T) {
	client := newFakeClient()
	intent := domain.NewResolvedIntent(domain.IntentRegisterExpense, "¿Lo registro?", false, &domain.RawPayload{
		Amount:      num(5000),
		Description: "pintura",
	})
	ctrl := newTestSession(t, client, replyWith(intent))

	if err := ctrl.Toggle(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctrl.Capture().Deliver("gasté 5000 en pintura")
	waitForState(t, ctrl, StateAwaitingConfirmation)

	ctrl.DeclineExpense(context.Background())

	if ctrl.State() != StateIdle || ctrl.Gate().HasPending() {
		t.Errorf("expected idle with nothing pending, got %s", ctrl.State())
	}
}

func TestController_ToggleWhileSpeakingCancels(t *testing.T) {
	client := newFakeClient()
	client.Hold = true
	ctrl := newTestSession(t, client, replyWith(domain.NewResolvedIntent(domain.IntentGeneralQuery, "¿Algo más?", true, nil)))

	if err := ctrl.Toggle(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctrl.Capture().Deliver("hola")
	waitForState(t, ctrl, StateSpeaking)

	if err := ctrl.Toggle(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	client.Finish()

	if ctrl.State() != StateIdle {
		t.Errorf("expected idle, got %s", ctrl.State())
	}
	if client.Cancels() != 1 {
		t.Errorf("expected speech cancelled once, got %d", client.Cancels())
	}
	if client.Starts() != 1 {
		t.Errorf("cancelled follow-up must not listen again, got %d starts", client.Starts())
	}
}

func TestController_ReconnectResumesConversation(t *testing.T) {
	// Arrange
	ctx := context.Background()
	store := mocks.NewMockHistoryStore()
	seed := []domain.ConversationTurn{
		{Role: domain.RoleUser, Content: "subile el alquiler"},
		{Role: domain.RoleAssistant, Content: "¿A qué propiedad?"},
	}
	if err := store.Save(ctx, "s1", seed); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var (
		mu   sync.Mutex
		seen []domain.ConversationTurn
	)
	resolver := &mocks.MockIntentResolver{
		ResolveFunc: func(ctx context.Context, transcript string, ws domain.Workspace, history []domain.ConversationTurn) domain.ResolvedIntent {
			mu.Lock()
			seen = history
			mu.Unlock()
			return domain.NewResolvedIntent(domain.IntentGeneralQuery, "Es la de Corrientes.", false, nil)
		},
	}
	assistant := newTestAssistant(resolver, store, 10*time.Millisecond)

	// Act: the first connection drops without the user cancelling.
	first := assistant.NewSession(ctx, "s1", newFakeClient(), SessionHooks{})
	first.Close()
	persisted := store.Turns("s1")

	client := newFakeClient()
	second := assistant.NewSession(ctx, "s1", client, SessionHooks{})
	t.Cleanup(second.Close)
	restored := second.history.Len()
	if err := second.Toggle(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	afterToggle := second.history.Len()
	second.Capture().Deliver("la de Corrientes")
	waitForState(t, second, StateIdle)

	// Assert
	if len(persisted) != 2 {
		t.Errorf("disconnect must keep the stored conversation, got %d turns", len(persisted))
	}
	if restored != 2 || afterToggle != 2 {
		t.Errorf("expected 2 turns restored and kept by toggle, got %d and %d", restored, afterToggle)
	}
	mu.Lock()
	defer mu.Unlock()
	if !reflect.DeepEqual(seen, seed) {
		t.Errorf("resolver should see the restored turns, got %v", seen)
	}
}

func TestController_SecondToggleStartsFresh(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewMockHistoryStore()
	_ = store.Save(ctx, "s1", []domain.ConversationTurn{{Role: domain.RoleAssistant, Content: "¿Algo más?"}})
	ctrl := newTestAssistant(&mocks.MockIntentResolver{}, store, 10*time.Millisecond).
		NewSession(ctx, "s1", newFakeClient(), SessionHooks{})
	t.Cleanup(ctrl.Close)

	if err := ctrl.Toggle(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ctrl.Toggle(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ctrl.Toggle(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ctrl.history.Len() != 0 {
		t.Errorf("cancel then toggle should start a new conversation, got %d turns", ctrl.history.Len())
	}
}

func TestController_SlowHistoryStoreDoesNotBlockCancel(t *testing.T) {
	// Arrange
	release := make(chan struct{})
	store := mocks.NewMockHistoryStore()
	store.SaveFunc = func(ctx context.Context, sessionID string, turns []domain.ConversationTurn) error {
		<-release
		return nil
	}
	client := newFakeClient()
	ctrl := newTestAssistant(replyWith(domain.NewResolvedIntent(domain.IntentGeneralQuery, "Hola.", false, nil)), store, 10*time.Millisecond).
		NewSession(context.Background(), "s1", client, SessionHooks{})

	if err := ctrl.Toggle(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctrl.Capture().Deliver("hola")
	waitForState(t, ctrl, StateIdle)

	// Act
	start := time.Now()
	ctrl.Cancel()
	_ = ctrl.Status()
	elapsed := time.Since(start)
	close(release)
	ctrl.Close()

	// Assert
	if elapsed > 100*time.Millisecond {
		t.Errorf("cancel waited on the history store for %s", elapsed)
	}
	if turns := store.Turns("s1"); len(turns) != 0 {
		t.Errorf("a save queued before cancel must not outlive it, store has %v", turns)
	}
}

// blockingNavigatorClient holds view switches until released.
type blockingNavigatorClient struct {
	*fakeClient
	entered chan struct{}
	release chan struct{}
}

func (c *blockingNavigatorClient) SwitchView(ctx context.Context, view domain.View) {
	close(c.entered)
	<-c.release
	c.fakeClient.SwitchView(ctx, view)
}

func TestController_CloseWaitsForScheduledDispatch(t *testing.T) {
	// Arrange
	client := &blockingNavigatorClient{
		fakeClient: newFakeClient(),
		entered:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	intent := domain.NewResolvedIntent(domain.IntentNavigate, "Vamos a finanzas.", false, &domain.RawPayload{TargetView: "FINANCE"})
	ctrl := newTestAssistant(replyWith(intent), nil, 10*time.Millisecond).
		NewSession(context.Background(), "s1", client, SessionHooks{})

	if err := ctrl.Toggle(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctrl.Capture().Deliver("mostrame las finanzas")
	<-client.entered

	// Act
	closed := make(chan struct{})
	go func() {
		ctrl.Close()
		close(closed)
	}()

	// Assert
	select {
	case <-closed:
		t.Fatal("close returned while the dispatch was still running")
	case <-time.After(50 * time.Millisecond):
	}
	close(client.release)
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("close did not return after the dispatch finished")
	}
	if calls := client.Calls(); !reflect.DeepEqual(calls, []string{"view:FINANCE"}) {
		t.Errorf("unexpected calls %v", calls)
	}
}

func TestController_CancelDisarmsScheduledDispatch(t *testing.T) {
	client := newFakeClient()
	intent := domain.NewResolvedIntent(domain.IntentNavigate, "Vamos.", false, &domain.RawPayload{TargetView: "FINANCE"})
	ctrl := newTestAssistant(replyWith(intent), nil, time.Hour).
		NewSession(context.Background(), "s1", client, SessionHooks{})

	if err := ctrl.Toggle(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctrl.Capture().Deliver("finanzas")
	waitForState(t, ctrl, StateSpeaking)
	ctrl.Cancel()

	closed := make(chan struct{})
	go func() {
		ctrl.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("close hung on a disarmed execution")
	}
	if len(client.Calls()) != 0 {
		t.Errorf("cancelled intent must not run, got %v", client.Calls())
	}
}
