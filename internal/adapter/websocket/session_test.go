package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/rentmap-voice/internal/domain"
	"github.com/seu-repo/rentmap-voice/internal/mocks"
	"github.com/seu-repo/rentmap-voice/internal/service/voice"
)

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

func testService() *mocks.MockPropertyService {
	return &mocks.MockPropertyService{
		WorkspaceFunc: func(ctx context.Context) (domain.Workspace, error) {
			return domain.Workspace{
				Properties:    []domain.Property{{ID: "p1", Address: "Av. Corrientes 1234"}},
				Professionals: []domain.Professional{{ID: "pro1", Name: "Roberto Díaz"}},
			}, nil
		},
	}
}

// newTestSession wires a session the way Handle does, minus the socket.
func newTestSession(t *testing.T, resolver *mocks.MockIntentResolver) (*Registry, *Session) {
	t.Helper()
	log := newTestLogger()
	svc := testService()
	assistant := voice.NewAssistant(resolver, svc, svc, nil, voice.AssistantConfig{ExecuteDelay: 5 * time.Millisecond}, log)
	reg := NewRegistry(assistant, svc, 0, log)

	s := newSession("s1", svc, log)
	s.controller = assistant.NewSession(context.Background(), "s1", s, voice.SessionHooks{})
	reg.add(s)
	t.Cleanup(func() {
		s.controller.Close()
		reg.CloseAll()
	})
	return reg, s
}

func envelope(t *testing.T, msgType string, data interface{}) Envelope {
	t.Helper()
	env := Envelope{Type: msgType}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			t.Fatal(err)
		}
		env.Data = raw
	}
	return env
}

// expectFrame reads frames until one of msgType arrives and decodes its data.
func expectFrame(t *testing.T, s *Session, msgType string, v interface{}) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case frame, ok := <-s.send:
			if !ok {
				t.Fatalf("session closed before %q", msgType)
			}
			var env Envelope
			if err := json.Unmarshal(frame, &env); err != nil {
				t.Fatalf("invalid frame %s: %v", frame, err)
			}
			if env.Type != msgType {
				continue
			}
			if v != nil {
				if err := json.Unmarshal(env.Data, v); err != nil {
					t.Fatalf("invalid %q data: %v", msgType, err)
				}
			}
			return
		case <-timeout:
			t.Fatalf("timed out waiting for %q", msgType)
		}
	}
}

func TestSession_VoiceRoundTrip(t *testing.T) {
	// Arrange
	resolver := &mocks.MockIntentResolver{
		ResolveFunc: func(ctx context.Context, transcript string, ws domain.Workspace, history []domain.ConversationTurn) domain.ResolvedIntent {
			return domain.NewResolvedIntent(domain.IntentNavigate, "Vamos a finanzas.", false, &domain.RawPayload{TargetView: "FINANCE"})
		},
	}
	reg, s := newTestSession(t, resolver)
	ctx := context.Background()

	// Act & Assert
	reg.dispatch(ctx, s, envelope(t, MsgToggle, nil))
	var listen listenData
	expectFrame(t, s, MsgListen, &listen)
	if listen.Locale != "es-AR" {
		t.Errorf("expected default locale, got %q", listen.Locale)
	}

	reg.dispatch(ctx, s, envelope(t, MsgTranscript, transcriptData{Text: "mostrame finanzas"}))
	var speech speechData
	expectFrame(t, s, MsgSpeak, &speech)
	if speech.Text != "Vamos a finanzas." || speech.ID == 0 {
		t.Errorf("unexpected speech %+v", speech)
	}
	reg.dispatch(ctx, s, envelope(t, MsgSpeechDone, speechData{ID: speech.ID}))

	var nav navigateData
	expectFrame(t, s, MsgNavigate, &nav)
	if nav.View != domain.ViewFinance {
		t.Errorf("expected FINANCE, got %q", nav.View)
	}

	ws, _ := s.Workspace(ctx)
	if ws.View != domain.ViewFinance {
		t.Errorf("session should mirror the new view, got %q", ws.View)
	}
}

func TestSession_ConfirmUpdate(t *testing.T) {
	resolver := &mocks.MockIntentResolver{
		ResolveFunc: func(ctx context.Context, transcript string, ws domain.Workspace, history []domain.ConversationTurn) domain.ResolvedIntent {
			rent := domain.LooseNumber(400000)
			return domain.NewResolvedIntent(domain.IntentUpdateProperty, "¿Confirmás?", false, &domain.RawPayload{
				ActionType: "CHANGE_RENT",
				PropertyID: "p1",
				NewRent:    &rent,
			})
		},
	}
	reg, s := newTestSession(t, resolver)
	ctx := context.Background()

	reg.dispatch(ctx, s, envelope(t, MsgToggle, nil))
	reg.dispatch(ctx, s, envelope(t, MsgTranscript, transcriptData{Text: "subí Corrientes a 400 mil"}))

	var c domain.Confirmation
	expectFrame(t, s, MsgConfirmation, &c)
	if c.Kind != domain.ConfirmationUpdate || c.PropertyAddress != "Av. Corrientes 1234" {
		t.Errorf("unexpected confirmation %+v", c)
	}

	deadline := time.Now().Add(2 * time.Second)
	for s.controller.State() != voice.StateAwaitingConfirmation && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}

	reg.dispatch(ctx, s, envelope(t, MsgConfirm, kindData{Kind: domain.ConfirmationUpdate}))

	var p domain.Property
	expectFrame(t, s, MsgPropertyUpdated, &p)
	if p.ID != "p1" || p.MonthlyRent != 400000 {
		t.Errorf("unexpected property %+v", p)
	}
	if st, ok := reg.Status("s1"); !ok || st.State != "idle" {
		t.Errorf("expected idle session, got %+v %v", st, ok)
	}
}

func TestSession_RecognitionUnsupported(t *testing.T) {
	reg, s := newTestSession(t, &mocks.MockIntentResolver{})
	ctx := context.Background()

	reg.dispatch(ctx, s, envelope(t, MsgCapabilities, capabilitiesData{Recognition: false, Synthesis: true}))
	reg.dispatch(ctx, s, envelope(t, MsgToggle, nil))

	var e errorData
	expectFrame(t, s, MsgError, &e)
	if e.Message != msgCaptureUnsupported {
		t.Errorf("unexpected error %q", e.Message)
	}
}

func TestSession_SynthesisUnsupported(t *testing.T) {
	_, s := newTestSession(t, &mocks.MockIntentResolver{})
	s.updateCapabilities(capabilitiesData{Recognition: true, Synthesis: false})

	if err := s.Speak(context.Background(), "hola", "es-AR", func() {}); err != ErrSynthesisUnsupported {
		t.Errorf("expected ErrSynthesisUnsupported, got %v", err)
	}
}

func TestSession_ContextMirrorsSelection(t *testing.T) {
	reg, s := newTestSession(t, &mocks.MockIntentResolver{})

	reg.dispatch(context.Background(), s, envelope(t, MsgContext, contextData{
		View:               "tenants",
		SelectedPropertyID: "p1",
	}))
	ws, err := s.Workspace(context.Background())

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ws.View != domain.ViewTenants || ws.SelectedProperty == nil || ws.SelectedProperty.ID != "p1" {
		t.Errorf("unexpected workspace %+v", ws)
	}
	if ws.SelectedProfessional != nil {
		t.Errorf("expected no selected professional, got %+v", ws.SelectedProfessional)
	}
}

func TestSession_SpeechDoneRunsOnce(t *testing.T) {
	_, s := newTestSession(t, &mocks.MockIntentResolver{})
	calls := 0

	_ = s.Speak(context.Background(), "hola", "es-AR", func() { calls++ })
	s.speechDone(1)
	s.speechDone(1)

	if calls != 1 {
		t.Errorf("expected completion once, got %d", calls)
	}

	_ = s.Speak(context.Background(), "chau", "es-AR", func() { calls++ })
	s.CancelSpeech()
	s.speechDone(2)
	if calls != 1 {
		t.Errorf("cancelled speech must not complete, got %d", calls)
	}
}

func TestRegistry_Relay(t *testing.T) {
	reg, s := newTestSession(t, &mocks.MockIntentResolver{})

	bus := mocks.NewMockEventPublisher()
	if err := bus.Subscribe(domain.SubjectPropertyUpdated, reg.Relay(domain.SubjectPropertyUpdated)); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if err := bus.Deliver(domain.SubjectPropertyUpdated, []byte(`{"property_id":"p1"}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var ev eventData
	expectFrame(t, s, MsgDataChanged, &ev)
	if ev.Subject != domain.SubjectPropertyUpdated || string(ev.Event) != `{"property_id":"p1"}` {
		t.Errorf("unexpected event %+v", ev)
	}

	if err := reg.Relay("x")([]byte("not json")); err == nil {
		t.Error("expected error for invalid event")
	}
	if reg.Count() != 1 {
		t.Errorf("expected 1 session, got %d", reg.Count())
	}
}

func TestRegistry_AddReplacesSameID(t *testing.T) {
	reg, s := newTestSession(t, &mocks.MockIntentResolver{})
	replacement := newSession("s1", testService(), newTestLogger())
	replacement.controller = s.controller

	reg.add(replacement)

	if _, ok := <-s.send; ok {
		t.Error("replaced session should be closed")
	}
	if reg.Count() != 1 {
		t.Errorf("expected 1 session, got %d", reg.Count())
	}
	reg.remove(s)
	if reg.Count() != 1 {
		t.Error("removing the stale session must keep the replacement")
	}
}
