package error_notificator_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/Vovarama1992/go-utils/logger"
	"go.uber.org/zap"

	"github.com/Felipe2109/voice_relay/internal/error_notificator"
)

type botAPI struct {
	mu      sync.Mutex
	chatID  string
	text    string
	sendErr bool
}

func (b *botAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, "/getMe"):
		_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"relay","username":"relay_bot"}}`))
	case strings.HasSuffix(r.URL.Path, "/sendMessage"):
		_ = r.ParseForm()
		b.mu.Lock()
		b.chatID = r.FormValue("chat_id")
		b.text = r.FormValue("text")
		fail := b.sendErr
		b.mu.Unlock()
		if fail {
			_, _ = w.Write([]byte(`{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"},"text":"ok"}}`))
	default:
		http.NotFound(w, r)
	}
}

func TestInfra_Notify(t *testing.T) {
	api := &botAPI{}
	srv := httptest.NewServer(api)
	defer srv.Close()

	infra, err := error_notificator.NewInfraWithEndpoint("123:abc", srv.URL+"/bot%s/%s", 42, srv.Client())
	if err != nil {
		t.Fatalf("NewInfraWithEndpoint: %v", err)
	}

	if err := infra.Notify(context.Background(), errors.New("whisper: 500"), "id=abc"); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	if api.chatID != "42" {
		t.Errorf("chat_id: got %q", api.chatID)
	}
	if !strings.Contains(api.text, "whisper: 500") || !strings.Contains(api.text, "id=abc") {
		t.Errorf("text missing details: %q", api.text)
	}
}

func TestService_NotifyLogsFailures(t *testing.T) {
	api := &botAPI{sendErr: true}
	srv := httptest.NewServer(api)
	defer srv.Close()

	infra, err := error_notificator.NewInfraWithEndpoint("123:abc", srv.URL+"/bot%s/%s", 42, srv.Client())
	if err != nil {
		t.Fatalf("NewInfraWithEndpoint: %v", err)
	}
	svc := error_notificator.NewService(infra, logger.NewZapLogger(zap.NewNop().Sugar()))

	if err := svc.Notify(context.Background(), errors.New("x"), "y"); err == nil {
		t.Error("expected send failure to surface")
	}
}

func TestNop(t *testing.T) {
	if err := (error_notificator.Nop{}).Notify(context.Background(), errors.New("x"), ""); err != nil {
		t.Errorf("Nop returned %v", err)
	}
}
