package notifier

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBotAPI answers getMe and sendMessage, failing the first failures sends.
type fakeBotAPI struct {
	mu       sync.Mutex
	failures int
	sent     []string
}

func (f *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/botTOKEN/getMe":
		fmt.Fprint(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"analyzer","username":"analyzer_bot"}}`)
	case "/botTOKEN/sendMessage":
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.failures > 0 {
			f.failures--
			fmt.Fprint(w, `{"ok":false,"error_code":500,"description":"Internal Server Error"}`)
			return
		}
		f.sent = append(f.sent, r.FormValue("chat_id")+":"+r.FormValue("text"))
		fmt.Fprint(w, `{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"},"text":"ok"}}`)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeBotAPI) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func newTestNotifier(t *testing.T, api *fakeBotAPI) *TelegramNotifier {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	n, err := newTelegramNotifier("TOKEN", 42, srv.URL+"/bot%s/%s", "", nil)
	require.NoError(t, err)
	n.BaseBackoff = time.Millisecond
	return n
}

func TestTelegramNotifier_Send(t *testing.T) {
	api := &fakeBotAPI{}
	n := newTestNotifier(t, api)

	require.NoError(t, n.Send("<b>hi</b>"))
	assert.Equal(t, []string{"42:<b>hi</b>"}, api.messages())
}

func TestTelegramNotifier_SendWithRetry(t *testing.T) {
	api := &fakeBotAPI{failures: 2}
	n := newTestNotifier(t, api)

	require.NoError(t, n.SendWithRetry(context.Background(), "report", 3))
	assert.Equal(t, []string{"42:report"}, api.messages())
}

func TestTelegramNotifier_SendWithRetryExhausted(t *testing.T) {
	api := &fakeBotAPI{failures: 10}
	n := newTestNotifier(t, api)

	err := n.SendWithRetry(context.Background(), "report", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 2 attempts failed")
	assert.Empty(t, api.messages())
}

func TestNewTelegramNotifier_BadToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"ok":false,"error_code":401,"description":"Unauthorized"}`)
	}))
	defer srv.Close()

	_, err := newTelegramNotifier("BAD", 42, srv.URL+"/bot%s/%s", "", nil)
	assert.Error(t, err)
}
