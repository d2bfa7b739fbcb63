package notifier

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeTelegram answers the handful of Bot API methods the notifier uses.
type fakeTelegram struct {
	mu         sync.Mutex
	sent       []url.Values
	failSends  int
	failCode   int
	updates    []string
	delivered  bool
	sendSignal chan url.Values
}

func newFakeTelegram(t *testing.T) (*fakeTelegram, *TelegramNotifier) {
	t.Helper()
	f := &fakeTelegram{sendSignal: make(chan url.Values, 16)}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	n, err := NewTelegramNotifier(TelegramOptions{
		BotToken:      "TEST",
		Endpoint:      srv.URL + "/bot%s/%s",
		RetryInterval: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}
	return f, n
}

func (f *fakeTelegram) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	w.Header().Set("Content-Type", "application/json")

	switch method {
	case "getMe":
		fmt.Fprint(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Signals","username":"testbot"}}`)
	case "sendMessage":
		f.mu.Lock()
		f.sent = append(f.sent, r.PostForm)
		fail := f.failSends != 0
		if f.failSends > 0 {
			f.failSends--
		}
		code := f.failCode
		f.mu.Unlock()
		if fail {
			w.WriteHeader(code)
			fmt.Fprintf(w, `{"ok":false,"error_code":%d,"description":"failure %d"}`, code, code)
			return
		}
		f.sendSignal <- r.PostForm
		fmt.Fprintf(w, `{"ok":true,"result":{"message_id":9,"date":0,"chat":{"id":%s,"type":"private"}}}`, r.PostForm.Get("chat_id"))
	case "getUpdates":
		f.mu.Lock()
		pending := !f.delivered && len(f.updates) > 0
		batch := strings.Join(f.updates, ",")
		if pending {
			f.delivered = true
		}
		f.mu.Unlock()
		if pending {
			fmt.Fprintf(w, `{"ok":true,"result":[%s]}`, batch)
			return
		}
		time.Sleep(10 * time.Millisecond)
		fmt.Fprint(w, `{"ok":true,"result":[]}`)
	default:
		http.Error(w, `{"ok":false}`, http.StatusNotFound)
	}
}

func (f *fakeTelegram) failWith(n, code int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failSends, f.failCode = n, code
}

func (f *fakeTelegram) queue(updates ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, updates...)
}

func (f *fakeTelegram) sendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}
