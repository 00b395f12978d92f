package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gorilla/websocket"

	"github.com/conundrumer/all-isbns/internal/diskcache"
)

func TestServeStaticInjectsReload(t *testing.T) {
	root := t.TempDir()
	page := "<html><body><canvas id=\"map\"></canvas></body></html>"
	if err := os.WriteFile(filepath.Join(root, "index.html"), []byte(page), 0644); err != nil {
		t.Fatal(err)
	}

	s := &mapServer{cfg: &Config{Root: root}, events: func(Event) {}}
	rec := httptest.NewRecorder()
	s.handler().ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "/livereload") {
		t.Error("reload script not injected")
	}
	if !strings.Contains(body, "<canvas") {
		t.Error("page content lost")
	}
	if strings.Index(body, "/livereload") > strings.Index(body, "</body>") {
		t.Error("script injected after </body>")
	}
}

func TestServeStaticPlainFile(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "app.js"), []byte("console.log(1)"), 0644); err != nil {
		t.Fatal(err)
	}

	s := &mapServer{cfg: &Config{Root: root}, events: func(Event) {}}
	rec := httptest.NewRecorder()
	s.handler().ServeHTTP(rec, httptest.NewRequest("GET", "/app.js", nil))

	if rec.Code != http.StatusOK || rec.Body.String() != "console.log(1)" {
		t.Errorf("status %d body %q", rec.Code, rec.Body.String())
	}
}

func TestServeDataLocal(t *testing.T) {
	data := t.TempDir()
	if err := os.WriteFile(filepath.Join(data, "manifest.json"), []byte(`{"sets":[]}`), 0644); err != nil {
		t.Fatal(err)
	}

	s := &mapServer{cfg: &Config{Root: t.TempDir(), Data: data}, events: func(Event) {}}
	rec := httptest.NewRecorder()
	s.handler().ServeHTTP(rec, httptest.NewRequest("GET", "/data/manifest.json", nil))

	if rec.Code != http.StatusOK || rec.Body.String() != `{"sets":[]}` {
		t.Errorf("status %d body %q", rec.Code, rec.Body.String())
	}
}

func TestServeDataProxyCaches(t *testing.T) {
	var hits int64
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png-bytes"))
	}))
	defer upstream.Close()

	cache, err := diskcache.Open(diskcache.Config{Dir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	s := &mapServer{
		cfg:    &Config{Root: t.TempDir(), Upstream: upstream.URL},
		cache:  cache,
		events: func(Event) {},
	}

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		s.handler().ServeHTTP(rec, httptest.NewRequest("GET", "/data/tiles/all/1_00_0_0.png", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status %d", i, rec.Code)
		}
		if got := rec.Body.String(); got != "png-bytes" {
			t.Fatalf("request %d: body %q", i, got)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
			t.Errorf("request %d: content type %q", i, ct)
		}
	}
	if n := atomic.LoadInt64(&hits); n != 1 {
		t.Errorf("upstream hit %d times, want 1", n)
	}
}

func TestServeDataProxyUpstreamMissing(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	defer upstream.Close()

	cache, err := diskcache.Open(diskcache.Config{Dir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	s := &mapServer{
		cfg:    &Config{Root: t.TempDir(), Upstream: upstream.URL},
		cache:  cache,
		events: func(Event) {},
	}

	rec := httptest.NewRecorder()
	s.handler().ServeHTTP(rec, httptest.NewRequest("GET", "/data/tiles/all/none.png", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status %d, want 404", rec.Code)
	}
}

func TestServeStaticRejectsTraversal(t *testing.T) {
	root := t.TempDir()
	outside := filepath.Join(filepath.Dir(root), "secret.txt")
	os.WriteFile(outside, []byte("secret"), 0644)
	defer os.Remove(outside)

	s := &mapServer{cfg: &Config{Root: root}, events: func(Event) {}}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	req.URL.Path = "/../secret.txt"
	s.serveStatic(rec, req)

	if body, _ := io.ReadAll(rec.Body); strings.Contains(string(body), "secret") {
		t.Error("path traversal escaped the web root")
	}
}

func TestInjectReloadWithoutBodyTag(t *testing.T) {
	out := injectReload([]byte("<html>bare</html>"))
	if !strings.Contains(string(out), "/livereload") {
		t.Error("script not appended")
	}
}

func TestWatchFilesDeliversEveryChange(t *testing.T) {
	root := t.TempDir()
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		t.Fatal(err)
	}
	defer watcher.Close()

	reloads := make(chan Event, 64)
	s := &mapServer{
		cfg:       &Config{Root: root},
		watcher:   watcher,
		wsClients: make(map[*websocket.Conn]bool),
		events: func(ev Event) {
			if ev.Kind == EventReload {
				reloads <- ev
			}
		},
	}
	if err := s.watchTree(root); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.watchFiles(ctx)

	// Writes spaced wider than the debounce window, so flushes interleave
	// with new events arriving.
	const n = 4
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("f%d.css", i)
		if err := os.WriteFile(filepath.Join(root, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(120 * time.Millisecond)
	}

	seen := make(map[string]bool)
	deadline := time.After(5 * time.Second)
	for len(seen) < n {
		select {
		case ev := <-reloads:
			for _, name := range strings.Split(ev.Detail, ", ") {
				seen[name] = true
			}
		case <-deadline:
			t.Fatalf("changes lost: saw %v of %d files", seen, n)
		}
	}
}

func TestLivereloadBroadcast(t *testing.T) {
	s := &mapServer{
		cfg:       &Config{Root: t.TempDir()},
		wsClients: make(map[*websocket.Conn]bool),
		upgrader:  websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		events:    func(Event) {},
	}
	srv := httptest.NewServer(s.handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/livereload"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	// The handler registers the client from its own goroutine.
	for i := 0; i < 200; i++ {
		s.wsMutex.RLock()
		n := len(s.wsClients)
		s.wsMutex.RUnlock()
		if n == 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	s.notifyClients("reload", map[string]interface{}{"files": []string{"app.wasm"}})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg map[string]interface{}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatal(err)
	}
	if msg["type"] != "RELOAD" {
		t.Errorf("message type %v", msg["type"])
	}
}

func TestShouldReload(t *testing.T) {
	yes := []string{"index.html", "app.wasm", "style.css", "main.js", "manifest.json"}
	no := []string{"app.go", "notes.txt", "tile.png"}
	for _, name := range yes {
		if !shouldReload(name) {
			t.Errorf("shouldReload(%q) = false", name)
		}
	}
	for _, name := range no {
		if shouldReload(name) {
			t.Errorf("shouldReload(%q) = true", name)
		}
	}
}
