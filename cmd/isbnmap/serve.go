package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/conundrumer/all-isbns/internal/diskcache"
)

// reloadScript is injected into index.html before </body>. It reconnects
// with a small backoff so a server restart picks the page back up.
const reloadScript = `<script>
(function () {
	function connect() {
		var ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/livereload");
		ws.onmessage = function (ev) {
			var msg = JSON.parse(ev.data);
			if (msg.type === "RELOAD") location.reload();
		};
		ws.onclose = function () { setTimeout(connect, 1000); };
	}
	connect();
})();
</script>`

// mapServer serves the web app and its dataset, watches the web root for
// changes, and tells connected pages to reload over a websocket.
type mapServer struct {
	cfg   *Config
	cache *diskcache.Cache // nil unless proxying an upstream

	watcher  *fsnotify.Watcher
	upgrader websocket.Upgrader

	wsMutex   sync.RWMutex
	wsClients map[*websocket.Conn]bool

	events func(Event)
}

func newServeCommand() *cobra.Command {
	var (
		configPath string
		port       int
		host       string
		data       string
		proxy      string
		noTUI      bool
	)

	cmd := &cobra.Command{
		Use:   "serve [dir]",
		Short: "Start the development server",
		Long:  `Serves the web app and dataset with file watching and live reload.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if cmd.Flags().Changed("host") {
				cfg.Host = host
			}
			if len(args) == 1 {
				cfg.Root = args[0]
			}
			if cmd.Flags().Changed("data") {
				cfg.Data = data
			}
			if cmd.Flags().Changed("proxy") {
				cfg.Upstream = proxy
			}
			return runServe(cfg, noTUI || !stdoutIsTTY())
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "isbnmap.yml", "Config file")
	cmd.Flags().IntVarP(&port, "port", "p", 5173, "Port to listen on")
	cmd.Flags().StringVarP(&host, "host", "H", "localhost", "Host to bind to")
	cmd.Flags().StringVar(&data, "data", "data", "Local dataset directory")
	cmd.Flags().StringVar(&proxy, "proxy", "", "Proxy /data/ to this origin through the disk cache")
	cmd.Flags().BoolVar(&noTUI, "no-tui", false, "Plain log output instead of the status screen")

	return cmd
}

func runServe(cfg *Config, noTUI bool) error {
	s := &mapServer{
		cfg:       cfg,
		wsClients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		events: func(Event) {},
	}

	if cfg.Upstream != "" {
		cc := diskcache.DefaultConfig()
		if cfg.Cache.Dir != "" {
			cc.Dir = cfg.Cache.Dir
		}
		if cfg.Cache.MaxSize > 0 {
			cc.MaxSize = cfg.Cache.MaxSize
		}
		cache, err := diskcache.Open(cc)
		if err != nil {
			return fmt.Errorf("open cache: %w", err)
		}
		s.cache = cache
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	s.watcher = watcher
	defer watcher.Close()
	if err := s.watchTree(cfg.Root); err != nil {
		return fmt.Errorf("watch %s: %w", cfg.Root, err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go s.watchFiles(ctx)

	addr := net.JoinHostPort(cfg.Host, fmt.Sprint(cfg.Port))
	srv := &http.Server{Addr: addr, Handler: s.handler()}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	if noTUI {
		log.Printf("serving %s on http://%s", cfg.Root, addr)
		if cfg.Upstream != "" {
			log.Printf("proxying /data/ to %s", cfg.Upstream)
		}
		s.events = func(ev Event) { log.Printf("%s %s", ev.Kind, ev.Detail) }
		select {
		case <-ctx.Done():
		case err = <-errCh:
		}
	} else {
		err = runTUI(ctx, cancel, s, addr, errCh)
	}

	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	srv.Shutdown(shutdownCtx)
	return err
}

// handler builds the route table: the livereload socket, the dataset, and
// the static app.
func (s *mapServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/livereload", s.handleWebSocket)
	mux.Handle("/data/", http.StripPrefix("/data/", http.HandlerFunc(s.serveData)))
	mux.HandleFunc("/", s.serveStatic)
	return mux
}

func (s *mapServer) serveStatic(w http.ResponseWriter, r *http.Request) {
	s.events(Event{Kind: EventRequest, Detail: r.URL.Path})

	path := filepath.Join(s.cfg.Root, filepath.Clean("/"+r.URL.Path))
	if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		path = filepath.Join(path, "index.html")
	}

	// index.html gets the reload client stitched in.
	if filepath.Base(path) == "index.html" {
		data, err := os.ReadFile(path)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(injectReload(data))
		return
	}

	http.ServeFile(w, r, path)
}

// injectReload splices the reload script in before </body>, or appends it
// when the page has no closing body tag.
func injectReload(page []byte) []byte {
	if i := bytes.LastIndex(page, []byte("</body>")); i >= 0 {
		out := make([]byte, 0, len(page)+len(reloadScript))
		out = append(out, page[:i]...)
		out = append(out, reloadScript...)
		out = append(out, page[i:]...)
		return out
	}
	return append(append([]byte(nil), page...), reloadScript...)
}

// serveData serves one dataset artifact, from the upstream through the
// disk cache when proxying, otherwise from the local data directory.
func (s *mapServer) serveData(w http.ResponseWriter, r *http.Request) {
	s.events(Event{Kind: EventRequest, Detail: "/data/" + r.URL.Path})

	if s.cache == nil {
		http.ServeFile(w, r, filepath.Join(s.cfg.Data, filepath.Clean("/"+r.URL.Path)))
		return
	}

	key := r.URL.Path
	if data, contentType, ok := s.cache.Get(key); ok {
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.Write(data)
		return
	}

	resp, err := http.Get(strings.TrimSuffix(s.cfg.Upstream, "/") + "/" + key)
	if err != nil {
		s.events(Event{Kind: EventError, Detail: err.Error()})
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		http.Error(w, http.StatusText(resp.StatusCode), resp.StatusCode)
		return
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	contentType := resp.Header.Get("Content-Type")
	if err := s.cache.Put(key, contentType, data); err != nil {
		s.events(Event{Kind: EventError, Detail: "cache: " + err.Error()})
	}
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.Write(data)
}

func (s *mapServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.events(Event{Kind: EventError, Detail: "websocket upgrade: " + err.Error()})
		return
	}
	defer conn.Close()

	s.wsMutex.Lock()
	s.wsClients[conn] = true
	s.wsMutex.Unlock()

	defer func() {
		s.wsMutex.Lock()
		delete(s.wsClients, conn)
		s.wsMutex.Unlock()
	}()

	for {
		var msg map[string]interface{}
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.events(Event{Kind: EventError, Detail: "websocket: " + err.Error()})
			}
			return
		}
	}
}

func (s *mapServer) notifyClients(msgType string, data map[string]interface{}) {
	s.wsMutex.RLock()
	defer s.wsMutex.RUnlock()

	message := map[string]interface{}{"type": strings.ToUpper(msgType)}
	for k, v := range data {
		message[k] = v
	}
	for client := range s.wsClients {
		if err := client.WriteJSON(message); err != nil {
			s.events(Event{Kind: EventError, Detail: "websocket write: " + err.Error()})
		}
	}
}

// watchTree registers every directory under root, skipping hidden ones.
func (s *mapServer) watchTree(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		name := info.Name()
		if path != root && strings.HasPrefix(name, ".") {
			return filepath.SkipDir
		}
		if name == "node_modules" {
			return filepath.SkipDir
		}
		return s.watcher.Add(path)
	})
}

// watchFiles batches change events with a short debounce so one save that
// touches several files triggers a single reload. The debounce timer is a
// case in the same select loop, so pending events are only ever touched
// from this goroutine.
func (s *mapServer) watchFiles(ctx context.Context) {
	debounce := time.NewTimer(0)
	<-debounce.C // drain initial timer

	var pending []fsnotify.Event

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			// New directories join the watch so nested saves are seen.
			if event.Op&fsnotify.Create != 0 {
				if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
					s.watchTree(event.Name)
					continue
				}
			}
			if !shouldReload(event.Name) {
				continue
			}
			pending = append(pending, event)
			debounce.Reset(100 * time.Millisecond)

		case <-debounce.C:
			if len(pending) > 0 {
				s.flushChanges(pending)
				pending = nil
			}

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.events(Event{Kind: EventError, Detail: "watch: " + err.Error()})
		}
	}
}

func (s *mapServer) flushChanges(events []fsnotify.Event) {
	names := make([]string, 0, len(events))
	seen := make(map[string]bool)
	for _, ev := range events {
		base := filepath.Base(ev.Name)
		if !seen[base] {
			seen[base] = true
			names = append(names, base)
		}
	}
	s.events(Event{Kind: EventReload, Detail: strings.Join(names, ", ")})
	s.notifyClients("reload", map[string]interface{}{"files": names})
}

func stdoutIsTTY() bool {
	fi, err := os.Stdout.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}

func shouldReload(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".css", ".js", ".wasm", ".json":
		return true
	}
	return false
}
