// Package devserver hosts a minimal module-resolution playground: a
// static file server that bundles requested JS/TS entry points through
// esbuild with the resolver wired in as a plugin, and a hot-reload
// websocket so edits on disk are pushed to the browser. Grounded on
// esm.sh's cli/dev_server.go (ServeHTTP dispatch, ServeHmrWS), trimmed to
// what exercises the resolver rather than esm.sh's full transform
// pipeline (markdown/uno-css/vue/svelte rendering, which belong to a
// different spec).
package devserver

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	esbuild "github.com/evanw/esbuild/pkg/api"
	"github.com/fsnotify/fsnotify"
	"github.com/gorilla/websocket"
	"github.com/ije/gox/log"
	"github.com/ije/rex"
	"golang.org/x/net/html"

	"github.com/esmresolve/modresolve/internal/mime"
	"github.com/esmresolve/modresolve/internal/pluginhost"
	"github.com/esmresolve/modresolve/resolver"
)

var moduleExts = []string{".js", ".mjs", ".jsx", ".ts", ".mts", ".tsx"}

// Server serves rootDir over HTTP, resolving and bundling module entry
// points with res on demand.
type Server struct {
	rootDir string
	dev     bool
	res     *resolver.Resolver
	opts    resolver.Options
	logger  *log.Logger

	watchMu sync.RWMutex
	watched map[*websocket.Conn]bool
	watcher *fsnotify.Watcher
}

// New creates a Server rooted at rootDir, reusing res for all module
// resolutions it performs.
func New(rootDir string, res *resolver.Resolver, opts resolver.Options, dev bool) (*Server, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("devserver: starting file watcher: %w", err)
	}
	if err := watcher.Add(rootDir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("devserver: watching %s: %w", rootDir, err)
	}
	logger := opts.Logger
	if logger == nil {
		logger, _ = log.New("stdout")
	}
	s := &Server{
		rootDir: rootDir,
		dev:     dev,
		res:     res,
		opts:    opts,
		logger:  logger,
		watched: make(map[*websocket.Conn]bool),
		watcher: watcher,
	}
	go s.watchLoop()
	return s, nil
}

// Close stops the background file watcher.
func (s *Server) Close() error {
	return s.watcher.Close()
}

// Handler returns the rex handle chain for mounting on an HTTP server,
// matching esm.sh's rex.Use(middlewares..., handler) composition.
func (s *Server) Handler() rex.Handle {
	return func(ctx *rex.Context) interface{} {
		pathname := ctx.R.URL.Path
		if pathname == "/@hmr-ws" {
			s.serveHmrWS(ctx.W, ctx.R)
			return nil
		}

		filename := filepath.Join(s.rootDir, pathname)
		fi, err := os.Lstat(filename)
		if err == nil && fi.IsDir() {
			pathname = strings.TrimSuffix(pathname, "/") + "/index.html"
			filename = filepath.Join(s.rootDir, pathname)
			fi, err = os.Lstat(filename)
		}
		if err != nil {
			if os.IsNotExist(err) {
				return rex.Status(404, "Not Found")
			}
			return rex.Status(500, err.Error())
		}

		if isModulePath(filename) {
			code, err := s.bundle(pathname)
			if err != nil {
				s.logger.Errorf("bundle %s: %v", pathname, err)
				return rex.Status(500, err.Error())
			}
			return &rex.TypedContent{
				Content:     []byte(code),
				ContentType: "application/javascript; charset=utf-8",
			}
		}

		if filepath.Ext(filename) == ".html" {
			page, err := s.serveHTML(filename)
			if err != nil {
				return rex.Status(500, err.Error())
			}
			return &rex.TypedContent{Content: page, ContentType: "text/html; charset=utf-8"}
		}

		data, err := os.ReadFile(filename)
		if err != nil {
			return rex.Status(500, err.Error())
		}
		contentType := mime.GetContentType(filename)
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		return &rex.TypedContent{Content: data, ContentType: contentType}
	}
}

// serveHTML streams filename's markup unchanged, except that any
// `<script type="module" src="...">` whose src is a local module path (no
// "://") is re-emitted with only its type and src attributes; the src
// value itself is not changed. It then appends an HMR client that reloads
// the page when a watched file changes. Grounded on esm.sh's cli/dev_server.go
// ServeHtml tokenizer walk, trimmed to the module-script-rewrite and
// reload-on-change concerns relevant here (no markdown/uno-css handling).
func (s *Server) serveHTML(filename string) ([]byte, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []byte
	tokenizer := html.NewTokenizer(f)
	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt == html.StartTagToken {
			tagName, moreAttr := tokenizer.TagName()
			if string(tagName) == "script" {
				attrs := map[string]string{}
				for moreAttr {
					var key, val []byte
					key, val, moreAttr = tokenizer.TagAttr()
					attrs[string(key)] = string(val)
				}
				src := attrs["src"]
				if attrs["type"] == "module" && isModulePath(src) && (strings.HasPrefix(src, "./") || strings.HasPrefix(src, "/") || !strings.Contains(src, "://")) {
					out = append(out, []byte(`<script type="module" src="`+src+`">`)...)
					continue
				}
			}
		}
		out = append(out, tokenizer.Raw()...)
	}
	out = append(out, []byte(hmrClientScript())...)
	return out, nil
}

func hmrClientScript() string {
	return `<script type="module">
const ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/@hmr-ws");
ws.onmessage = () => location.reload();
</script>`
}

func isModulePath(filename string) bool {
	ext := filepath.Ext(filename)
	for _, e := range moduleExts {
		if e == ext {
			return true
		}
	}
	return false
}

// bundle resolves and bundles the entry at pathname through esbuild,
// wiring s.res in as the resolve/load plugin (§6's plugin-host contract).
func (s *Server) bundle(pathname string) (string, error) {
	entry := filepath.Join(s.rootDir, pathname)
	plugin := pluginhost.New(s.res, s.opts, s.dev)
	result := esbuild.Build(esbuild.BuildOptions{
		EntryPoints: []string{entry},
		Bundle:      true,
		Write:       false,
		Format:      esbuild.FormatESModule,
		Platform:    esbuild.PlatformBrowser,
		Target:      esbuild.ESNext,
		Outdir:      "/esbuild",
		Plugins:     []esbuild.Plugin{plugin},
	})
	if len(result.Errors) > 0 {
		return "", fmt.Errorf("%s", result.Errors[0].Text)
	}
	if len(result.OutputFiles) == 0 {
		return "", fmt.Errorf("devserver: esbuild produced no output for %s", pathname)
	}
	return string(result.OutputFiles[0].Contents), nil
}

// serveHmrWS upgrades r to a websocket and registers conn for file-change
// notifications until the client disconnects. Grounded on esm.sh's
// ServeHmrWS, simplified from esm.sh's per-connection watch-list protocol
// to a single "reload" broadcast — this server has no per-module HMR
// acceptance protocol of its own.
func (s *Server) serveHmrWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	s.watchMu.Lock()
	s.watched[conn] = true
	s.watchMu.Unlock()
	defer func() {
		s.watchMu.Lock()
		delete(s.watched, conn)
		s.watchMu.Unlock()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// watchLoop replaces esm.sh's 100ms stat-polling loop (cli/dev_server.go
// watchFS) with an fsnotify-driven push, broadcasting a reload to every
// connected HMR client on any write/create/remove/rename of an entry
// directly inside rootDir. The watch is not recursive: changes inside
// subdirectories are not seen.
func (s *Server) watchLoop() {
	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			s.broadcastReload(event.Name)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Errorf("watch: %v", err)
		}
	}
}

func (s *Server) broadcastReload(filename string) {
	rel, err := filepath.Rel(s.rootDir, filename)
	if err != nil {
		rel = filename
	}
	msg := []byte("reload:" + filepath.ToSlash(rel))
	s.watchMu.RLock()
	defer s.watchMu.RUnlock()
	for conn := range s.watched {
		conn.WriteMessage(websocket.TextMessage, msg)
	}
}
