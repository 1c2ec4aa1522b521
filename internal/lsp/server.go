package lsp

import (
	"bufio"
	"encoding/json"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"

	"funls/internal/complete"
	"funls/internal/index"
	"funls/internal/shared/observability"
	"funls/internal/shared/util"
)

const serverName = "funls"

// Server speaks LSP over a reader/writer pair (stdio in production).
// Document sync is full-text: every change reparses the whole buffer,
// which is what the line normalizer expects anyway.
type Server struct {
	in  *bufio.Reader
	out io.Writer

	index    *index.Service
	resolver *complete.Resolver
	limiter  *util.RequestLimiter

	// onRescan is invoked after didClose so the on-disk state wins again.
	onRescan func()
	// onConfigChange recomputes search roots and rescans.
	onConfigChange func()

	session string
	version string

	docsMu sync.RWMutex
	docs   map[string]string // uri -> buffer text

	outMu    sync.Mutex
	shutdown bool
}

type Options struct {
	Version        string
	OnRescan       func()
	OnConfigChange func()
	// RequestsPerMinute caps completion requests; zero disables limiting.
	RequestsPerMinute int
	RateBurst         int
}

func NewServer(in io.Reader, out io.Writer, idx *index.Service, resolver *complete.Resolver, opts Options) *Server {
	s := &Server{
		in:             bufio.NewReader(in),
		out:            out,
		index:          idx,
		resolver:       resolver,
		onRescan:       opts.OnRescan,
		onConfigChange: opts.OnConfigChange,
		session:        uuid.NewString(),
		version:        opts.Version,
		docs:           make(map[string]string),
	}
	if opts.RequestsPerMinute > 0 {
		s.limiter = util.NewRequestLimiter(opts.RequestsPerMinute, opts.RateBurst)
	}
	return s
}

// Run processes messages until EOF or an exit notification.
func (s *Server) Run() error {
	slog.Info("lsp session started", "session", s.session)
	for {
		body, err := ReadMessage(s.in)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		var req Request
		if err := json.Unmarshal(body, &req); err != nil {
			slog.Warn("malformed message", "session", s.session, "error", err)
			continue
		}

		if req.Method == "exit" {
			slog.Info("lsp session ended", "session", s.session)
			return nil
		}
		s.dispatch(&req)
	}
}

func (s *Server) dispatch(req *Request) {
	if s.shutdown && len(req.ID) > 0 {
		s.respond(req.ID, nil, &ResponseError{Code: CodeRequestRejected, Message: "server is shutting down"})
		return
	}

	switch req.Method {
	case "initialize":
		s.handleInitialize(req)
	case "initialized":
		// Notification; nothing to do.
	case "shutdown":
		s.shutdown = true
		s.respond(req.ID, nil, nil)
	case "textDocument/didOpen":
		s.handleDidOpen(req)
	case "textDocument/didChange":
		s.handleDidChange(req)
	case "textDocument/didClose":
		s.handleDidClose(req)
	case "textDocument/completion":
		s.handleCompletion(req)
	case "workspace/didChangeConfiguration":
		// Settings live in the TOML file; re-read roots and reconcile.
		if s.onConfigChange != nil {
			s.onConfigChange()
		}
	default:
		if len(req.ID) > 0 {
			s.respond(req.ID, nil, &ResponseError{Code: CodeMethodNotFound, Message: "unsupported method: " + req.Method})
		}
	}
}

func (s *Server) handleInitialize(req *Request) {
	result := InitializeResult{
		Capabilities: ServerCapabilities{
			TextDocumentSync: TextDocumentSyncOptions{OpenClose: true, Change: 1},
			CompletionProvider: &CompletionOptions{
				TriggerCharacters: []string{".", "@"},
			},
		},
		ServerInfo: map[string]string{"name": serverName, "version": s.version},
	}
	s.respond(req.ID, result, nil)
}

func (s *Server) handleDidOpen(req *Request) {
	var params DidOpenTextDocumentParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		slog.Warn("bad didOpen params", "error", err)
		return
	}

	uri := params.TextDocument.URI
	s.docsMu.Lock()
	s.docs[uri] = params.TextDocument.Text
	s.docsMu.Unlock()

	if path, ok := uriToPath(uri); ok {
		s.index.UpdateDocument(path, params.TextDocument.Text)
	}
}

func (s *Server) handleDidChange(req *Request) {
	var params DidChangeTextDocumentParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		slog.Warn("bad didChange params", "error", err)
		return
	}
	if len(params.ContentChanges) == 0 {
		return
	}

	// Full sync: the last change carries the entire buffer.
	text := params.ContentChanges[len(params.ContentChanges)-1].Text
	uri := params.TextDocument.URI

	s.docsMu.Lock()
	s.docs[uri] = text
	s.docsMu.Unlock()

	if path, ok := uriToPath(uri); ok {
		s.index.UpdateDocument(path, text)
	}
}

func (s *Server) handleDidClose(req *Request) {
	var params DidCloseTextDocumentParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		slog.Warn("bad didClose params", "error", err)
		return
	}

	s.docsMu.Lock()
	delete(s.docs, params.TextDocument.URI)
	s.docsMu.Unlock()

	// Discard buffer state in favor of the file on disk.
	if s.onRescan != nil {
		s.onRescan()
	}
}

func (s *Server) handleCompletion(req *Request) {
	if s.limiter != nil && !s.limiter.Allow() {
		observability.RequestsDroppedTotal.Inc()
		s.respond(req.ID, []CompletionItem{}, nil)
		return
	}

	var params CompletionParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.respond(req.ID, nil, &ResponseError{Code: CodeInvalidParams, Message: err.Error()})
		return
	}

	s.docsMu.RLock()
	text, open := s.docs[params.TextDocument.URI]
	s.docsMu.RUnlock()
	if !open {
		s.respond(req.ID, []CompletionItem{}, nil)
		return
	}

	prefix := linePrefix(text, params.Position)

	docModule := ""
	if path, ok := uriToPath(params.TextDocument.URI); ok {
		if name, ok := s.index.ComputeModuleName(path); ok {
			docModule = name
		}
	}

	candidates := s.resolver.Complete(prefix, docModule)
	items := make([]CompletionItem, 0, len(candidates))
	for _, c := range candidates {
		items = append(items, CompletionItem{
			Label: c.Name,
			Kind:  itemKind(c.Kind),
		})
	}
	s.respond(req.ID, items, nil)
}

func (s *Server) respond(id json.RawMessage, result any, respErr *ResponseError) {
	if len(id) == 0 {
		return
	}
	s.outMu.Lock()
	defer s.outMu.Unlock()
	if respErr == nil && result == nil {
		result = json.RawMessage("null")
	}
	if err := WriteMessage(s.out, Response{JSONRPC: "2.0", ID: id, Result: result, Error: respErr}); err != nil {
		slog.Error("write response failed", "session", s.session, "error", err)
	}
}

func itemKind(kind complete.Kind) int {
	switch kind {
	case complete.KindMethod:
		return ItemKindMethod
	case complete.KindFunction:
		return ItemKindFunction
	case complete.KindVariable:
		return ItemKindVariable
	case complete.KindClass, complete.KindType:
		return ItemKindClass
	case complete.KindModule:
		return ItemKindModule
	case complete.KindProperty:
		return ItemKindProperty
	case complete.KindKeyword:
		return ItemKindKeyword
	default:
		return 0
	}
}

// linePrefix returns the requested line up to the cursor column. Columns
// arrive as UTF-16 code units; source is counted rune by rune and
// clamped to the line end.
func linePrefix(text string, pos Position) string {
	lines := strings.Split(text, "\n")
	if pos.Line < 0 || pos.Line >= len(lines) {
		return ""
	}
	line := strings.TrimSuffix(lines[pos.Line], "\r")

	units := 0
	for i, r := range line {
		if units >= pos.Character {
			return line[:i]
		}
		if r < 0x10000 {
			units++
		} else {
			units += 2
		}
	}
	return line
}

// uriToPath converts a file:// URI into a local path.
func uriToPath(uri string) (string, bool) {
	if !strings.HasPrefix(uri, "file://") {
		return "", false
	}
	path := strings.TrimPrefix(uri, "file://")
	if unescaped, err := url.PathUnescape(path); err == nil {
		path = unescaped
	}
	if path == "" {
		return "", false
	}
	return path, true
}
