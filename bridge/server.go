// Package bridge implements C5: the HTTP front-end that admits a query
// into the C6 cache, dispatches it through C3, and streams the
// negotiated serialization of the result.
package bridge

import (
	"context"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jdbcx/jdbcx-core/cache"
	"github.com/jdbcx/jdbcx-core/compress"
	"github.com/jdbcx/jdbcx-core/config"
	"github.com/jdbcx/jdbcx-core/errs"
	"github.com/jdbcx/jdbcx-core/extension"
	"github.com/jdbcx/jdbcx-core/logging"
	"github.com/jdbcx/jdbcx-core/parser"
	"github.com/jdbcx/jdbcx-core/result"
	"github.com/jdbcx/jdbcx-core/serialize"
	"github.com/jdbcx/jdbcx-core/variable"
)

// Server wires the chi router (the corpus's preferred lightweight
// router — the teacher carries no HTTP server of its own, so this is
// adopted per SPEC_FULL.md from the rest of the pack) to the cache,
// extension registry, and format/compression registries.
type Server struct {
	Acl         Acl
	BearerToken string

	router *chi.Mux

	cache       *cache.Cache
	extensions  *extension.Registry
	serializers *serialize.Registry
	compressors *compress.Registry
	global      *variable.GlobalScope
	configs     *config.Manager

	metrics *Metrics
	log     logging.Logger
}

// NewServer builds a ready-to-serve Server. Callers mount it with
// http.ListenAndServe(addr, srv).
// NewServer wires a Server. configs may be nil, in which case the
// /config endpoint reports that no config file was loaded.
func NewServer(
	c *cache.Cache,
	extensions *extension.Registry,
	serializers *serialize.Registry,
	compressors *compress.Registry,
	global *variable.GlobalScope,
	configs *config.Manager,
	log logging.Logger,
) *Server {
	s := &Server{
		cache:       c,
		extensions:  extensions,
		serializers: serializers,
		compressors: compressors,
		global:      global,
		metrics:     NewMetrics(),
		log:         log,
		configs:     configs,
		Acl:         Acl{AllowAll: true},
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.router.ServeHTTP(w, r) }

func (s *Server) buildRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(s.aclMiddleware)
	r.Use(s.authMiddleware)

	r.Get("/{context}/config", s.handleConfig)
	r.Get("/{context}/metrics", s.handleMetrics)
	r.Handle("/{context}/{qidfmt}", http.HandlerFunc(s.handleGetByQID))
	r.Post("/{context}/", s.handleSubmit)
	r.Get("/{context}/", s.handleQuery)
	r.Head("/{context}/", s.handleQuery)
	return r
}

func (s *Server) clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *Server) aclMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := s.clientIP(r)
		host := ""
		if len(s.Acl.AllowedHosts) > 0 {
			if names, err := net.LookupAddr(ip); err == nil && len(names) > 0 {
				host = strings.TrimSuffix(names[0], ".")
			}
		}
		if !s.Acl.Allow(host, ip) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !CheckBearer(r, s.BearerToken) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_ = s.metrics.WriteText(w)
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	if s.configs == nil {
		_, _ = w.Write([]byte("# no config file loaded\n"))
		return
	}
	out, err := s.configs.MarshalRedacted()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	_, _ = w.Write(out)
}

// handleQuery serves GET/HEAD ?q=... requests (spec.md §6 query params).
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.execute(w, r, q.Get("q"), q.Get("qid"), q.Get("m"), q.Get("f"), q.Get("c"), q.Get("txid"))
}

// handleSubmit serves POST bodies as the query text.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	buf := make([]byte, 0, 4096)
	tmp := make([]byte, 4096)
	for {
		n, err := r.Body.Read(tmp)
		if n > 0 {
			buf = append(buf, tmp[:n]...)
		}
		if err != nil {
			break
		}
	}
	q := r.URL.Query()
	s.execute(w, r, string(buf), q.Get("qid"), q.Get("m"), q.Get("f"), q.Get("c"), q.Get("txid"))
}

// handleGetByQID serves GET /{context}/{qid}.{format}.{encoding}
// (spec.md §6 path conventions), streaming an already-cached result.
func (s *Server) handleGetByQID(w http.ResponseWriter, r *http.Request) {
	qidfmt := chi.URLParam(r, "qidfmt")
	qid, pathFormat, pathCodec := splitQIDFmt(qidfmt)

	qi, ok := s.cache.Get(qid)
	if !ok {
		http.Error(w, "unknown qid", http.StatusNotFound)
		return
	}
	s.metrics.CacheHits.Add(1)

	res, ok := qi.Result()
	if !ok {
		http.Error(w, "result not ready", http.StatusNotFound)
		return
	}

	format := NegotiateFormat(pathFormat, r.URL.Query().Get("f"), r.Header.Get("Accept"))
	codec := NegotiateCodec(s.compressors, pathCodec, r.URL.Query().Get("c"), r.Header.Get("Accept-Encoding"))
	s.stream(w, res, format, codec, jsonArrayMode(r))
}

func splitQIDFmt(qidfmt string) (qid, format, encoding string) {
	parts := strings.Split(qidfmt, ".")
	qid = parts[0]
	if len(parts) > 1 {
		format = parts[1]
	}
	if len(parts) > 2 {
		encoding = parts[2]
	}
	return
}

// execute is the shared admission path for both GET and POST: resolve
// qid, single-flight into the cache, dispatch by mode, stream or
// redirect (spec.md §4.5 steps 3-6).
func (s *Server) execute(w http.ResponseWriter, r *http.Request, q, qid, modeToken, formatParam, codecParam, txid string) {
	s.metrics.RequestsTotal.Add(1)
	s.metrics.RequestsInflight.Add(1)
	defer s.metrics.RequestsInflight.Add(-1)

	if q == "" {
		w.WriteHeader(http.StatusOK)
		return
	}

	mode, ok := ParseMode(modeToken)
	if !ok {
		s.metrics.RequestsFailed.Add(1)
		http.Error(w, "malformed query mode", http.StatusBadRequest)
		return
	}

	if qid == "" {
		qid = uuid.NewString()
	}

	qi, err := s.cache.GetOrCreate(qid, func() *cache.QueryInfo {
		info := cache.NewQueryInfo(qid, q, s.log)
		info.TXID = txid
		info.Overrides = ExtractConfigOverrides(r.Header)
		return info
	})
	if err != nil {
		s.metrics.RequestsFailed.Add(1)
		if errs.Is(err, errs.KindCacheFull) {
			w.Header().Set("Retry-After", "1")
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	switch mode {
	case ModeSubmit:
		w.Header().Set("X-Query-Id", qid)
		w.WriteHeader(http.StatusOK)
		return
	case ModeRedirect:
		w.Header().Set("Location", "./"+qid)
		w.Header().Set("X-Query-Id", qid)
		w.WriteHeader(http.StatusFound)
		return
	case ModeAsync:
		go func() { _, _ = s.run(context.Background(), qi) }()
		w.Header().Set("X-Query-Id", qid)
		w.WriteHeader(http.StatusOK)
		return
	}

	res, err := s.run(r.Context(), qi)
	if err != nil {
		s.metrics.RequestsFailed.Add(1)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if mode == ModeMutation {
		if u, ok := res.(*result.UpdateResult); ok {
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte(formatAffected(u.Affected)))
			return
		}
	}

	format := NegotiateFormat("", formatParam, r.Header.Get("Accept"))
	codec := NegotiateCodec(s.compressors, "", codecParam, r.Header.Get("Accept-Encoding"))
	w.Header().Set("X-Query-Id", qid)
	s.stream(w, res, format, codec, jsonArrayMode(r))
}

// jsonArrayMode reads the result.json.array option (spec.md §4.4's
// NDJSON/JSONL "array mode": positional arrays instead of {name:
// value} objects).
func jsonArrayMode(r *http.Request) bool {
	return r.URL.Query().Get("result.json.array") == "true"
}

// run dispatches qi's query exactly once across however many callers
// are admitted onto the same qid: the first caller to win MarkRunning
// executes it, everyone else waits on qi.Done() for that result rather
// than racing a second SetResult (which would fail per QueryInfo's
// write-once contract).
func (s *Server) run(ctx context.Context, qi *cache.QueryInfo) (result.Result, error) {
	if !qi.MarkRunning() {
		select {
		case <-qi.Done():
			if res, ok := qi.Result(); ok {
				return res, nil
			}
			return nil, errs.ExecutionError(qi.QID, nil)
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	pq := parser.Parse(qi.Query, variable.TagBrace, 0, s.log)
	tracker := result.NewResourceTracker()
	_ = qi.SetResources(tracker)

	rendered := make([]string, len(pq.Blocks))
	var lastResult result.Result
	for i, block := range pq.Blocks {
		ec := &extension.Context{
			Ctx:       runCtx,
			Extension: block.Extension,
			Options:   variable.MergeOptions(nil, qi.Overrides, block.Options.Map()),
			Body:      block.Body,
			Global:    s.global,
			Chain:     variable.Chain{s.global},
			Tracker:   tracker,
			Log:       s.log,
		}
		res, err := extension.Dispatch(s.extensions, ec)
		if err != nil {
			_ = qi.Close()
			return nil, err
		}
		lastResult = res
		if block.EmitsOutput {
			rendered[i] = resultToString(res)
		}
	}

	if lastResult == nil {
		lastResult = result.NewScalarResult(result.StringValue(pq.Render(rendered)), tracker, s.log)
	}
	if err := qi.SetResult(lastResult); err != nil {
		return nil, err
	}
	return lastResult, nil
}

func resultToString(res result.Result) string {
	switch r := res.(type) {
	case *result.ScalarResult:
		s, _ := r.Value.AsString()
		return s
	default:
		return ""
	}
}

func formatAffected(n int64) string {
	return "affected " + strconv.FormatInt(n, 10)
}

// stream writes res through the negotiated serializer/compressor,
// setting Content-Type/Content-Encoding per spec.md §4.5 step 5.
func (s *Server) stream(w http.ResponseWriter, res result.Result, format serialize.Format, codec compress.Codec, arrayMode bool) {
	w.Header().Set("Accept-Ranges", "none")
	w.Header().Set("Connection", "close")
	w.Header().Set("Content-Type", FormatMIME(format))

	var dest = io.Writer(countingWriter{w, s.metrics})
	if codec != compress.None {
		if entry, ok := s.compressors.Lookup(codec); ok && entry.EncodeSupported {
			w.Header().Set("Content-Encoding", entry.MIMEEncoding)
			enc, err := entry.NewWriter(dest)
			if err == nil {
				defer enc.Close()
				dest = enc
			}
		}
	}

	var ser serialize.Serializer
	var ok bool
	if arrayMode && (format == serialize.JSONL || format == serialize.NDJSON) {
		ser = serialize.NewArrayModeJSONLinesSerializer(format == serialize.NDJSON)
	} else {
		ser, ok = s.serializers.Lookup(format)
		if !ok {
			http.Error(w, "unsupported format", http.StatusInternalServerError)
			return
		}
	}

	fields, rows := rowsOf(res)
	s.metrics.ObserveFormat(string(format))
	if err := ser.Serialize(dest, fields, rows); err != nil {
		s.log.Warn("stream serialization failed mid-body", "error", err)
	}
}

func rowsOf(res result.Result) ([]result.Field, result.RowIterator) {
	switch r := res.(type) {
	case *result.RowResult:
		return r.Fields, r.Rows
	case *result.ScalarResult:
		rr := r.AsRowResult()
		return rr.Fields, rr.Rows
	default:
		return nil, result.NewSliceIterator(nil)
	}
}

// countingWriter feeds Metrics.BytesOut without wrapping every codec's
// writer in its own accounting.
type countingWriter struct {
	w http.ResponseWriter
	m *Metrics
}

func (c countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.m.BytesOut.Add(int64(n))
	return n, err
}
