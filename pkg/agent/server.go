// Package agent exposes a card reader over HTTP.
//
//	POST /api/card/read                      read the card on the reader
//	GET  /api/card/last                      last read result
//	GET  /api/card/last/face                 face image of the last read
//	GET  /api/card/last/fingerprints/{index} fingerprint template of the last read
//	POST /api/card/verify                    access decision against the last read
//	GET  /healthz
//
// Results are JSON, or deterministic CBOR when the request accepts
// application/cbor.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gregLibert/sam-reader/pkg/access"
	"github.com/gregLibert/sam-reader/pkg/samcard"
)

const (
	contentJSON = "application/json"
	contentCBOR = "application/cbor"

	// requestIDHeader is echoed back, or generated when absent.
	requestIDHeader = "X-Request-ID"

	// maxProbeSize bounds a verify request body.
	maxProbeSize = 4 << 20
)

// CardReader is what the server needs from samcard.Reader.
type CardReader interface {
	ReadSecureCardData(ctx context.Context, creds samcard.Credentials) *samcard.SecureCardData
}

// Server keeps the last read result in memory.
type Server struct {
	reader CardReader
	policy *access.Policy
	logger *log.Logger

	mu   sync.RWMutex
	last *samcard.SecureCardData
}

// ReadRequest is the body of POST /api/card/read. An empty body reads with
// zero credentials.
type ReadRequest struct {
	Password string `json:"password"`
	KeyIndex int    `json:"keyIndex"`
}

// ErrorResponse is the body of every non-2xx JSON answer.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewServer returns a Server. A nil policy makes /api/card/verify answer 501.
func NewServer(reader CardReader, policy *access.Policy, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Server{reader: reader, policy: policy, logger: logger}
}

// Handler returns the routed, CORS-enabled and access-logged handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(handlers.CORS(
		handlers.AllowedMethods([]string{"POST", "GET"}),
		handlers.AllowedHeaders([]string{"content-type", "accept"}),
		handlers.AllowedOrigins([]string{"*"}),
		handlers.ExposedHeaders([]string{requestIDHeader, "ETag"}),
	))
	r.Use(requestID)

	api := r.PathPrefix("/api/card").Subrouter()
	api.HandleFunc("/read", s.Read).Methods("POST", "OPTIONS")
	api.HandleFunc("/last", s.Last).Methods("GET", "OPTIONS")
	api.HandleFunc("/last/face", s.Face).Methods("GET", "OPTIONS")
	api.HandleFunc("/last/fingerprints/{index:[0-9]+}", s.Fingerprint).Methods("GET", "OPTIONS")
	api.HandleFunc("/verify", s.Verify).Methods("POST", "OPTIONS")

	r.HandleFunc("/healthz", s.Health).Methods("GET")

	return handlers.LoggingHandler(s.logger.Writer(), r)
}

// Store replaces the last result, for reads started outside the HTTP API.
func (s *Server) Store(d *samcard.SecureCardData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = d
}

// LastResult returns the last stored result, or nil.
func (s *Server) LastResult() *samcard.SecureCardData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// Read reads the card and stores the result. The read outcome is in the
// body: a failed read is still a 200 with isAuthenticated false.
func (s *Server) Read(w http.ResponseWriter, r *http.Request) {
	var req ReadRequest
	if err := parseJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		errorResponse(w, fmt.Errorf("failed to parse request: %w", err), http.StatusBadRequest)
		return
	}

	data := s.reader.ReadSecureCardData(r.Context(), samcard.Credentials{
		Password: req.Password,
		KeyIndex: req.KeyIndex,
	})
	s.Store(data)
	s.logger.Printf("%s read session %s: authenticated=%v", w.Header().Get(requestIDHeader), data.SessionID, data.IsAuthenticated)

	resultResponse(w, r, data)
}

// Last returns the last stored result.
func (s *Server) Last(w http.ResponseWriter, r *http.Request) {
	data := s.LastResult()
	if data == nil {
		errorResponse(w, errors.New("no card read yet"), http.StatusNotFound)
		return
	}
	resultResponse(w, r, data)
}

// Face serves the face image with its media type. The ETag is the SHA3-256
// of the image.
func (s *Server) Face(w http.ResponseWriter, r *http.Request) {
	data := s.LastResult()
	if data == nil || data.FaceImage == nil {
		errorResponse(w, errors.New("no face image"), http.StatusNotFound)
		return
	}

	etag := strconv.Quote(data.FaceDigest())
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", string(data.FaceFormat))
	w.Header().Set("Content-Length", strconv.Itoa(len(data.FaceImage)))
	w.Write(data.FaceImage)
}

// Fingerprint serves one template as application/octet-stream, its format
// in X-Template-Format.
func (s *Server) Fingerprint(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		errorResponse(w, fmt.Errorf("bad finger index: %w", err), http.StatusBadRequest)
		return
	}

	data := s.LastResult()
	if data == nil {
		errorResponse(w, errors.New("no card read yet"), http.StatusNotFound)
		return
	}
	fp, ok := data.Fingerprint(index)
	if !ok {
		errorResponse(w, fmt.Errorf("no template for finger %d", index), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("X-Template-Format", string(fp.Format))
	w.Header().Set("ETag", strconv.Quote(fp.Digest()))
	w.Write(fp.Template)
}

// Verify evaluates the access policy against the last read. The body is an
// access.Probe, with samples base64 encoded as JSON does for bytes.
func (s *Server) Verify(w http.ResponseWriter, r *http.Request) {
	if s.policy == nil {
		errorResponse(w, access.ErrNoVerifier, http.StatusNotImplemented)
		return
	}
	if err := s.policy.Ready(); err != nil {
		errorResponse(w, err, http.StatusNotImplemented)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxProbeSize)
	var probe access.Probe
	if err := parseJSON(r, &probe); err != nil {
		errorResponse(w, fmt.Errorf("failed to parse probe: %w", err), http.StatusBadRequest)
		return
	}

	data := s.LastResult()
	if data == nil {
		errorResponse(w, errors.New("no card read yet"), http.StatusNotFound)
		return
	}

	decision, err := s.policy.Evaluate(r.Context(), data, probe)
	if err != nil {
		errorResponse(w, err, http.StatusBadGateway)
		return
	}
	jsonResponse(w, decision, http.StatusOK)
}

// Health answers 200 while the process is up.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, map[string]string{"status": "ok"}, http.StatusOK)
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

func parseJSON(r *http.Request, v any) error {
	if r == nil || r.Body == nil {
		return io.EOF
	}
	defer r.Body.Close()
	defer io.Copy(io.Discard, r.Body)

	return json.NewDecoder(r.Body).Decode(v)
}

func wantsCBOR(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mediaType, _, _ := strings.Cut(strings.TrimSpace(part), ";")
		if strings.EqualFold(mediaType, contentCBOR) {
			return true
		}
	}
	return false
}

func resultResponse(w http.ResponseWriter, r *http.Request, d *samcard.SecureCardData) {
	if !wantsCBOR(r) {
		jsonResponse(w, d, http.StatusOK)
		return
	}
	out, err := samcard.EncodeCBOR(d)
	if err != nil {
		errorResponse(w, err, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentCBOR)
	w.WriteHeader(http.StatusOK)
	w.Write(out)
}

func jsonResponse(w http.ResponseWriter, d any, c int) {
	dj, err := json.Marshal(d)
	if err != nil {
		http.Error(w, "Error creating JSON response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentJSON)
	w.WriteHeader(c)
	w.Write(dj)
}

func errorResponse(w http.ResponseWriter, e error, c int) {
	jsonResponse(w, ErrorResponse{Error: e.Error()}, c)
}
