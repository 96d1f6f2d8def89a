package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	traceroot "github.com/traceroot-ai/traceroot-sdk-go"
)

// maxFanout bounds the names accepted by /fanout.
const maxFanout = 10

type Server struct {
	// baseURL is where /fanout sends its /greet calls.
	baseURL string
	client  *http.Client
}

func NewServer(baseURL string) *Server {
	return &Server{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  traceroot.HTTPClient(10 * time.Second),
	}
}

// greet is the traced unit of work behind /greet.
var greet = traceroot.Trace1(func(ctx context.Context, name string) (string, error) {
	traceroot.GetLogger().InfoContext(ctx, "Greeting inside decorated fn: "+name)
	return "Hello, " + name + "!", nil
}, traceroot.WithSpanName("greet"), traceroot.WithTraceParams())

type GreetResponse struct {
	Greeting  string `json:"greeting"`
	RequestID string `json:"request_id"`
}

func requestID(r *http.Request) string {
	if id := r.Header.Get("X-Request-ID"); id != "" {
		return id
	}
	return uuid.New().String()
}

func (s *Server) HandleGreet(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "world"
	}
	id := requestID(r)

	log := traceroot.NewLogger()
	defer log.WithMetadata(map[string]string{"requestId": id}).Release()

	greeting, err := greet(r.Context(), name)
	if err != nil {
		log.ErrorContext(r.Context(), "greet failed", "error", err)
		http.Error(w, "Failed to greet", http.StatusInternalServerError)
		return
	}
	log.InfoContext(r.Context(), "Greeting result: "+greeting)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(GreetResponse{Greeting: greeting, RequestID: id})
}

type FanoutResponse struct {
	Greetings []string `json:"greetings"`
}

func (s *Server) HandleFanout(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("names")
	if raw == "" {
		http.Error(w, "names is required", http.StatusBadRequest)
		return
	}
	names := strings.Split(raw, ",")
	if len(names) > maxFanout {
		http.Error(w, fmt.Sprintf("at most %d names", maxFanout), http.StatusBadRequest)
		return
	}

	id := requestID(r)
	greetings, err := traceroot.TraceFunction(r.Context(), "fanout",
		map[string]any{"requestId": id, "count": len(names)},
		func(ctx context.Context) ([]string, error) {
			out := make([]string, 0, len(names))
			for _, name := range names {
				g, err := s.callGreet(ctx, id, strings.TrimSpace(name))
				if err != nil {
					return nil, err
				}
				out = append(out, g)
			}
			return out, nil
		})
	if err != nil {
		traceroot.GetLogger().ErrorContext(r.Context(), "fanout failed", "error", err)
		http.Error(w, "Failed to fan out", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(FanoutResponse{Greetings: greetings})
}

func (s *Server) callGreet(ctx context.Context, id, name string) (string, error) {
	ctx = traceroot.WithPeerService(ctx, "greeter")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/greet?name="+url.QueryEscape(name), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("X-Request-ID", id)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("greet returned status %d", resp.StatusCode)
	}

	var body GreetResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode greet response: %w", err)
	}
	return body.Greeting, nil
}
