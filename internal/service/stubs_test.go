package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Strob0t/MediaScout/internal/adapter/ws"
	"github.com/Strob0t/MediaScout/internal/domain/content"
	"github.com/Strob0t/MediaScout/internal/domain/recommendation"
	"github.com/Strob0t/MediaScout/internal/port/agentrunner"
	"github.com/Strob0t/MediaScout/internal/port/contentprovider"
)

// Shared fakes for the service tests: an in-memory cache, canned content
// providers, and a scriptable chat runner.

type stubCache struct {
	mu      sync.Mutex
	entries map[string]stubEntry
}

type stubEntry struct {
	value []byte
	at    time.Time
}

func newStubCache() *stubCache {
	return &stubCache{entries: make(map[string]stubEntry)}
}

func (c *stubCache) Get(_ context.Context, key string, ttl time.Duration) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || time.Since(e.at) >= ttl {
		return nil, false, nil
	}
	return e.value, true, nil
}

func (c *stubCache) Set(_ context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = stubEntry{value: value, at: time.Now()}
	return nil
}

func (c *stubCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

type stubMovies struct {
	searchCalls   atomic.Int32
	discoverCalls atomic.Int32
	search        func(query, year string) ([]content.Item, error)
	details       func(id string) (content.Item, error)
	popular       func() ([]content.Item, error)
	discover      func(opts contentprovider.DiscoverOptions) ([]content.Item, error)
}

func (s *stubMovies) SearchMovies(_ context.Context, query, year string) ([]content.Item, error) {
	s.searchCalls.Add(1)
	if s.search == nil {
		return nil, nil
	}
	return s.search(query, year)
}

func (s *stubMovies) MovieDetails(_ context.Context, id string) (content.Item, error) {
	if s.details == nil {
		return content.Item{}, nil
	}
	return s.details(id)
}

func (s *stubMovies) PopularMovies(context.Context) ([]content.Item, error) {
	if s.popular == nil {
		return nil, nil
	}
	return s.popular()
}

func (s *stubMovies) DiscoverMovies(_ context.Context, opts contentprovider.DiscoverOptions) ([]content.Item, error) {
	s.discoverCalls.Add(1)
	if s.discover == nil {
		return nil, nil
	}
	return s.discover(opts)
}

type stubBooks struct {
	searchCalls atomic.Int32
	search      func(query, genre string) ([]content.Item, error)
	details     func(id string) (content.Item, error)
}

func (s *stubBooks) SearchBooks(_ context.Context, query, genre string) ([]content.Item, error) {
	s.searchCalls.Add(1)
	if s.search == nil {
		return nil, nil
	}
	return s.search(query, genre)
}

func (s *stubBooks) BookDetails(_ context.Context, id string) (content.Item, error) {
	if s.details == nil {
		return content.Item{}, nil
	}
	return s.details(id)
}

type stubTV struct {
	searchCalls  atomic.Int32
	detailsCalls atomic.Int32
	search       func(query, year string) ([]content.Item, error)
	details      func(id string) (content.Item, error)
	popular      func() ([]content.Item, error)
	discover     func(opts contentprovider.DiscoverOptions) ([]content.Item, error)
}

func (s *stubTV) SearchTV(_ context.Context, query, year string) ([]content.Item, error) {
	s.searchCalls.Add(1)
	if s.search == nil {
		return nil, nil
	}
	return s.search(query, year)
}

func (s *stubTV) TVDetails(_ context.Context, id string) (content.Item, error) {
	s.detailsCalls.Add(1)
	if s.details == nil {
		return content.Item{}, nil
	}
	return s.details(id)
}

func (s *stubTV) PopularTV(context.Context) ([]content.Item, error) {
	if s.popular == nil {
		return nil, nil
	}
	return s.popular()
}

func (s *stubTV) DiscoverTV(_ context.Context, opts contentprovider.DiscoverOptions) ([]content.Item, error) {
	if s.discover == nil {
		return nil, nil
	}
	return s.discover(opts)
}

type stubSearch struct {
	news     func(query string) ([]contentprovider.Headline, error)
	trending func(media recommendation.MediaType) ([]contentprovider.Headline, error)
	similar  func(title string, media recommendation.MediaType) ([]string, error)
}

func (s *stubSearch) SearchNews(_ context.Context, query string) ([]contentprovider.Headline, error) {
	if s.news == nil {
		return nil, nil
	}
	return s.news(query)
}

func (s *stubSearch) Trending(_ context.Context, media recommendation.MediaType) ([]contentprovider.Headline, error) {
	if s.trending == nil {
		return nil, nil
	}
	return s.trending(media)
}

func (s *stubSearch) SimilarTitles(_ context.Context, title string, media recommendation.MediaType) ([]string, error) {
	if s.similar == nil {
		return nil, nil
	}
	return s.similar(title, media)
}

// stubHub records every broadcast event in order.
type stubHub struct {
	mu     sync.Mutex
	events []stubEvent
}

type stubEvent struct {
	eventType string
	payload   any
}

func (h *stubHub) BroadcastEvent(_ context.Context, eventType string, payload any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, stubEvent{eventType: eventType, payload: payload})
}

// runStages returns the run.stage payloads in broadcast order.
func (h *stubHub) runStages() []ws.RunStageEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	var stages []ws.RunStageEvent
	for _, e := range h.events {
		if se, ok := e.payload.(ws.RunStageEvent); ok {
			stages = append(stages, se)
		}
	}
	return stages
}

// taskEvents returns the task.status payloads as "task:status" strings.
func (h *stubHub) taskEvents() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var events []string
	for _, e := range h.events {
		if te, ok := e.payload.(ws.TaskStatusEvent); ok {
			events = append(events, fmt.Sprintf("%s:%s", te.Task, te.Status))
		}
	}
	return events
}

// stubRunner replies with the scripted messages in order, recording what it
// was asked. Once the script runs out it repeats the final message.
type stubRunner struct {
	mu       sync.Mutex
	script   []agentrunner.Message
	requests [][]agentrunner.Message
	toolDefs [][]agentrunner.ToolDef
	err      error
	delay    time.Duration
}

func (r *stubRunner) Chat(ctx context.Context, messages []agentrunner.Message, tools []agentrunner.ToolDef) (agentrunner.Message, error) {
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return agentrunner.Message{}, ctx.Err()
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return agentrunner.Message{}, r.err
	}
	r.requests = append(r.requests, messages)
	r.toolDefs = append(r.toolDefs, tools)
	if len(r.script) == 0 {
		return agentrunner.Message{Role: agentrunner.RoleAssistant, Content: "done"}, nil
	}
	msg := r.script[0]
	if len(r.script) > 1 {
		r.script = r.script[1:]
	}
	return msg, nil
}
