package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Strob0t/MediaScout/internal/domain/content"
	"github.com/Strob0t/MediaScout/internal/domain/pipeline"
	"github.com/Strob0t/MediaScout/internal/port/agentrunner"
)

func twoTaskPlan() *pipeline.Plan {
	return &pipeline.Plan{Tasks: []pipeline.Task{
		{
			Name: "specialist",
			Agent: pipeline.Agent{
				Role:  "Movie Recommendation Specialist",
				Goal:  "Find great movies",
				Tools: []string{pipeline.ToolSearchMovies},
			},
			Description:    "Find 3 comedy movies.",
			ExpectedOutput: "A list of movies with details",
		},
		{
			Name: "editor",
			Agent: pipeline.Agent{
				Role: "Content Editor",
				Goal: "Produce the final list",
			},
			Description: "Format the final recommendations as JSON.",
		},
	}}
}

func TestCrewExecuteSequential(t *testing.T) {
	runner := &stubRunner{script: []agentrunner.Message{
		{Role: agentrunner.RoleAssistant, Content: "SPECIALIST OUTPUT"},
		{Role: agentrunner.RoleAssistant, Content: `[{"title": "Airplane!"}]`},
	}}
	crew := NewCrewService(runner, newTestToolService(nil, nil, nil, nil), 0)

	out, err := crew.Execute(context.Background(), twoTaskPlan(), nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out != `[{"title": "Airplane!"}]` {
		t.Fatalf("final output = %q", out)
	}
	if len(runner.requests) != 2 {
		t.Fatalf("runner saw %d calls, want 2", len(runner.requests))
	}

	first := runner.requests[0]
	if first[0].Role != agentrunner.RoleSystem || !strings.Contains(first[0].Content, "Movie Recommendation Specialist") {
		t.Errorf("first system message = %+v", first[0])
	}
	if !strings.Contains(first[1].Content, "Find 3 comedy movies.") || !strings.Contains(first[1].Content, "Expected output: A list of movies") {
		t.Errorf("first user message = %q", first[1].Content)
	}
	if strings.Contains(first[1].Content, "Context from earlier steps") {
		t.Error("first task must not carry predecessor context")
	}

	second := runner.requests[1]
	if !strings.Contains(second[1].Content, "[specialist]\nSPECIALIST OUTPUT") {
		t.Errorf("editor prompt missing specialist output:\n%s", second[1].Content)
	}

	// Tool definitions follow each agent's binding: the specialist gets its
	// search tool, the editor gets none.
	if len(runner.toolDefs[0]) != 1 || runner.toolDefs[0][0].Name != pipeline.ToolSearchMovies {
		t.Errorf("specialist tools = %+v", runner.toolDefs[0])
	}
	if len(runner.toolDefs[1]) != 0 {
		t.Errorf("editor tools = %+v", runner.toolDefs[1])
	}
}

func TestCrewExecuteToolLoop(t *testing.T) {
	movies := &stubMovies{search: func(query, year string) ([]content.Item, error) {
		return []content.Item{{ID: "1", Title: "Dune"}}, nil
	}}
	runner := &stubRunner{script: []agentrunner.Message{
		{
			Role: agentrunner.RoleAssistant,
			ToolCalls: []agentrunner.ToolCall{
				{ID: "call_1", Name: pipeline.ToolSearchMovies, Args: `{"query":"dune"}`},
			},
		},
		{Role: agentrunner.RoleAssistant, Content: "Dune is a great fit."},
	}}
	crew := NewCrewService(runner, newTestToolService(movies, nil, nil, nil), 0)

	plan := &pipeline.Plan{Tasks: twoTaskPlan().Tasks[:1]}
	out, err := crew.Execute(context.Background(), plan, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out != "Dune is a great fit." {
		t.Fatalf("final output = %q", out)
	}
	if movies.searchCalls.Load() != 1 {
		t.Fatalf("search called %d times", movies.searchCalls.Load())
	}

	// The second chat call must replay the assistant's tool request and the
	// tool result addressed to it.
	second := runner.requests[1]
	var sawCall, sawResult bool
	for _, m := range second {
		if m.Role == agentrunner.RoleAssistant && len(m.ToolCalls) == 1 {
			sawCall = true
		}
		if m.Role == agentrunner.RoleTool && m.ToolCallID == "call_1" && strings.Contains(m.Content, "Title: Dune") {
			sawResult = true
		}
	}
	if !sawCall || !sawResult {
		t.Fatalf("tool exchange not replayed: call=%v result=%v\n%+v", sawCall, sawResult, second)
	}
}

func TestCrewExecuteForcesAnswerAfterMaxIterations(t *testing.T) {
	toolCall := agentrunner.Message{
		Role: agentrunner.RoleAssistant,
		ToolCalls: []agentrunner.ToolCall{
			{ID: "call_n", Name: pipeline.ToolSearchMovies, Args: `{"query":"more"}`},
		},
	}
	runner := &stubRunner{script: []agentrunner.Message{
		toolCall,
		toolCall,
		{Role: agentrunner.RoleAssistant, Content: "forced answer"},
	}}
	crew := NewCrewService(runner, newTestToolService(nil, nil, nil, nil), 2)

	plan := &pipeline.Plan{Tasks: twoTaskPlan().Tasks[:1]}
	out, err := crew.Execute(context.Background(), plan, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out != "forced answer" {
		t.Fatalf("final output = %q", out)
	}
	if len(runner.requests) != 3 {
		t.Fatalf("runner saw %d calls, want 2 iterations + 1 forced turn", len(runner.requests))
	}
	if len(runner.toolDefs[2]) != 0 {
		t.Fatalf("forced turn must withhold tools, got %+v", runner.toolDefs[2])
	}
	last := runner.requests[2]
	if final := last[len(last)-1]; final.Role != agentrunner.RoleUser || !strings.Contains(final.Content, "final answer") {
		t.Fatalf("forced turn missing closing instruction: %+v", final)
	}
}

func TestCrewExecuteRunnerError(t *testing.T) {
	runner := &stubRunner{err: errors.New("model unavailable")}
	crew := NewCrewService(runner, newTestToolService(nil, nil, nil, nil), 0)

	_, err := crew.Execute(context.Background(), twoTaskPlan(), nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "task specialist") {
		t.Fatalf("error must name the failing task: %v", err)
	}
}

func TestCrewExecuteProgress(t *testing.T) {
	runner := &stubRunner{script: []agentrunner.Message{
		{Role: agentrunner.RoleAssistant, Content: "one"},
		{Role: agentrunner.RoleAssistant, Content: "two"},
	}}
	crew := NewCrewService(runner, newTestToolService(nil, nil, nil, nil), 0)

	var events []string
	progress := func(task, status string) { events = append(events, task+":"+status) }
	if _, err := crew.Execute(context.Background(), twoTaskPlan(), progress); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	want := []string{"specialist:started", "specialist:completed", "editor:started", "editor:completed"}
	if len(events) != len(want) {
		t.Fatalf("events = %v", events)
	}
	for i, w := range want {
		if events[i] != w {
			t.Fatalf("events[%d] = %q, want %q", i, events[i], w)
		}
	}
}
