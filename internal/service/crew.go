package service

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/codes"

	msotel "github.com/Strob0t/MediaScout/internal/adapter/otel"
	"github.com/Strob0t/MediaScout/internal/domain/pipeline"
	"github.com/Strob0t/MediaScout/internal/port/agentrunner"
)

// defaultMaxIterations bounds the chat/tool loop per task. Specialist agents
// typically resolve a request in two or three turns; the bound only exists to
// stop a model that never commits to an answer.
const defaultMaxIterations = 10

// Task lifecycle statuses reported through the progress callback.
const (
	TaskStarted   = "started"
	TaskCompleted = "completed"
)

// TaskProgress receives task lifecycle notifications while a plan executes.
type TaskProgress func(task, status string)

// CrewService executes a recommendation plan task by task. Each task is one
// bounded chat loop: the agent's persona as the system message, the rendered
// description plus all predecessor outputs as the user message, tool calls
// dispatched through the registry until the model answers with text.
type CrewService struct {
	runner        agentrunner.Runner
	tools         *ToolService
	maxIterations int
}

// NewCrewService creates an executor over the given model runner and tool
// registry. maxIterations <= 0 selects the default bound.
func NewCrewService(runner agentrunner.Runner, tools *ToolService, maxIterations int) *CrewService {
	if maxIterations <= 0 {
		maxIterations = defaultMaxIterations
	}
	return &CrewService{runner: runner, tools: tools, maxIterations: maxIterations}
}

type taskOutput struct {
	name string
	text string
}

// Execute runs every task of the plan in order and returns the final task's
// text. Later tasks see the outputs of all earlier ones, so the editor always
// works over the full specialist and research material. progress may be nil.
func (s *CrewService) Execute(ctx context.Context, plan *pipeline.Plan, progress TaskProgress) (string, error) {
	outputs := make([]taskOutput, 0, len(plan.Tasks))
	for _, task := range plan.Tasks {
		if progress != nil {
			progress(task.Name, TaskStarted)
		}
		taskCtx, span := msotel.StartTaskSpan(ctx, task.Name)
		text, err := s.runTask(taskCtx, task, outputs)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			span.End()
			return "", fmt.Errorf("task %s: %w", task.Name, err)
		}
		span.End()
		outputs = append(outputs, taskOutput{name: task.Name, text: text})
		if progress != nil {
			progress(task.Name, TaskCompleted)
		}
	}
	if len(outputs) == 0 {
		return "", fmt.Errorf("plan has no tasks")
	}
	return outputs[len(outputs)-1].text, nil
}

func (s *CrewService) runTask(ctx context.Context, task pipeline.Task, prior []taskOutput) (string, error) {
	messages := []agentrunner.Message{
		{Role: agentrunner.RoleSystem, Content: agentSystemPrompt(task.Agent)},
		{Role: agentrunner.RoleUser, Content: taskPrompt(task, prior)},
	}
	defs := s.tools.Defs(task.Agent.Tools)

	for range s.maxIterations {
		reply, err := s.runner.Chat(ctx, messages, defs)
		if err != nil {
			return "", err
		}
		if len(reply.ToolCalls) == 0 {
			return reply.Content, nil
		}
		messages = append(messages, reply)
		for _, call := range reply.ToolCalls {
			messages = append(messages, agentrunner.Message{
				Role:       agentrunner.RoleTool,
				Content:    s.tools.Call(ctx, call),
				ToolCallID: call.ID,
				Name:       call.Name,
			})
		}
	}

	// The model spent every iteration on tools. Withhold them and ask once
	// more; with nothing left to call it has to produce its answer.
	messages = append(messages, agentrunner.Message{
		Role:    agentrunner.RoleUser,
		Content: "Provide your final answer now using the information gathered so far.",
	})
	reply, err := s.runner.Chat(ctx, messages, nil)
	if err != nil {
		return "", err
	}
	return reply.Content, nil
}

func agentSystemPrompt(a pipeline.Agent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s.\n", a.Role)
	if a.Backstory != "" {
		b.WriteString(a.Backstory)
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "Your goal: %s", a.Goal)
	return b.String()
}

func taskPrompt(task pipeline.Task, prior []taskOutput) string {
	var b strings.Builder
	b.WriteString(task.Description)
	if task.ExpectedOutput != "" {
		b.WriteString("\n\nExpected output: ")
		b.WriteString(task.ExpectedOutput)
	}
	if len(prior) > 0 {
		b.WriteString("\n\nContext from earlier steps:")
		for _, p := range prior {
			fmt.Fprintf(&b, "\n\n[%s]\n%s", p.name, p.text)
		}
	}
	return b.String()
}
