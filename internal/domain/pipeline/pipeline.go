// Package pipeline defines the agent and task templates for one
// recommendation run and the builder that assembles them into an ordered
// plan. Execution is someone else's job: a plan is data, not behavior.
package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Strob0t/MediaScout/internal/domain/recommendation"
)

var (
	ErrEmptyRequest = errors.New("render input: user request is required")
	ErrBadMediaType = errors.New("render input: media type must be movie, book, or tv")
	ErrBadCount     = errors.New("render input: count must be positive")
)

// Tool capability names. Agents declare which of these they may call; the
// tool registry binds the names to provider-backed implementations.
const (
	ToolSearchMovies   = "search_movies"
	ToolMovieDetails   = "movie_details"
	ToolPopularMovies  = "popular_movies"
	ToolDiscoverMovies = "discover_movies"
	ToolSearchTV       = "search_tv"
	ToolTVDetails      = "tv_details"
	ToolPopularTV      = "popular_tv"
	ToolDiscoverTV     = "discover_tv"
	ToolSearchBooks    = "search_books"
	ToolBookDetails    = "book_details"
	ToolSimilarTitles  = "similar_titles"
	ToolNewsSearch     = "news_search"
	ToolTrendingSearch = "trending_search"
)

// Agent is a pipeline role: who the model is told to be and which tools it
// may call. The editor deliberately has none; it only transforms text.
type Agent struct {
	Role      string
	Goal      string
	Backstory string
	Tools     []string
}

// Task is one rendered unit of work. Tasks run strictly in plan order and
// each task's prompt embeds the outputs of all its predecessors.
type Task struct {
	Name           string
	Agent          Agent
	Description    string
	ExpectedOutput string
}

// Plan is the ordered task list for one run.
type Plan struct {
	FastPath bool
	Tasks    []Task
}

// RenderInput is the structured record task templates are rendered from.
// Optional fields left empty are normalized to explicit placeholders before
// rendering, so templates never interpolate a missing value silently.
type RenderInput struct {
	UserRequest     string
	MediaType       recommendation.MediaType
	Genre           string
	Mood            string
	Timeframe       string
	Count           int
	Personalization string
}

// Placeholders substituted for absent optional fields.
const (
	NotSpecified           = "Not specified"
	NeutralPersonalization = "No personalization data available for this user."
)

func (in *RenderInput) validate() error {
	if strings.TrimSpace(in.UserRequest) == "" {
		return ErrEmptyRequest
	}
	if !in.MediaType.Valid() {
		return ErrBadMediaType
	}
	if in.Count < 1 {
		return ErrBadCount
	}
	return nil
}

func (in *RenderInput) normalize() {
	in.UserRequest = strings.TrimSpace(in.UserRequest)
	if strings.TrimSpace(in.Genre) == "" {
		in.Genre = NotSpecified
	}
	if strings.TrimSpace(in.Mood) == "" {
		in.Mood = NotSpecified
	}
	if strings.TrimSpace(in.Timeframe) == "" {
		in.Timeframe = NotSpecified
	}
	if strings.TrimSpace(in.Personalization) == "" {
		in.Personalization = NeutralPersonalization
	}
}

// researchKeywords trigger the research task when present in the request.
var researchKeywords = []string{
	"trending", "new", "recent", "latest", "upcoming", "update", "news", "current",
}

// NeedsResearch reports whether the request asks about anything time-sensitive.
func NeedsResearch(userRequest string) bool {
	lower := strings.ToLower(userRequest)
	for _, kw := range researchKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Build assembles the ordered task list for one run. The full path opens
// with the analysis task; the fast path skips it because the classifier
// already resolved genre and media kind. The research task joins full-path
// plans for time-sensitive requests. The editor is always last.
func Build(in RenderInput, fastPath bool) (*Plan, error) {
	if err := in.validate(); err != nil {
		return nil, fmt.Errorf("build plan: %w", err)
	}
	in.normalize()

	specialist, err := specialistAgent(in.MediaType)
	if err != nil {
		return nil, fmt.Errorf("build plan: %w", err)
	}

	var tasks []Task
	if !fastPath {
		tasks = append(tasks, Task{
			Name:           "analysis",
			Agent:          analysisAgent,
			Description:    renderAnalysisTask(in),
			ExpectedOutput: analysisExpected,
		})
	}

	tasks = append(tasks, Task{
		Name:           "specialist",
		Agent:          specialist,
		Description:    renderSpecialistTask(in, fastPath),
		ExpectedOutput: specialistExpected,
	})

	if !fastPath && NeedsResearch(in.UserRequest) {
		tasks = append(tasks, Task{
			Name:           "research",
			Agent:          researchAgent,
			Description:    renderResearchTask(in),
			ExpectedOutput: researchExpected,
		})
	}

	tasks = append(tasks, Task{
		Name:           "editor",
		Agent:          editorAgent,
		Description:    renderEditorTask(in),
		ExpectedOutput: editorExpected,
	})

	return &Plan{FastPath: fastPath, Tasks: tasks}, nil
}

func specialistAgent(m recommendation.MediaType) (Agent, error) {
	switch m {
	case recommendation.MediaTypeMovie:
		return movieAgent, nil
	case recommendation.MediaTypeBook:
		return bookAgent, nil
	case recommendation.MediaTypeTV:
		return tvAgent, nil
	default:
		return Agent{}, ErrBadMediaType
	}
}
