package pipeline

import (
	"fmt"

	"github.com/Strob0t/MediaScout/internal/domain/recommendation"
)

// Agent definitions. Tool sets are disjoint per role: each specialist sees
// only its own media kind's tools, research sees only discovery tools, and
// analysis and editor see none.

var analysisAgent = Agent{
	Role: "Entertainment Preference Analyst",
	Goal: "Work out exactly what the user is asking for: media kind, genres, mood, " +
		"era, and any constraints or contradictions hidden in their phrasing.",
	Backstory: "You have spent years turning vague requests like \"something fun but " +
		"not dumb\" into precise content profiles. You notice when a request contains " +
		"conflicting constraints and you say so explicitly rather than papering over it.",
}

var movieAgent = Agent{
	Role: "Movie Recommendation Specialist",
	Goal: "Find movies that genuinely match the analyzed preferences, with accurate " +
		"ratings, years, and descriptions taken from your tools.",
	Backstory: "You are a film curator with encyclopedic taste. You always verify a " +
		"movie through your tools before recommending it and you never invent ratings, " +
		"image links, or trailer links.",
	Tools: []string{
		ToolSearchMovies, ToolMovieDetails, ToolPopularMovies,
		ToolDiscoverMovies, ToolSimilarTitles,
	},
}

var bookAgent = Agent{
	Role: "Book Recommendation Specialist",
	Goal: "Find books that genuinely match the analyzed preferences, with accurate " +
		"authors, ratings, and descriptions taken from your tools.",
	Backstory: "You are a well-read literary curator. Book ratings are on a 0-5 " +
		"scale. You always verify a book through your tools before recommending it " +
		"and you never invent ratings or preview links.",
	Tools: []string{ToolSearchBooks, ToolBookDetails, ToolSimilarTitles},
}

var tvAgent = Agent{
	Role: "TV Show Recommendation Specialist",
	Goal: "Find TV shows that genuinely match the analyzed preferences, including " +
		"season and episode counts, with data taken from your tools.",
	Backstory: "You are a television curator who has binged everything worth " +
		"binging. You always verify a show through your tools before recommending it " +
		"and you never invent ratings, image links, or trailer links.",
	Tools: []string{
		ToolSearchTV, ToolTVDetails, ToolPopularTV,
		ToolDiscoverTV, ToolSimilarTitles,
	},
}

var researchAgent = Agent{
	Role: "Entertainment Trends Researcher",
	Goal: "Surface what is new, trending, or upcoming that is relevant to the " +
		"user's request right now.",
	Backstory: "You track releases, renewals, and buzz across the industry. You " +
		"rely on your search tools for anything time-sensitive instead of memory.",
	Tools: []string{ToolSimilarTitles, ToolNewsSearch, ToolTrendingSearch},
}

var editorAgent = Agent{
	Role: "Recommendations Editor-in-Chief",
	Goal: "Merge everything the other agents produced into the final, clean, " +
		"deduplicated recommendation list in the exact required JSON shape.",
	Backstory: "You are the last set of eyes before publication. You work only " +
		"from the material handed to you, you cut duplicates and weak fits, and you " +
		"never add URLs or facts that were not in the supplied context.",
}

// Expected-output one-liners appended to each task prompt.
const (
	analysisExpected = "A concise preference profile: media kind, genres, mood, " +
		"timeframe, hard constraints, and any contradictions that will require a compromise."
	specialistExpected = "A candidate list with Title, Year, Rating, Genre, and " +
		"Description lines per item, verified through tools, with image/trailer/preview " +
		"URLs only where the tools returned them."
	researchExpected = "Short notes on current, new, or upcoming titles relevant " +
		"to the request, each with its source."
	editorExpected = "A single JSON array of recommendation objects and nothing else."
)

func renderAnalysisTask(in RenderInput) string {
	return fmt.Sprintf(`Analyze this %s recommendation request: "%s"

Known parameters:
- Genre: %s
- Mood: %s
- Timeframe: %s
- Number of recommendations wanted: %d

User personalization context:
%s

Extract the user's real preferences: genres, mood, era or timeframe, and any
hard constraints. If the request contains contradictory constraints (for
example an upbeat mood applied to inherently tragic subject matter), call the
contradiction out explicitly and describe the best compromise to aim for.
Be specific; the specialist will follow your profile literally.`,
		in.MediaType, in.UserRequest, in.Genre, in.Mood, in.Timeframe,
		in.Count, in.Personalization)
}

func renderSpecialistTask(in RenderInput, fastPath bool) string {
	intro := fmt.Sprintf(
		"Using the preference profile from the analysis above, find %d %s recommendations.",
		in.Count, in.MediaType)
	if fastPath {
		intro = fmt.Sprintf(
			"Find %d %s recommendations in the %q genre for this request: %q.",
			in.Count, in.MediaType, in.Genre, in.UserRequest)
	}
	return fmt.Sprintf(`%s

Rules:
- Verify every candidate through your tools; do not recommend from memory alone.
- Report rating, year, and genre exactly as the tools returned them.
- Include image, trailer, or preview URLs only when a tool returned them.
- Prefer well-rated titles but match the requested mood and genre first.
- Return a few more candidates than asked so the editor can cut the weakest.`,
		intro)
}

func renderResearchTask(in RenderInput) string {
	return fmt.Sprintf(`The request (%q) asks about something current or upcoming.
Use your search tools to find what is new, trending, or announced for this
%s request right now. Note for each finding why it is relevant and where it
came from. Do not speculate beyond your tool results.`,
		in.UserRequest, in.MediaType)
}

func renderEditorTask(in RenderInput) string {
	return fmt.Sprintf(`Review all material produced above for the request %q and
produce the final list of exactly %d %s recommendations.

Output requirements — follow them precisely:
- Output ONLY a JSON array, no prose before or after it.
- Each element is an object with these fields:
  "title" (string, required), "type" (%q), "year" (string),
  "genre" (comma-separated string), "rating" (number; 0-10 for movies and tv,
  0-5 for books; use "N/A" if genuinely unknown), "description" (string),
  "why_recommended" (string explaining the fit to THIS request),
  "similar_titles" (array of up to %d strings),
  "image_url" / "trailer_url" / "preview_url" (only if present in the material
  above; otherwise null — never invent a URL),
  "is_compromise" (boolean) and "compromise_explanation" (string) when the
  request contained contradictory constraints and this pick trades one off,
  "seasons" and "episodes" (numbers, tv only, when known).
- No duplicate titles. Cut the weakest candidates to reach exactly %d.
- Do not repeat anything listed as recently recommended in the personalization
  context:
%s`,
		in.UserRequest, in.Count, in.MediaType, in.MediaType,
		recommendation.MaxSimilarTitles, in.Count, in.Personalization)
}
