package service

import (
	"slices"

	"github.com/Strob0t/MediaScout/internal/domain/recommendation"
)

// Curated fallback lists, one per media kind. Every record is fully
// populated so the fallback path needs no post-processing and no I/O.
// URL fields stay empty: a static list has no source to cite.
var fallbackLists = map[recommendation.MediaType][]recommendation.Recommendation{
	recommendation.MediaTypeMovie: {
		{
			Title:          "The Shawshank Redemption",
			Type:           recommendation.MediaTypeMovie,
			Year:           "1994",
			Genre:          "Drama",
			Rating:         recommendation.NewRating(9.3),
			Description:    "Two imprisoned men bond over decades, finding solace and eventual redemption.",
			WhyRecommended: "An enduring story of hope.",
			SimilarTitles:  []string{"The Green Mile"},
		},
		{
			Title:          "Inception",
			Type:           recommendation.MediaTypeMovie,
			Year:           "2010",
			Genre:          "Sci-Fi, Thriller",
			Rating:         recommendation.NewRating(8.8),
			Description:    "A thief who steals corporate secrets through dream-sharing technology.",
			WhyRecommended: "Masterpiece of sci-fi cinema.",
			SimilarTitles:  []string{"The Matrix"},
		},
		{
			Title:          "The Dark Knight",
			Type:           recommendation.MediaTypeMovie,
			Year:           "2008",
			Genre:          "Action, Crime",
			Rating:         recommendation.NewRating(9.0),
			Description:    "Batman sets out to dismantle the remaining criminal organizations.",
			WhyRecommended: "Defining superhero movie.",
			SimilarTitles:  []string{"Batman Begins"},
		},
	},
	recommendation.MediaTypeBook: {
		{
			Title:          "Project Hail Mary",
			Type:           recommendation.MediaTypeBook,
			Year:           "2021",
			Genre:          "Sci-Fi",
			Rating:         recommendation.NewRating(4.8),
			Description:    "A lone astronaut must save the earth.",
			WhyRecommended: "Engaging hard sci-fi.",
			SimilarTitles:  []string{"The Martian"},
		},
		{
			Title:          "Dune",
			Type:           recommendation.MediaTypeBook,
			Year:           "1965",
			Genre:          "Sci-Fi",
			Rating:         recommendation.NewRating(4.7),
			Description:    "The story of Paul Atreides.",
			WhyRecommended: "Epic masterpiece.",
			SimilarTitles:  []string{"Foundation"},
		},
		{
			Title:          "The Midnight Library",
			Type:           recommendation.MediaTypeBook,
			Year:           "2020",
			Genre:          "Fiction, Fantasy",
			Rating:         recommendation.NewRating(4.2),
			Description:    "Between life and death there is a library where every book is a life you could have lived.",
			WhyRecommended: "A gentle, reflective page-turner.",
			SimilarTitles:  []string{"A Man Called Ove"},
		},
	},
	recommendation.MediaTypeTV: {
		{
			Title:          "Breaking Bad",
			Type:           recommendation.MediaTypeTV,
			Year:           "2008",
			Genre:          "Crime, Drama",
			Rating:         recommendation.NewRating(9.5),
			Description:    "A high school chemistry teacher turned manufacturing drug dealer.",
			WhyRecommended: "Widely considered one of the best shows ever made.",
			SimilarTitles:  []string{"Better Call Saul", "Ozark"},
			Seasons:        5,
			Episodes:       62,
		},
		{
			Title:          "Stranger Things",
			Type:           recommendation.MediaTypeTV,
			Year:           "2016",
			Genre:          "Sci-Fi, Horror",
			Rating:         recommendation.NewRating(8.7),
			Description:    "When a young boy vanishes, a small town uncovers a mystery.",
			WhyRecommended: "Nostalgic and thrilling.",
			SimilarTitles:  []string{"Dark", "The OA"},
			Seasons:        4,
			Episodes:       34,
		},
		{
			Title:          "The Crown",
			Type:           recommendation.MediaTypeTV,
			Year:           "2016",
			Genre:          "Drama, History",
			Rating:         recommendation.NewRating(8.6),
			Description:    "The political rivalries and romance of Queen Elizabeth II's reign.",
			WhyRecommended: "Lavish, acclaimed historical drama.",
			SimilarTitles:  []string{"Downton Abbey"},
			Seasons:        6,
			Episodes:       60,
		},
	},
}

// FallbackRecommendations returns up to count curated records for the media
// kind. Unknown kinds get the movie list. The result is a fresh copy each
// call; callers may mutate it freely.
func FallbackRecommendations(media recommendation.MediaType, count int) []recommendation.Recommendation {
	list, ok := fallbackLists[media]
	if !ok {
		list = fallbackLists[recommendation.MediaTypeMovie]
	}
	n := len(list)
	if count > 0 && count < n {
		n = count
	}
	out := make([]recommendation.Recommendation, n)
	copy(out, list[:n])
	for i := range out {
		out[i].SimilarTitles = slices.Clone(out[i].SimilarTitles)
	}
	return out
}
