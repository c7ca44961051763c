// Package model defines shared data structures.
package model

import "time"

// Config defines game settings.
type Config struct {
	PlayerName   string
	CategoryID   int
	Questions    int
	RoundSeconds int
	Sound        bool
	APIURL       string
}

// Category is a trivia category as reported by the provider.
type Category struct {
	ID   int
	Name string
}

// Question is a single multiple-choice question. Answers holds a shuffled
// permutation of the incorrect answers plus CorrectAnswer.
type Question struct {
	Prompt        string
	CorrectAnswer string
	Answers       []string
}

// ScoreEntry is one finished game on the leaderboard.
type ScoreEntry struct {
	Name          string
	Score         int
	Total         int
	CategoryLabel string
	RecordedAt    time.Time
}
