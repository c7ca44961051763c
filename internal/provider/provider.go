// Package provider fetches categories and questions from the Open Trivia DB API.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/verte-zerg/tuivia/internal/model"
)

// DefaultBaseURL is the public Open Trivia DB endpoint.
const DefaultBaseURL = "https://opentdb.com"

// Error wraps any failure to fetch or decode provider data.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Client talks to the trivia API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	rnd        *rand.Rand
}

// New returns a Client for the given base URL. An empty base URL selects
// the public endpoint.
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		rnd:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

type categoriesResponse struct {
	TriviaCategories []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"trivia_categories"`
}

type questionsResponse struct {
	ResponseCode int `json:"response_code"`
	Results      []struct {
		Question         string   `json:"question"`
		CorrectAnswer    string   `json:"correct_answer"`
		IncorrectAnswers []string `json:"incorrect_answers"`
	} `json:"results"`
}

// Categories fetches the category list.
func (c *Client) Categories(ctx context.Context) ([]model.Category, error) {
	var payload categoriesResponse
	if err := c.getJSON(ctx, c.baseURL+"/api_category.php", &payload); err != nil {
		return nil, &Error{Op: "categories", Err: err}
	}
	categories := make([]model.Category, 0, len(payload.TriviaCategories))
	for _, tc := range payload.TriviaCategories {
		categories = append(categories, model.Category{
			ID:   tc.ID,
			Name: html.UnescapeString(tc.Name),
		})
	}
	return categories, nil
}

// Questions fetches count multiple-choice questions, optionally filtered by
// category (0 means any). Each returned question carries its answers as a
// uniform shuffle of the incorrect answers plus the correct one.
func (c *Client) Questions(ctx context.Context, categoryID, count int) ([]model.Question, error) {
	params := url.Values{}
	params.Set("amount", strconv.Itoa(count))
	params.Set("type", "multiple")
	if categoryID > 0 {
		params.Set("category", strconv.Itoa(categoryID))
	}

	var payload questionsResponse
	if err := c.getJSON(ctx, c.baseURL+"/api.php?"+params.Encode(), &payload); err != nil {
		return nil, &Error{Op: "questions", Err: err}
	}
	// Nonzero response_code is how the API reports "no results" and
	// invalid parameters.
	if payload.ResponseCode != 0 {
		return nil, &Error{Op: "questions", Err: fmt.Errorf("unexpected response code %d", payload.ResponseCode)}
	}

	questions := make([]model.Question, 0, len(payload.Results))
	for _, result := range payload.Results {
		correct := html.UnescapeString(result.CorrectAnswer)
		answers := make([]string, 0, len(result.IncorrectAnswers)+1)
		for _, incorrect := range result.IncorrectAnswers {
			answers = append(answers, html.UnescapeString(incorrect))
		}
		answers = append(answers, correct)
		c.rnd.Shuffle(len(answers), func(i, j int) {
			answers[i], answers[j] = answers[j], answers[i]
		})
		questions = append(questions, model.Question{
			Prompt:        html.UnescapeString(result.Question),
			CorrectAnswer: correct,
			Answers:       answers,
		})
	}
	return questions, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
