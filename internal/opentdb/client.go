package opentdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"quizmaster/internal/domain"
)

const (
	// DefaultBaseURL points at the public Open Trivia DB API.
	DefaultBaseURL = "https://opentdb.com/api.php"
	// DefaultAmount is the question count used when the caller does not ask
	// for a specific one.
	DefaultAmount = 15
)

// RawQuestion mirrors the Open Trivia DB question payload. Text fields are
// HTML-entity encoded until normalized.
type RawQuestion struct {
	Type             string   `json:"type"`
	Difficulty       string   `json:"difficulty"`
	Category         string   `json:"category"`
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

// Response is the full upstream payload; the REST proxy forwards it as-is.
type Response struct {
	ResponseCode int           `json:"response_code"`
	Results      []RawQuestion `json:"results"`
}

// Request selects which questions to fetch. Zero values mean "any".
type Request struct {
	Amount     int
	Category   string
	Difficulty string
	Type       string
}

// Key returns a stable cache key for the request.
func (r Request) Key() string {
	amount := r.Amount
	if amount <= 0 {
		amount = DefaultAmount
	}
	return fmt.Sprintf("amount=%d&category=%s&difficulty=%s&type=%s",
		amount, r.Category, r.Difficulty, r.Type)
}

// Client fetches question sets from Open Trivia DB.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client; httpClient may be nil to use the default.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, http: httpClient}
}

// Fetch retrieves a question set. A non-200 status or a non-zero upstream
// response_code is reported as domain.ErrSourceUnavailable.
func (c *Client) Fetch(ctx context.Context, req Request) (*Response, error) {
	amount := req.Amount
	if amount <= 0 {
		amount = DefaultAmount
	}

	q := url.Values{}
	q.Set("amount", strconv.Itoa(amount))
	if req.Category != "" {
		q.Set("category", req.Category)
	}
	if req.Difficulty != "" {
		q.Set("difficulty", req.Difficulty)
	}
	if req.Type != "" {
		q.Set("type", req.Type)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", domain.ErrSourceUnavailable, resp.StatusCode)
	}

	var payload Response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", domain.ErrSourceUnavailable, err)
	}

	if payload.ResponseCode != 0 {
		return nil, &ResponseCodeError{Code: payload.ResponseCode}
	}

	return &payload, nil
}

// ResponseCodeError reports a well-formed upstream reply whose response_code
// signals failure (no results, invalid parameter, rate limit).
type ResponseCodeError struct {
	Code int
}

func (e *ResponseCodeError) Error() string {
	return fmt.Sprintf("opentdb response_code=%d", e.Code)
}

// Is lets callers match the error as a source failure.
func (e *ResponseCodeError) Is(target error) bool {
	return target == domain.ErrSourceUnavailable
}
