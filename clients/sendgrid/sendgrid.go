package sendgrid

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultBaseURL = "https://api.sendgrid.com"
	sendPath       = "/v3/mail/send"

	// MaxPersonalizations is the provider's per-request recipient block limit.
	MaxPersonalizations = 1000
)

type Address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type Personalization struct {
	To []Address `json:"to"`
}

type Content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type Message struct {
	Personalizations []Personalization `json:"personalizations"`
	From             Address           `json:"from"`
	Subject          string            `json:"subject"`
	Content          []Content         `json:"content"`
}

type APIError struct {
	StatusCode int `json:"-"`
	Errors     []struct {
		Message string `json:"message"`
		Field   string `json:"field,omitempty"`
	} `json:"errors"`
}

func (a APIError) Error() string {
	msgs := make([]string, 0, len(a.Errors))
	for _, e := range a.Errors {
		if e.Field != "" {
			msgs = append(msgs, fmt.Sprintf("%s: %s", e.Field, e.Message))
			continue
		}
		msgs = append(msgs, e.Message)
	}
	return fmt.Sprintf("sendgrid %d: %s", a.StatusCode, strings.Join(msgs, "; "))
}

type Client interface {
	Send(ctx context.Context, msg Message) error
}

type client struct {
	http *resty.Client
}

var _ Client = (*client)(nil)

// NewClient authenticates every request on c with apiKey. An empty baseURL
// means DefaultBaseURL.
func NewClient(c *resty.Client, apiKey, baseURL string) Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c.SetBaseURL(baseURL).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json")
	return &client{http: c}
}

func (c *client) Send(ctx context.Context, msg Message) error {
	responseError := &APIError{}
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(msg).
		SetError(responseError).
		Post(sendPath)
	if err != nil {
		return fmt.Errorf("failed to call sendgrid: %w", err)
	}
	if resp.IsError() {
		responseError.StatusCode = resp.StatusCode()
		return *responseError
	}
	return nil
}
