// Package jira is a thin stateless wrapper around the Jira Cloud REST API v3
// as exposed through api.atlassian.com. Every call takes the cloud id and
// access token explicitly, so one Client is safe for concurrent reuse across
// sessions.
package jira

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const requestTimeout = 30 * time.Second

// UpstreamError is a non-2xx answer from the Jira Cloud API. The gateway does
// not retry; callers decide what a failed call means for them.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("jira api returned status %d: %s", e.StatusCode, e.Body)
}

// User is a Jira directory entry returned by user search.
type User struct {
	AccountID    string            `json:"accountId"`
	AccountType  string            `json:"accountType"`
	DisplayName  string            `json:"displayName"`
	EmailAddress string            `json:"emailAddress"`
	AvatarURLs   map[string]string `json:"avatarUrls"`
}

// Issue is the slice of a Jira issue this system reads.
type Issue struct {
	Key    string      `json:"key"`
	Fields IssueFields `json:"fields"`
}

type IssueFields struct {
	Summary  string   `json:"summary"`
	Labels   []string `json:"labels"`
	Assignee *User    `json:"assignee"`
	Status   struct {
		Name string `json:"name"`
	} `json:"status"`
}

// Client issues Jira Cloud REST calls. Zero state beyond the base URL and the
// HTTP client; the zero value is not usable, use NewClient.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient returns a Client against the given API base URL
// (e.g. https://api.atlassian.com).
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: requestTimeout},
	}
}

func (c *Client) apiURL(cloudID, path string) string {
	return fmt.Sprintf("%s/ex/jira/%s/rest/api/3%s", c.BaseURL, cloudID, path)
}

func (c *Client) do(method, rawURL, accessToken string, payload interface{}, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, rawURL, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &UpstreamError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if out != nil && len(respBody) > 0 {
		return json.Unmarshal(respBody, out)
	}
	return nil
}

// GetIssue fetches an issue with labels, summary, status, and assignee.
func (c *Client) GetIssue(cloudID, accessToken, issueKey string) (*Issue, error) {
	u := c.apiURL(cloudID, "/issue/"+issueKey) + "?fields=" + url.QueryEscape("labels,summary,status,assignee")
	var issue Issue
	if err := c.do(http.MethodGet, u, accessToken, nil, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// GetIssueLabels returns all labels on an issue.
func (c *Client) GetIssueLabels(cloudID, accessToken, issueKey string) ([]string, error) {
	issue, err := c.GetIssue(cloudID, accessToken, issueKey)
	if err != nil {
		return nil, err
	}
	return issue.Fields.Labels, nil
}

// GetResultsLabels returns only the labels carrying the results prefix.
func (c *Client) GetResultsLabels(cloudID, accessToken, issueKey string) ([]string, error) {
	labels, err := c.GetIssueLabels(cloudID, accessToken, issueKey)
	if err != nil {
		return nil, err
	}
	filtered := make([]string, 0, len(labels))
	for _, label := range labels {
		if strings.HasPrefix(label, ResultsLabelPrefix) {
			filtered = append(filtered, label)
		}
	}
	return filtered, nil
}

// UpdateIssueLabels replaces the full label set on an issue. Callers must
// read-modify-write: Jira has no append here.
func (c *Client) UpdateIssueLabels(cloudID, accessToken, issueKey string, labels []string) error {
	u := c.apiURL(cloudID, "/issue/"+issueKey)
	payload := map[string]interface{}{
		"fields": map[string]interface{}{"labels": labels},
	}
	// PUT returns 204 No Content on success.
	return c.do(http.MethodPut, u, accessToken, payload, nil)
}

// GetIssueAssignee returns the current assignee, or nil when unassigned.
func (c *Client) GetIssueAssignee(cloudID, accessToken, issueKey string) (*User, error) {
	issue, err := c.GetIssue(cloudID, accessToken, issueKey)
	if err != nil {
		return nil, err
	}
	return issue.Fields.Assignee, nil
}

// AssignIssue sets the issue's assignee by account id.
func (c *Client) AssignIssue(cloudID, accessToken, issueKey, accountID string) error {
	u := c.apiURL(cloudID, "/issue/"+issueKey+"/assignee")
	return c.do(http.MethodPut, u, accessToken, map[string]string{"accountId": accountID}, nil)
}

// AddComment posts a plain-text comment. Jira Cloud API v3 requires the
// Atlassian Document Format, so the text is wrapped in a one-paragraph doc.
func (c *Client) AddComment(cloudID, accessToken, issueKey, text string) error {
	u := c.apiURL(cloudID, "/issue/"+issueKey+"/comment")
	payload := map[string]interface{}{
		"body": map[string]interface{}{
			"type":    "doc",
			"version": 1,
			"content": []interface{}{
				map[string]interface{}{
					"type": "paragraph",
					"content": []interface{}{
						map[string]interface{}{"type": "text", "text": text},
					},
				},
			},
		},
	}
	return c.do(http.MethodPost, u, accessToken, payload, nil)
}

// GetCurrentUser fetches the profile of the token's owner. Requires the
// read:jira-user scope.
func (c *Client) GetCurrentUser(cloudID, accessToken string) (*User, error) {
	u := c.apiURL(cloudID, "/myself")
	var user User
	if err := c.do(http.MethodGet, u, accessToken, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SearchUsers queries the Jira user directory by name or email. The result
// includes bot and app accounts; callers filter on AccountType when they only
// want humans.
func (c *Client) SearchUsers(cloudID, accessToken, query string) ([]User, error) {
	u := c.apiURL(cloudID, "/user/search") + "?query=" + url.QueryEscape(query)
	var users []User
	if err := c.do(http.MethodGet, u, accessToken, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// SearchUser returns the first directory match for query, or nil when there
// is none.
func (c *Client) SearchUser(cloudID, accessToken, query string) (*User, error) {
	users, err := c.SearchUsers(cloudID, accessToken, query)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}
	return &users[0], nil
}
