package jira

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const (
	testCloudID = "cloud-123"
	testToken   = "access-token"
)

func TestGetIssueLabels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wantPath := "/ex/jira/" + testCloudID + "/rest/api/3/issue/PROJ-1"
		if r.URL.Path != wantPath {
			t.Errorf("path = %q, expected %q", r.URL.Path, wantPath)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer "+testToken {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"key":"PROJ-1","fields":{"labels":["results_S1F2R3","triage"],"summary":"boot failure"}}`)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	labels, err := client.GetIssueLabels(testCloudID, testToken, "PROJ-1")
	if err != nil {
		t.Fatalf("GetIssueLabels() error = %v", err)
	}
	if len(labels) != 2 || labels[0] != "results_S1F2R3" {
		t.Errorf("labels = %v", labels)
	}
}

func TestGetResultsLabels_FiltersPrefix(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"fields":{"labels":["results_S1F2R3","triage","results_S2F1R1X","blocked"]}}`)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	labels, err := client.GetResultsLabels(testCloudID, testToken, "PROJ-2")
	if err != nil {
		t.Fatalf("GetResultsLabels() error = %v", err)
	}
	if len(labels) != 2 {
		t.Fatalf("expected 2 results labels, got %v", labels)
	}
	for _, label := range labels {
		if !strings.HasPrefix(label, ResultsLabelPrefix) {
			t.Errorf("label %q missing prefix", label)
		}
	}
}

func TestUpdateIssueLabels_FullReplace(t *testing.T) {
	var captured map[string]map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %q, expected PUT", r.Method)
		}
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &captured)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if err := client.UpdateIssueLabels(testCloudID, testToken, "PROJ-3", []string{"a", "b"}); err != nil {
		t.Fatalf("UpdateIssueLabels() error = %v", err)
	}
	if got := captured["fields"]["labels"]; len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("sent labels = %v", got)
	}
}

func TestAddComment_WrapsInADF(t *testing.T) {
	var captured map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &captured)
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id":"10001"}`)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if err := client.AddComment(testCloudID, testToken, "PROJ-4", "fixed in rev 42"); err != nil {
		t.Fatalf("AddComment() error = %v", err)
	}

	doc, ok := captured["body"].(map[string]interface{})
	if !ok {
		t.Fatalf("comment body missing: %v", captured)
	}
	if doc["type"] != "doc" {
		t.Errorf("body type = %v, expected doc", doc["type"])
	}
	paragraphs := doc["content"].([]interface{})
	paragraph := paragraphs[0].(map[string]interface{})
	text := paragraph["content"].([]interface{})[0].(map[string]interface{})
	if text["text"] != "fixed in rev 42" {
		t.Errorf("comment text = %v", text["text"])
	}
}

func TestAssignIssue(t *testing.T) {
	var captured map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/issue/PROJ-5/assignee") {
			t.Errorf("path = %q", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &captured)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if err := client.AssignIssue(testCloudID, testToken, "PROJ-5", "acc-42"); err != nil {
		t.Fatalf("AssignIssue() error = %v", err)
	}
	if captured["accountId"] != "acc-42" {
		t.Errorf("accountId = %q", captured["accountId"])
	}
}

func TestSearchUsers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("query"); got != "john" {
			t.Errorf("query = %q", got)
		}
		io.WriteString(w, `[{"accountId":"acc-1","accountType":"atlassian","displayName":"John Lundy","emailAddress":"john.lundy@amd.com"},{"accountId":"acc-2","accountType":"app","displayName":"Automation Bot"}]`)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	users, err := client.SearchUsers(testCloudID, testToken, "john")
	if err != nil {
		t.Fatalf("SearchUsers() error = %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
	if users[0].AccountID != "acc-1" || users[0].AccountType != "atlassian" {
		t.Errorf("first user = %+v", users[0])
	}
}

func TestSearchUser_NoMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[]`)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	user, err := client.SearchUser(testCloudID, testToken, "nobody@example.com")
	if err != nil {
		t.Fatalf("SearchUser() error = %v", err)
	}
	if user != nil {
		t.Errorf("expected nil for no match, got %+v", user)
	}
}

func TestUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"errorMessages":["Issue does not exist"]}`)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.GetIssueLabels(testCloudID, testToken, "PROJ-404")
	if err == nil {
		t.Fatal("expected error for 404 response")
	}

	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected *UpstreamError, got %T", err)
	}
	if upstream.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d", upstream.StatusCode)
	}
	if !strings.Contains(upstream.Body, "Issue does not exist") {
		t.Errorf("Body = %q", upstream.Body)
	}
}
