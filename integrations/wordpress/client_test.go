package wordpress

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	clientsDomain "github.com/blogsmith/blogsmith/clients/domain"
	schedDomain "github.com/blogsmith/blogsmith/scheduler/domain"
)

func targetFor(serverURL string) clientsDomain.PublishingTarget {
	return clientsDomain.PublishingTarget{
		SiteURL:     serverURL,
		Username:    "editor",
		AppPassword: "abcd efgh ijkl",
	}
}

func TestPublishSuccess(t *testing.T) {
	var gotAuth bool
	var gotPayload map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/wp/v2/tags") {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`[{"id":7,"name":"marketing"}]`))
			return
		}
		user, pass, ok := r.BasicAuth()
		gotAuth = ok && user == "editor" && pass == "abcd efgh ijkl"
		json.NewDecoder(r.Body).Decode(&gotPayload)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":42,"link":"https://example.com/?p=42"}`))
	}))
	defer server.Close()

	client := NewClient(targetFor(server.URL))
	remote, err := client.Publish(context.Background(), schedDomain.PublishParams{
		Title:  "My Post",
		Body:   "<p>Hello</p>",
		Status: "publish",
		Tags:   []string{"marketing"},
	})
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if remote.ID != 42 || remote.URL != "https://example.com/?p=42" {
		t.Fatalf("unexpected remote post: %+v", remote)
	}
	if !gotAuth {
		t.Fatal("expected basic auth with the application password")
	}
	if gotPayload["status"] != "publish" {
		t.Fatalf("expected status publish, got %v", gotPayload["status"])
	}
	tags, _ := gotPayload["tags"].([]any)
	if len(tags) != 1 || tags[0].(float64) != 7 {
		t.Fatalf("expected resolved tag id 7, got %v", gotPayload["tags"])
	}
}

func TestPublishUnauthorizedIsCredentialError(t *testing.T) {
	var postCalls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/wp/v2/tags") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		postCalls++
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code":"incorrect_password","message":"The provided password is an invalid application password."}`))
	}))
	defer server.Close()

	client := NewClient(targetFor(server.URL))
	_, err := client.Publish(context.Background(), schedDomain.PublishParams{Title: "x", Body: "y", Status: "publish"})
	if err == nil {
		t.Fatal("expected an error")
	}
	if !schedDomain.IsCredentialError(err) {
		t.Fatalf("expected credential error classification, got %v", err)
	}
	if postCalls != 1 {
		t.Fatalf("credential failures must not be retried, got %d calls", postCalls)
	}
}

func TestPublishRetriesServerErrors(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"id":5,"link":"https://example.com/?p=5"}`))
	}))
	defer server.Close()

	client := NewClient(targetFor(server.URL))
	remote, err := client.Publish(context.Background(), schedDomain.PublishParams{Title: "x", Body: "y", Status: "draft"})
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if remote.ID != 5 {
		t.Fatalf("unexpected remote id %d", remote.ID)
	}
	if calls != 2 {
		t.Fatalf("expected one retry after 502, got %d calls", calls)
	}
}

func TestUpdateTargetsRemoteID(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"id":99,"link":"https://example.com/?p=99"}`))
	}))
	defer server.Close()

	client := NewClient(targetFor(server.URL))
	_, err := client.Update(context.Background(), 99, schedDomain.UpdateParams{Status: "publish"})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if gotPath != "/wp-json/wp/v2/posts/99" {
		t.Fatalf("expected update against post 99, got %s", gotPath)
	}
}

func TestTagResolutionFailureDropsTag(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/wp/v2/tags") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		var payload map[string]any
		json.NewDecoder(r.Body).Decode(&payload)
		if _, present := payload["tags"]; present {
			t.Errorf("expected tags to be omitted, got %v", payload["tags"])
		}
		w.Write([]byte(`{"id":1,"link":"https://example.com/?p=1"}`))
	}))
	defer server.Close()

	client := NewClient(targetFor(server.URL))
	_, err := client.Publish(context.Background(), schedDomain.PublishParams{
		Title: "x", Body: "y", Status: "publish", Tags: []string{"broken"},
	})
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
}
