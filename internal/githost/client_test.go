package githost

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/troupelabs/troupe/pkg/models"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient("octo", "widgets",
		WithBaseURL(server.URL),
		WithHTTPClient(server.Client()),
		WithToken("test-token"))
}

func TestDefaultBranchAndAuthHeaders(t *testing.T) {
	var gotAuth, gotAccept string
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/octo/widgets" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		_ = json.NewEncoder(w).Encode(map[string]string{"default_branch": "main"})
	}))

	branch, err := client.DefaultBranch(context.Background())
	if err != nil {
		t.Fatalf("DefaultBranch: %v", err)
	}
	if branch != "main" {
		t.Fatalf("expected main, got %q", branch)
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotAccept != "application/vnd.github+json" {
		t.Errorf("Accept = %q", gotAccept)
	}
}

func TestCreateBranchFlow(t *testing.T) {
	var createdRef map[string]string
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method + " " + r.URL.Path {
		case http.MethodGet + " /repos/octo/widgets/git/ref/heads/main":
			_, _ = w.Write([]byte(`{"object":{"sha":"abc123"}}`))
		case http.MethodPost + " /repos/octo/widgets/git/refs":
			_ = json.NewDecoder(r.Body).Decode(&createdRef)
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	ctx := context.Background()
	sha, err := client.BranchSHA(ctx, "main")
	if err != nil {
		t.Fatalf("BranchSHA: %v", err)
	}
	if sha != "abc123" {
		t.Fatalf("sha = %q", sha)
	}

	if err := client.CreateBranch(ctx, "troupe/feature", sha); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	if createdRef["ref"] != "refs/heads/troupe/feature" || createdRef["sha"] != "abc123" {
		t.Fatalf("unexpected ref payload: %v", createdRef)
	}
}

func TestGetFileDecodesWrappedBase64(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("package main\n"))
	// Re-wrap like the contents API does.
	wrapped := encoded[:8] + "\n" + encoded[8:]

	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/octo/widgets/contents/cmd/main.go" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.URL.Query().Get("ref") != "main" {
			t.Errorf("ref query = %q", r.URL.Query().Get("ref"))
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"path":    "cmd/main.go",
			"sha":     "blob1",
			"content": wrapped,
		})
	}))

	file, err := client.GetFile(context.Background(), "cmd/main.go", "main")
	if err != nil {
		t.Fatalf("GetFile: %v", err)
	}
	if file.Content != "package main\n" {
		t.Fatalf("content = %q", file.Content)
	}
	if file.SHA != "blob1" {
		t.Fatalf("sha = %q", file.SHA)
	}
}

func TestCommitFileCreatesWhenMissing(t *testing.T) {
	var putPayload map[string]string
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Not Found"}`))
		case http.MethodPut:
			_ = json.NewDecoder(r.Body).Decode(&putPayload)
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"commit":{"sha":"commit1"}}`))
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))

	sha, err := client.CommitFile(context.Background(), "feature", "docs/new.md", "add docs", "hello")
	if err != nil {
		t.Fatalf("CommitFile: %v", err)
	}
	if sha != "commit1" {
		t.Fatalf("commit sha = %q", sha)
	}
	if _, hasSHA := putPayload["sha"]; hasSHA {
		t.Errorf("create should not send a blob sha: %v", putPayload)
	}
	decoded, _ := base64.StdEncoding.DecodeString(putPayload["content"])
	if string(decoded) != "hello" {
		t.Errorf("content round trip = %q", decoded)
	}
	if putPayload["branch"] != "feature" {
		t.Errorf("branch = %q", putPayload["branch"])
	}
}

func TestCommitFileUpdatesWithPriorSHA(t *testing.T) {
	var putPayload map[string]string
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(map[string]string{"path": "main.go", "sha": "oldblob", "content": ""})
		case http.MethodPut:
			_ = json.NewDecoder(r.Body).Decode(&putPayload)
			_, _ = w.Write([]byte(`{"commit":{"sha":"commit2"}}`))
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))

	sha, err := client.CommitFile(context.Background(), "feature", "main.go", "update", "v2")
	if err != nil {
		t.Fatalf("CommitFile: %v", err)
	}
	if sha != "commit2" {
		t.Fatalf("commit sha = %q", sha)
	}
	if putPayload["sha"] != "oldblob" {
		t.Errorf("update must carry the prior blob sha, got %v", putPayload)
	}
}

func TestDeleteFile(t *testing.T) {
	var deletePayload map[string]string
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(map[string]string{"path": "old.go", "sha": "byeblob", "content": ""})
		case http.MethodDelete:
			_ = json.NewDecoder(r.Body).Decode(&deletePayload)
			_, _ = w.Write([]byte(`{"commit":{"sha":"commit3"}}`))
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))

	sha, err := client.DeleteFile(context.Background(), "feature", "old.go", "remove old.go")
	if err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	if sha != "commit3" {
		t.Fatalf("commit sha = %q", sha)
	}
	if deletePayload["sha"] != "byeblob" {
		t.Errorf("delete must carry the blob sha, got %v", deletePayload)
	}
}

func TestCreatePullRequest(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method+" "+r.URL.Path != http.MethodPost+" /repos/octo/widgets/pulls" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var payload map[string]string
		_ = json.NewDecoder(r.Body).Decode(&payload)
		if payload["head"] != "troupe/feature" || payload["base"] != "main" {
			t.Errorf("unexpected pull payload: %v", payload)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"number":7,"html_url":"https://github.test/octo/widgets/pull/7"}`))
	}))

	pr, err := client.CreatePullRequest(context.Background(), "Add widget", "body", "troupe/feature", "main")
	if err != nil {
		t.Fatalf("CreatePullRequest: %v", err)
	}
	if pr.Number != 7 || !strings.HasSuffix(pr.URL, "/pull/7") {
		t.Fatalf("unexpected pull request: %+v", pr)
	}
}

func TestMergePullRequest(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		_ = json.NewDecoder(r.Body).Decode(&payload)
		if payload["merge_method"] != "squash" {
			t.Errorf("merge_method = %q", payload["merge_method"])
		}
		_, _ = w.Write([]byte(`{"merged":true,"message":"Pull Request successfully merged"}`))
	}))

	if err := client.MergePullRequest(context.Background(), 7, ""); err != nil {
		t.Fatalf("MergePullRequest: %v", err)
	}
}

func TestMergeRefusedSurfacesMessage(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"merged":false,"message":"required status checks pending"}`))
	}))

	err := client.MergePullRequest(context.Background(), 7, "squash")
	if err == nil || !strings.Contains(err.Error(), "required status checks") {
		t.Fatalf("expected merge refusal, got %v", err)
	}
}

func TestListWorkflowRunsMapsStates(t *testing.T) {
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("branch") != "troupe/feature" {
			t.Errorf("branch query = %q", r.URL.Query().Get("branch"))
		}
		if got := r.URL.Query().Get("created"); !strings.HasPrefix(got, ">=") {
			t.Errorf("created query = %q", got)
		}
		_, _ = w.Write([]byte(`{"workflow_runs":[
			{"id":1,"name":"CI","status":"completed","conclusion":"success","html_url":"u1","head_branch":"troupe/feature"},
			{"id":2,"name":"CI","status":"completed","conclusion":"failure","html_url":"u2","head_branch":"troupe/feature"},
			{"id":3,"name":"CI","status":"in_progress","html_url":"u3","head_branch":"troupe/feature"},
			{"id":4,"name":"CI","status":"queued","html_url":"u4","head_branch":"troupe/feature"}
		]}`))
	}))

	runs, err := client.ListWorkflowRuns(context.Background(), "troupe/feature", created)
	if err != nil {
		t.Fatalf("ListWorkflowRuns: %v", err)
	}
	if len(runs) != 4 {
		t.Fatalf("expected 4 runs, got %d", len(runs))
	}
	want := []models.RunState{models.RunCompleted, models.RunFailure, models.RunInProgress, models.RunQueued}
	for i, state := range want {
		if runs[i].Status != state {
			t.Errorf("run %d state = %q, want %q", i, runs[i].Status, state)
		}
	}
}

func TestGetWorkflowRun(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/octo/widgets/actions/runs/42" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"id":42,"name":"CI","status":"completed","conclusion":"success","html_url":"u42"}`))
	}))

	run, err := client.GetWorkflowRun(context.Background(), 42)
	if err != nil {
		t.Fatalf("GetWorkflowRun: %v", err)
	}
	if run.ID != 42 || run.Status != models.RunCompleted {
		t.Fatalf("unexpected run: %+v", run)
	}
}

func TestErrorMapping(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"Validation Failed"}`))
	}))

	_, err := client.DefaultBranch(context.Background())
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected APIError, got %T (%v)", err, err)
	}
	if apiErr.StatusCode != http.StatusUnprocessableEntity || apiErr.Message != "Validation Failed" {
		t.Fatalf("unexpected api error: %+v", apiErr)
	}
}
