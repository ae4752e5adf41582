package githost

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// RepoFile is a repository file fetched through the contents API.
type RepoFile struct {
	Path    string
	SHA     string
	Content string
}

// DefaultBranch returns the repository's default branch name.
func (c *Client) DefaultBranch(ctx context.Context) (string, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, c.repoPath(), nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", responseError(resp)
	}

	var payload struct {
		DefaultBranch string `json:"default_branch"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}
	return payload.DefaultBranch, nil
}

// BranchSHA returns the commit SHA a branch currently points at.
func (c *Client) BranchSHA(ctx context.Context, branch string) (string, error) {
	path := c.repoPath("git", "ref") + "/heads/" + url.PathEscape(branch)
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", responseError(resp)
	}

	var payload struct {
		Object struct {
			SHA string `json:"sha"`
		} `json:"object"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}
	return payload.Object.SHA, nil
}

// CreateBranch creates a new branch pointing at fromSHA.
func (c *Client) CreateBranch(ctx context.Context, name, fromSHA string) error {
	body, err := json.Marshal(map[string]string{
		"ref": "refs/heads/" + name,
		"sha": fromSHA,
	})
	if err != nil {
		return err
	}

	resp, err := c.doRequest(ctx, http.MethodPost, c.repoPath("git", "refs"), bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return responseError(resp)
	}
	return nil
}

// ListFiles returns the blob paths of the tree at ref, recursively.
func (c *Client) ListFiles(ctx context.Context, ref string) ([]string, error) {
	path := c.repoPath("git", "trees", ref) + "?recursive=1"
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, responseError(resp)
	}

	var payload struct {
		Tree []struct {
			Path string `json:"path"`
			Type string `json:"type"`
		} `json:"tree"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range payload.Tree {
		if entry.Type == "blob" {
			files = append(files, entry.Path)
		}
	}
	return files, nil
}

// GetFile fetches one file's decoded content and blob SHA at ref.
func (c *Client) GetFile(ctx context.Context, path, ref string) (*RepoFile, error) {
	reqPath := c.repoPath("contents") + "/" + contentsPath(path)
	if ref != "" {
		reqPath += "?ref=" + url.QueryEscape(ref)
	}
	resp, err := c.doRequest(ctx, http.MethodGet, reqPath, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, responseError(resp)
	}

	var payload struct {
		Path    string `json:"path"`
		SHA     string `json:"sha"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	// The contents API wraps base64 at 60 columns.
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(payload.Content, "\n", ""))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	return &RepoFile{Path: payload.Path, SHA: payload.SHA, Content: string(decoded)}, nil
}

// fileSHA returns the blob SHA of path at ref, or "" when the file does not
// exist there.
func (c *Client) fileSHA(ctx context.Context, path, ref string) (string, error) {
	file, err := c.GetFile(ctx, path, ref)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return "", nil
		}
		return "", err
	}
	return file.SHA, nil
}

// CommitFile creates or updates one file on branch and returns the commit
// SHA. Updates look up the current blob SHA first, so sequential writes to
// the same file each observe the previous commit.
func (c *Client) CommitFile(ctx context.Context, branch, path, message, content string) (string, error) {
	sha, err := c.fileSHA(ctx, path, branch)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}

	payload := map[string]string{
		"message": message,
		"content": base64.StdEncoding.EncodeToString([]byte(content)),
		"branch":  branch,
	}
	if sha != "" {
		payload["sha"] = sha
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	reqPath := c.repoPath("contents") + "/" + contentsPath(path)
	resp, err := c.doRequest(ctx, http.MethodPut, reqPath, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", responseError(resp)
	}

	var result struct {
		Commit struct {
			SHA string `json:"sha"`
		} `json:"commit"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.Commit.SHA, nil
}

// DeleteFile removes one file from branch and returns the commit SHA.
func (c *Client) DeleteFile(ctx context.Context, branch, path, message string) (string, error) {
	sha, err := c.fileSHA(ctx, path, branch)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if sha == "" {
		return "", fmt.Errorf("delete %s: file not found on %s", path, branch)
	}

	body, err := json.Marshal(map[string]string{
		"message": message,
		"sha":     sha,
		"branch":  branch,
	})
	if err != nil {
		return "", err
	}

	reqPath := c.repoPath("contents") + "/" + contentsPath(path)
	resp, err := c.doRequest(ctx, http.MethodDelete, reqPath, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", responseError(resp)
	}

	var result struct {
		Commit struct {
			SHA string `json:"sha"`
		} `json:"commit"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.Commit.SHA, nil
}
