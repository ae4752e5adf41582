package githost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

// PullRequest is an opened pull request.
type PullRequest struct {
	Number int    `json:"number"`
	URL    string `json:"html_url"`
}

// CreatePullRequest opens a pull request from head into base.
func (c *Client) CreatePullRequest(ctx context.Context, title, body, head, base string) (*PullRequest, error) {
	payload, err := json.Marshal(map[string]string{
		"title": title,
		"body":  body,
		"head":  head,
		"base":  base,
	})
	if err != nil {
		return nil, err
	}

	resp, err := c.doRequest(ctx, http.MethodPost, c.repoPath("pulls"), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, responseError(resp)
	}

	var pr PullRequest
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, err
	}
	return &pr, nil
}

// MergePullRequest merges the pull request with the given method (merge,
// squash, or rebase). A nil error means the merge landed.
func (c *Client) MergePullRequest(ctx context.Context, number int, method string) error {
	if method == "" {
		method = "squash"
	}
	payload, err := json.Marshal(map[string]string{
		"merge_method": method,
	})
	if err != nil {
		return err
	}

	path := c.repoPath("pulls", strconv.Itoa(number), "merge")
	resp, err := c.doRequest(ctx, http.MethodPut, path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return responseError(resp)
	}

	var result struct {
		Merged  bool   `json:"merged"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return err
	}
	if !result.Merged {
		return fmt.Errorf("merge refused: %s", result.Message)
	}
	return nil
}
