// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package index implements a read-only client for the Taskcluster index
// service. The target-task filters use it to look up whether a task has
// already been indexed for a revision; the run transforms themselves never
// touch the network.
package index

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// requestTimeout bounds a single index lookup.
const requestTimeout = 30 * time.Second

// ErrTaskNotFound is returned when no task is indexed under the requested
// route.
var ErrTaskNotFound = errors.New("no task found in index")

// A Client queries the Taskcluster index service.
type Client struct {
	http *resty.Client
}

// New returns a client for the index service at the given base URL, for
// example "https://firefox-ci-tc.services.mozilla.com/api/index/v1".
func New(baseURL string) *Client {
	return &Client{
		http: resty.New().SetBaseURL(baseURL).SetTimeout(requestTimeout),
	}
}

// FindTask returns the ID of the task indexed under the given route. It
// returns ErrTaskNotFound when the route has no task.
func (c *Client) FindTask(ctx context.Context, route string) (string, error) {
	var result struct {
		TaskID string `json:"taskId"`
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&result).
		SetPathParam("route", route).
		Get("/task/{route}")
	if err != nil {
		return "", fmt.Errorf("index lookup for %q failed: %w", route, err)
	}

	if resp.StatusCode() == http.StatusNotFound {
		return "", fmt.Errorf("%w: %s", ErrTaskNotFound, route)
	}

	if resp.IsError() {
		return "", fmt.Errorf("index lookup for %q failed: %s", route, resp.Status())
	}

	return result.TaskID, nil
}
