package client

import (
	"context"
	"fmt"
	"net/url"
)

type workspaceList struct {
	Items []Workspace `json:"items"`
}

// ListWorkspaces returns all workspaces visible to the session
func (c *Client) ListWorkspaces(ctx context.Context) ([]Workspace, error) {
	var list workspaceList
	if err := c.get(ctx, "/v1/workspaces", &list); err != nil {
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}
	return list.Items, nil
}

// GetWorkspace fetches one workspace by id
func (c *Client) GetWorkspace(ctx context.Context, id string) (*Workspace, error) {
	var ws Workspace
	if err := c.get(ctx, "/v1/workspaces/"+url.PathEscape(id), &ws); err != nil {
		return nil, fmt.Errorf("failed to get workspace %s: %w", id, err)
	}
	return &ws, nil
}

// CreateWorkspace provisions a new workspace from validated settings
func (c *Client) CreateWorkspace(ctx context.Context, req CreateWorkspaceRequest) (*Workspace, error) {
	var ws Workspace
	if err := c.post(ctx, "/v1/workspaces", req, &ws); err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	return &ws, nil
}

// UpdateWorkspace changes only the fields set in req, the service merges
// the rest
func (c *Client) UpdateWorkspace(ctx context.Context, id string, req UpdateWorkspaceRequest) (*Workspace, error) {
	var ws Workspace
	if err := c.patch(ctx, "/v1/workspaces/"+url.PathEscape(id), req, &ws); err != nil {
		return nil, fmt.Errorf("failed to update workspace %s: %w", id, err)
	}
	return &ws, nil
}

// StopWorkspace stops a running workspace
func (c *Client) StopWorkspace(ctx context.Context, id string) error {
	if err := c.post(ctx, "/v1/workspaces/"+url.PathEscape(id)+"/stop", nil, nil); err != nil {
		return fmt.Errorf("failed to stop workspace %s: %w", id, err)
	}
	return nil
}
