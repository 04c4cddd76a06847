package api

import (
	"context"
	"net/http"
)

// Applications lists applications visible to the current administrator.
func (c *Client) Applications(ctx context.Context, page Page) ([]Application, *Pagination, error) {
	var out []Application
	p, err := c.list(ctx, "/applications", page.values(), &out)
	return out, p, err
}

func (c *Client) Application(ctx context.Context, id string) (*Application, error) {
	seg, err := pathID(id)
	if err != nil {
		return nil, err
	}
	var out Application
	if err := c.get(ctx, "/applications/"+seg, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateApplication(ctx context.Context, in ApplicationInput) (*Application, error) {
	var out Application
	if err := c.send(ctx, http.MethodPost, "/applications", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateApplication(ctx context.Context, id string, in ApplicationInput) (*Application, error) {
	seg, err := pathID(id)
	if err != nil {
		return nil, err
	}
	var out Application
	if err := c.send(ctx, http.MethodPut, "/applications/"+seg, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteApplication(ctx context.Context, id string) error {
	seg, err := pathID(id)
	if err != nil {
		return err
	}
	return c.send(ctx, http.MethodDelete, "/applications/"+seg, nil, nil)
}

// ApplicationKeys lists the API keys of an application. Secrets are never
// included.
func (c *Client) ApplicationKeys(ctx context.Context, appID string) ([]ApplicationKey, error) {
	seg, err := pathID(appID)
	if err != nil {
		return nil, err
	}
	var out []ApplicationKey
	if err := c.get(ctx, "/applications/"+seg+"/keys", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateApplicationKey creates a key. The returned key carries KeySecret,
// which the server will not show again.
func (c *Client) CreateApplicationKey(ctx context.Context, appID string, in ApplicationKeyInput) (*ApplicationKey, error) {
	seg, err := pathID(appID)
	if err != nil {
		return nil, err
	}
	var out ApplicationKey
	if err := c.send(ctx, http.MethodPost, "/applications/"+seg+"/keys", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateApplicationKey(ctx context.Context, appID, keyID string, in ApplicationKeyInput) (*ApplicationKey, error) {
	path, err := keyPath(appID, keyID)
	if err != nil {
		return nil, err
	}
	var out ApplicationKey
	if err := c.send(ctx, http.MethodPut, path, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteApplicationKey(ctx context.Context, appID, keyID string) error {
	path, err := keyPath(appID, keyID)
	if err != nil {
		return err
	}
	return c.send(ctx, http.MethodDelete, path, nil, nil)
}

func keyPath(appID, keyID string) (string, error) {
	app, err := pathID(appID)
	if err != nil {
		return "", err
	}
	key, err := pathID(keyID)
	if err != nil {
		return "", err
	}
	return "/applications/" + app + "/keys/" + key, nil
}

// Docs returns the server's client API documentation.
func (c *Client) Docs(ctx context.Context) (Raw, error) {
	var out Raw
	if err := c.get(ctx, "/docs", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
