package api

import (
	"context"
	"net/http"
)

func (c *Client) Channels(ctx context.Context) ([]Channel, error) {
	var out []Channel
	if err := c.get(ctx, "/channels", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Channel(ctx context.Context, id uint64) (*Channel, error) {
	seg, err := numericID(id)
	if err != nil {
		return nil, err
	}
	var out Channel
	if err := c.get(ctx, "/channels/"+seg, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateChannel(ctx context.Context, in ChannelInput) (*Channel, error) {
	var out Channel
	if err := c.send(ctx, http.MethodPost, "/channels", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateChannel(ctx context.Context, id uint64, in ChannelInput) (*Channel, error) {
	seg, err := numericID(id)
	if err != nil {
		return nil, err
	}
	var out Channel
	if err := c.send(ctx, http.MethodPut, "/channels/"+seg, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteChannel(ctx context.Context, id uint64) error {
	seg, err := numericID(id)
	if err != nil {
		return err
	}
	return c.send(ctx, http.MethodDelete, "/channels/"+seg, nil, nil)
}
