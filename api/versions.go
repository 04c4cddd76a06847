package api

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/MrEthical07/goAdmin/transport"
)

// uploadFileField is the form field carrying the release package.
const uploadFileField = "file"

// Upload describes a version created or replaced together with its package.
// File is streamed; the caller keeps ownership and closes it.
type Upload struct {
	Version           string
	Channel           string
	Title             string
	Description       string
	ReleaseNotes      string
	BreakingChanges   string
	MinUpgradeVersion string
	IsForced          bool
	Publish           bool

	FileName string
	File     io.Reader
}

func (u Upload) multipart() (*transport.Multipart, error) {
	if u.File == nil || u.FileName == "" {
		return nil, ErrMissingFile
	}
	return &transport.Multipart{
		Fields: map[string]string{
			"version":             u.Version,
			"channel":             u.Channel,
			"title":               u.Title,
			"description":         u.Description,
			"release_notes":       u.ReleaseNotes,
			"breaking_changes":    u.BreakingChanges,
			"min_upgrade_version": u.MinUpgradeVersion,
			"is_forced":           strconv.FormatBool(u.IsForced),
			"publish":             strconv.FormatBool(u.Publish),
		},
		FileField: uploadFileField,
		FileName:  u.FileName,
		File:      u.File,
	}, nil
}

func (f VersionFilter) values() url.Values {
	q := f.Page.values()
	if f.AppID != "" {
		q.Set("app_id", f.AppID)
	}
	if f.Channel != "" {
		q.Set("channel", f.Channel)
	}
	return q
}

// Versions lists versions, newest first as ordered by the server.
func (c *Client) Versions(ctx context.Context, filter VersionFilter) ([]Version, *Pagination, error) {
	var out []Version
	p, err := c.list(ctx, "/versions", filter.values(), &out)
	return out, p, err
}

func (c *Client) Version(ctx context.Context, id uint64) (*Version, error) {
	seg, err := numericID(id)
	if err != nil {
		return nil, err
	}
	var out Version
	if err := c.get(ctx, "/versions/"+seg, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateVersion(ctx context.Context, in VersionInput) (*Version, error) {
	var out Version
	if err := c.send(ctx, http.MethodPost, "/versions", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateVersion(ctx context.Context, id uint64, in VersionInput) (*Version, error) {
	seg, err := numericID(id)
	if err != nil {
		return nil, err
	}
	var out Version
	if err := c.send(ctx, http.MethodPut, "/versions/"+seg, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteVersion(ctx context.Context, id uint64) error {
	seg, err := numericID(id)
	if err != nil {
		return err
	}
	return c.send(ctx, http.MethodDelete, "/versions/"+seg, nil, nil)
}

// PublishVersion makes a version visible to update checks.
func (c *Client) PublishVersion(ctx context.Context, id uint64) error {
	return c.versionAction(ctx, id, "publish")
}

// UnpublishVersion hides a version from update checks.
func (c *Client) UnpublishVersion(ctx context.Context, id uint64) error {
	return c.versionAction(ctx, id, "unpublish")
}

func (c *Client) versionAction(ctx context.Context, id uint64, action string) error {
	seg, err := numericID(id)
	if err != nil {
		return err
	}
	return c.send(ctx, http.MethodPost, "/versions/"+seg+"/"+action, nil, nil)
}

// UploadVersion creates a version of appID from an uploaded package.
func (c *Client) UploadVersion(ctx context.Context, appID string, up Upload) (*Version, error) {
	app, err := pathID(appID)
	if err != nil {
		return nil, err
	}
	return c.upload(ctx, http.MethodPost, "/applications/"+app+"/versions/upload", up)
}

// ReplaceVersionUpload replaces the package and metadata of an existing
// version of appID.
func (c *Client) ReplaceVersionUpload(ctx context.Context, appID string, versionID uint64, up Upload) (*Version, error) {
	app, err := pathID(appID)
	if err != nil {
		return nil, err
	}
	ver, err := numericID(versionID)
	if err != nil {
		return nil, err
	}
	return c.upload(ctx, http.MethodPut, "/applications/"+app+"/versions/"+ver+"/upload", up)
}

func (c *Client) upload(ctx context.Context, method, path string, up Upload) (*Version, error) {
	form, err := up.multipart()
	if err != nil {
		return nil, err
	}
	var out Version
	if _, err := c.do(ctx, &transport.Request{Method: method, Path: path, Multipart: form}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
