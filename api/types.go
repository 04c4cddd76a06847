package api

import (
	"encoding/json"
	"time"
)

// Application is a client application registered with the update server.
type Application struct {
	ID          uint64    `json:"id"`
	AppID       string    `json:"app_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IconURL     string    `json:"icon_url"`
	IsActive    bool      `json:"is_active"`
	CreatedBy   uint64    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	KeysCount   int       `json:"keys_count"`
}

type ApplicationInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IconURL     string `json:"icon_url"`
	IsActive    bool   `json:"is_active"`
}

// ApplicationKey is an API key scoped to one application. KeySecret is only
// populated in the response to key creation.
type ApplicationKey struct {
	ID          uint64     `json:"id"`
	KeyID       string     `json:"key_id"`
	AppID       string     `json:"app_id"`
	Name        string     `json:"name"`
	Permissions []string   `json:"permissions"`
	IsActive    bool       `json:"is_active"`
	LastUsed    *time.Time `json:"last_used"`
	CreatedBy   uint64     `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	KeySecret   string     `json:"key_secret,omitempty"`
}

type ApplicationKeyInput struct {
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
	IsActive    bool     `json:"is_active"`
}

// Channel is a release channel such as stable or beta.
type Channel struct {
	ID                uint64    `json:"id"`
	Name              string    `json:"name"`
	DisplayName       string    `json:"display_name"`
	Description       string    `json:"description"`
	IsActive          bool      `json:"is_active"`
	AutoPublish       bool      `json:"auto_publish"`
	RolloutPercentage int       `json:"rollout_percentage"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type ChannelInput struct {
	Name              string `json:"name"`
	DisplayName       string `json:"display_name"`
	Description       string `json:"description"`
	IsActive          bool   `json:"is_active"`
	AutoPublish       bool   `json:"auto_publish"`
	RolloutPercentage int    `json:"rollout_percentage"`
}

// Version is one published or draft release of an application.
type Version struct {
	ID                uint64     `json:"id"`
	AppID             string     `json:"app_id"`
	Version           string     `json:"version"`
	Channel           string     `json:"channel"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	ReleaseNotes      string     `json:"release_notes"`
	BreakingChanges   string     `json:"breaking_changes"`
	MinUpgradeVersion string     `json:"min_upgrade_version"`
	FileURL           string     `json:"file_url"`
	FileSize          int64      `json:"file_size"`
	FileChecksum      string     `json:"file_checksum"`
	IsPublished       bool       `json:"is_published"`
	IsForced          bool       `json:"is_forced"`
	PublishTime       *time.Time `json:"publish_time"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

type VersionInput struct {
	AppID             string `json:"app_id"`
	Version           string `json:"version"`
	Channel           string `json:"channel"`
	Title             string `json:"title"`
	Description       string `json:"description"`
	ReleaseNotes      string `json:"release_notes"`
	BreakingChanges   string `json:"breaking_changes"`
	MinUpgradeVersion string `json:"min_upgrade_version"`
	FileURL           string `json:"file_url"`
	FileSize          int64  `json:"file_size"`
	FileChecksum      string `json:"file_checksum"`
	IsForced          bool   `json:"is_forced"`
}

// VersionFilter narrows a version listing.
type VersionFilter struct {
	Page
	AppID   string
	Channel string
}

// Repository is a GitHub repository bound to an application.
type Repository struct {
	ID             uint64     `json:"id"`
	AppID          string     `json:"app_id"`
	RepositoryURL  string     `json:"repository_url"`
	OwnerName      string     `json:"owner_name"`
	RepoName       string     `json:"repo_name"`
	BranchName     string     `json:"branch_name"`
	AuthType       string     `json:"auth_type"`
	GitHubAppID    int64      `json:"github_app_id,omitempty"`
	InstallationID int64      `json:"installation_id,omitempty"`
	WebhookID      int64      `json:"webhook_id"`
	IsActive       bool       `json:"is_active"`
	AutoSync       bool       `json:"auto_sync"`
	AutoPublish    bool       `json:"auto_publish"`
	DefaultChannel string     `json:"default_channel"`
	LastSyncAt     *time.Time `json:"last_sync_at"`
	LastSyncStatus string     `json:"last_sync_status"`
	LastSyncError  string     `json:"last_sync_error"`
	SyncCount      int64      `json:"sync_count"`
	CreatedBy      uint64     `json:"created_by"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	HasAccessToken bool       `json:"has_access_token"`
	HasGitHubApp   bool       `json:"has_github_app"`
}

// RepositoryInput binds a repository. AuthType is "token" or "github_app";
// the matching credential fields must be set.
type RepositoryInput struct {
	AppID          string `json:"app_id"`
	RepositoryURL  string `json:"repository_url"`
	BranchName     string `json:"branch_name"`
	AuthType       string `json:"auth_type"`
	AccessToken    string `json:"access_token,omitempty"`
	GitHubAppID    int64  `json:"github_app_id,omitempty"`
	InstallationID int64  `json:"installation_id,omitempty"`
	PrivateKey     string `json:"private_key,omitempty"`
	IsActive       bool   `json:"is_active"`
	AutoSync       bool   `json:"auto_sync"`
	AutoPublish    bool   `json:"auto_publish"`
	DefaultChannel string `json:"default_channel"`
}

type SyncResult struct {
	Status         string    `json:"status"`
	Message        string    `json:"message"`
	ReleasesFound  int       `json:"releases_found"`
	ReleasesSync   int       `json:"releases_sync"`
	VersionsCreate int       `json:"versions_create"`
	SyncedAt       time.Time `json:"synced_at"`
	Errors         []string  `json:"errors,omitempty"`
}

// Stats is the dashboard summary for a period.
type Stats struct {
	TotalUsers          int64            `json:"totalUsers"`
	TotalDownloads      int64            `json:"totalDownloads"`
	SuccessRate         float64          `json:"successRate"`
	VersionDistribution map[string]int64 `json:"versionDistribution"`
	RegionDistribution  map[string]int64 `json:"regionDistribution"`
	DailyStats          []DailyStat      `json:"dailyStats"`
}

type DailyStat struct {
	Date      string `json:"date"`
	Downloads int64  `json:"downloads"`
	Installs  int64  `json:"installs"`
	Failures  int64  `json:"failures"`
}

// Raw is a payload whose shape is owned by the server, such as the API
// documentation or GitHub release listings.
type Raw = json.RawMessage
