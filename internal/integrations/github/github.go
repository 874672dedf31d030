// Package github implements the GitHub integration: issues assigned to a
// repository are pulled in as tasks.
package github

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	gogithub "github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"

	"tasksync/internal/integrations"
	"tasksync/internal/models"
	"tasksync/internal/settings"
)

// Key is the integration's registry key.
const Key = "github"

const defaultTokenEnvVar = "GITHUB_TOKEN"

// Config returns the registry entry for the GitHub integration.
func Config() integrations.Config {
	return integrations.Config{
		Key:  Key,
		Name: "GitHub",
		Icon: "github",
		NewService: func(cfg settings.Settings, logger *slog.Logger) (integrations.Service, error) {
			return NewClient(cfg.Integrations.GitHub, logger)
		},
		IsEnabled: func(cfg settings.Settings) bool {
			return cfg.Integrations.GitHub.Enabled
		},
		SettingsPath: func() string {
			return settings.SectionGitHub
		},
	}
}

// Client fetches repository issues.
type Client struct {
	gh     *gogithub.Client
	cfg    settings.GitHubSettings
	logger *slog.Logger
}

// NewClient creates an authenticated client. The token is read from the
// environment variable named in settings, never from the settings file.
func NewClient(cfg settings.GitHubSettings, logger *slog.Logger) (*Client, error) {
	if cfg.Owner == "" || cfg.Repo == "" {
		return nil, fmt.Errorf("github integration requires owner and repo settings")
	}

	envVar := cfg.TokenEnvVar
	if envVar == "" {
		envVar = defaultTokenEnvVar
	}
	token := os.Getenv(envVar)
	if token == "" {
		return nil, fmt.Errorf("github token environment variable %s is not set", envVar)
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := oauth2.NewClient(context.Background(), ts)

	return &Client{
		gh:     gogithub.NewClient(httpClient),
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Key returns the registry key.
func (c *Client) Key() string {
	return Key
}

// FetchTasks pulls repository issues as tasks. Pull requests share the
// issues API and are skipped.
func (c *Client) FetchTasks(ctx context.Context) ([]models.Task, error) {
	state := "open"
	if c.cfg.IncludeClosed {
		state = "all"
	}

	opts := &gogithub.IssueListByRepoOptions{
		State:       state,
		ListOptions: gogithub.ListOptions{PerPage: 100},
	}

	var tasks []models.Task
	for {
		issues, resp, err := c.gh.Issues.ListByRepo(ctx, c.cfg.Owner, c.cfg.Repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list issues for %s/%s: %w", c.cfg.Owner, c.cfg.Repo, err)
		}
		for _, issue := range issues {
			if issue.IsPullRequest() {
				continue
			}
			tasks = append(tasks, issueToTask(issue))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	c.logger.Info("Fetched GitHub issues.", "repo", c.cfg.Owner+"/"+c.cfg.Repo, "tasks", len(tasks))
	return tasks, nil
}

func issueToTask(issue *gogithub.Issue) models.Task {
	symbol := " "
	if issue.GetState() == "closed" {
		symbol = "x"
		if issue.GetStateReason() == "not_planned" {
			symbol = "-"
		}
	}

	task := models.Task{
		Source:       Key,
		ExternalID:   strconv.Itoa(issue.GetNumber()),
		Title:        issue.GetTitle(),
		Notes:        issue.GetBody(),
		StatusSymbol: symbol,
		URL:          issue.GetHTMLURL(),
	}
	if issue.CreatedAt != nil {
		t := issue.GetCreatedAt().Time
		task.CreatedAt = &t
	}
	if issue.UpdatedAt != nil {
		t := issue.GetUpdatedAt().Time
		task.ModifiedAt = &t
	}
	if issue.Milestone != nil && issue.Milestone.DueOn != nil {
		t := issue.Milestone.GetDueOn().Time
		task.Due = &t
	}
	return task
}
