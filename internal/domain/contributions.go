// Package domain contains the contribution calendar model: the payload pages
// produced by the GitHub gateway and the calendar they are folded into.
package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrMalformedPayload is returned when a Contributions page is missing a
// field the calendar needs to place an event.
var ErrMalformedPayload = errors.New("malformed contributions payload")

// Contributions is one page of contribution data for a user. Only the first
// page of a query sequence carries a Calendar.
type Contributions struct {
	Name         string                            `json:"name"`
	Calendar     *ContributionCalendar             `json:"calendar,omitempty"`
	Commits      []CommitContributionsByRepository `json:"commits"`
	Issues       []IssueContribution               `json:"issues"`
	PRs          []PullRequestContribution         `json:"prs"`
	Reviews      []PullRequestReviewContribution   `json:"reviews"`
	Repositories []RepositoryContribution          `json:"repositories"`
}

// ContributionCalendar is the summary calendar: totals per date grouped by week.
type ContributionCalendar struct {
	Weeks []ContributionWeek `json:"weeks"`
}

// ContributionWeek is one week of the summary calendar.
type ContributionWeek struct {
	ContributionDays []ContributionDay `json:"contributionDays"`
}

// ContributionDay is the reported total for one date.
type ContributionDay struct {
	Date              string `json:"date"`
	ContributionCount int    `json:"contributionCount"`
}

// RepositoryRef identifies a repository and carries the flags recorded on
// first sighting.
type RepositoryRef struct {
	URL       string `json:"url"`
	IsFork    bool   `json:"isFork"`
	IsPrivate bool   `json:"isPrivate"`
}

// PageInfo mirrors the GraphQL connection page info.
type PageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

// CommitContributionsByRepository groups per-day commit counts by repository.
type CommitContributionsByRepository struct {
	Repository    RepositoryRef           `json:"repository"`
	Contributions CommitContributionsPage `json:"contributions"`
}

// CommitContributionsPage is one page of commit contributions for a repository.
type CommitContributionsPage struct {
	Nodes    []CommitContribution `json:"nodes"`
	PageInfo PageInfo             `json:"pageInfo"`
}

// CommitContribution is the absolute number of commits made on the day of
// OccurredAt.
type CommitContribution struct {
	CommitCount int       `json:"commitCount"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// Subject is the issue, pull request or review an event refers to.
type Subject struct {
	URL        string        `json:"url"`
	Repository RepositoryRef `json:"repository"`
}

// IssueContribution records an opened issue.
type IssueContribution struct {
	OccurredAt time.Time `json:"occurredAt"`
	Issue      Subject   `json:"issue"`
}

// PullRequestContribution records an opened pull request.
type PullRequestContribution struct {
	OccurredAt  time.Time `json:"occurredAt"`
	PullRequest Subject   `json:"pullRequest"`
}

// PullRequestReviewContribution records a submitted review.
type PullRequestReviewContribution struct {
	OccurredAt        time.Time `json:"occurredAt"`
	PullRequestReview Subject   `json:"pullRequestReview"`
}

// RepositoryContribution records the creation of a repository.
type RepositoryContribution struct {
	OccurredAt time.Time     `json:"occurredAt"`
	Repository RepositoryRef `json:"repository"`
}

// EventCount returns the number of specific events in the page: commit
// nodes plus issue, pull request, review and creation events.
func (c *Contributions) EventCount() int {
	n := len(c.Issues) + len(c.PRs) + len(c.Reviews) + len(c.Repositories)
	for _, repo := range c.Commits {
		n += len(repo.Contributions.Nodes)
	}
	return n
}

// Validate checks that every event carries the identifiers needed to place
// it on the calendar. The returned error wraps ErrMalformedPayload and names
// the offending field.
func (c *Contributions) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: nil page", ErrMalformedPayload)
	}
	if c.Calendar != nil {
		for w, week := range c.Calendar.Weeks {
			for d, day := range week.ContributionDays {
				path := fmt.Sprintf("calendar.weeks[%d].contributionDays[%d]", w, d)
				if _, err := ParseDate(day.Date); err != nil {
					return malformed(path+".date", err.Error())
				}
				if day.ContributionCount < 0 {
					return malformed(path+".contributionCount", "negative")
				}
			}
		}
	}
	for i, repo := range c.Commits {
		path := fmt.Sprintf("commits[%d]", i)
		if repo.Repository.URL == "" {
			return malformed(path+".repository.url", "missing")
		}
		for j, node := range repo.Contributions.Nodes {
			nodePath := fmt.Sprintf("%s.contributions.nodes[%d]", path, j)
			if node.OccurredAt.IsZero() {
				return malformed(nodePath+".occurredAt", "missing")
			}
			if node.CommitCount < 0 {
				return malformed(nodePath+".commitCount", "negative")
			}
		}
	}
	for i, e := range c.Issues {
		if err := validateEvent(fmt.Sprintf("issues[%d]", i), "issue", e.OccurredAt, e.Issue); err != nil {
			return err
		}
	}
	for i, e := range c.PRs {
		if err := validateEvent(fmt.Sprintf("prs[%d]", i), "pullRequest", e.OccurredAt, e.PullRequest); err != nil {
			return err
		}
	}
	for i, e := range c.Reviews {
		if err := validateEvent(fmt.Sprintf("reviews[%d]", i), "pullRequestReview", e.OccurredAt, e.PullRequestReview); err != nil {
			return err
		}
	}
	for i, e := range c.Repositories {
		path := fmt.Sprintf("repositories[%d]", i)
		if e.OccurredAt.IsZero() {
			return malformed(path+".occurredAt", "missing")
		}
		if e.Repository.URL == "" {
			return malformed(path+".repository.url", "missing")
		}
	}
	return nil
}

func validateEvent(path, entity string, occurredAt time.Time, subject Subject) error {
	if occurredAt.IsZero() {
		return malformed(path+".occurredAt", "missing")
	}
	if subject.URL == "" {
		return malformed(path+"."+entity+".url", "missing")
	}
	if subject.Repository.URL == "" {
		return malformed(path+"."+entity+".repository.url", "missing")
	}
	return nil
}

func malformed(field, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrMalformedPayload, field, reason)
}
