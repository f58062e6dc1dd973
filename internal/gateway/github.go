// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"

	"github.com/naka-gawa/repo-year/internal/domain"
)

// maxFollowUpQueries bounds the cursors walked at the same time.
const maxFollowUpQueries = 4

// Query selects whose contributions to fetch and over which period.
// GitHub limits a contributions collection to one year.
type Query struct {
	Login string
	From  time.Time
	To    time.Time
}

// Fetcher defines the behavior of a gateway for fetching contribution pages from GitHub.
type Fetcher interface {
	// ResolveLogin returns login, or the authenticated user's login when it is empty.
	ResolveLogin(ctx context.Context, login string) (string, error)
	// FetchContributions sends every page of the query to pages. It does not
	// close pages.
	FetchContributions(ctx context.Context, q Query, pages chan<- *domain.Contributions) error
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	logger        *log.Logger
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
func NewGitHubGateway(ts oauth2.TokenSource, logger *log.Logger) (*GitHubGateway, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		},
	}
	return &GitHubGateway{
		restClient:    github.NewClient(httpClient),
		graphqlClient: githubv4.NewClient(httpClient),
		logger:        logger,
	}, nil
}

func (g *GitHubGateway) ResolveLogin(ctx context.Context, login string) (string, error) {
	if login != "" {
		return login, nil
	}
	user, _, err := g.restClient.Users.Get(ctx, "")
	if err != nil {
		return "", fmt.Errorf("failed to get authenticated user: %w", err)
	}
	g.logger.Printf("Resolved authenticated user %s", user.GetLogin())
	return user.GetLogin(), nil
}

// FetchContributions fetches the first page of every connection in one query,
// then walks the remaining cursors of each connection independently.
func (g *GitHubGateway) FetchContributions(ctx context.Context, q Query, pages chan<- *domain.Contributions) error {
	q = q.withDefaults()
	g.logger.Printf("[1/2] Fetching contributions of %s from %s to %s...", q.Login, q.From.Format(time.DateOnly), q.To.Format(time.DateOnly))

	var first contributionsQuery
	if err := g.graphqlClient.Query(ctx, &first, q.variables()); err != nil {
		return fmt.Errorf("failed to execute GraphQL query for contributions: %w", err)
	}
	page := first.toContributions(q.Login)
	if err := send(ctx, pages, page); err != nil {
		return err
	}

	g.logger.Println("[2/2] Following remaining cursors...")
	collection := first.User.ContributionsCollection
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(maxFollowUpQueries)

	for _, repo := range collection.CommitContributionsByRepository {
		if info := repo.Contributions.PageInfo; info.HasNextPage {
			eg.Go(func() error {
				return g.followCommits(egCtx, q, page.Name, repo.Repository.URL, info.EndCursor, pages)
			})
		}
	}
	if info := collection.IssueContributions.PageInfo; info.HasNextPage {
		eg.Go(func() error {
			return follow(egCtx, g, q, info.EndCursor, pages, func(p *issuesPageQuery) (*domain.Contributions, pageInfo) {
				conn := p.User.ContributionsCollection.IssueContributions
				return &domain.Contributions{Name: page.Name, Issues: conn.toDomain()}, conn.PageInfo
			})
		})
	}
	if info := collection.PullRequestContributions.PageInfo; info.HasNextPage {
		eg.Go(func() error {
			return follow(egCtx, g, q, info.EndCursor, pages, func(p *pullRequestsPageQuery) (*domain.Contributions, pageInfo) {
				conn := p.User.ContributionsCollection.PullRequestContributions
				return &domain.Contributions{Name: page.Name, PRs: conn.toDomain()}, conn.PageInfo
			})
		})
	}
	if info := collection.PullRequestReviewContributions.PageInfo; info.HasNextPage {
		eg.Go(func() error {
			return follow(egCtx, g, q, info.EndCursor, pages, func(p *reviewsPageQuery) (*domain.Contributions, pageInfo) {
				conn := p.User.ContributionsCollection.PullRequestReviewContributions
				return &domain.Contributions{Name: page.Name, Reviews: conn.toDomain()}, conn.PageInfo
			})
		})
	}
	if info := collection.RepositoryContributions.PageInfo; info.HasNextPage {
		eg.Go(func() error {
			return follow(egCtx, g, q, info.EndCursor, pages, func(p *repositoriesPageQuery) (*domain.Contributions, pageInfo) {
				conn := p.User.ContributionsCollection.RepositoryContributions
				return &domain.Contributions{Name: page.Name, Repositories: conn.toDomain()}, conn.PageInfo
			})
		})
	}

	if err := eg.Wait(); err != nil {
		return err
	}
	g.logger.Println("Completed fetching contributions.")
	return nil
}

// follow walks one connection from cursor until it has no next page,
// sending a page for every query.
func follow[Q any](ctx context.Context, g *GitHubGateway, q Query, cursor githubv4.String, pages chan<- *domain.Contributions, extract func(*Q) (*domain.Contributions, pageInfo)) error {
	variables := q.variables()
	for {
		variables["cursor"] = cursor
		var pq Q
		if err := g.graphqlClient.Query(ctx, &pq, variables); err != nil {
			return fmt.Errorf("failed to execute GraphQL query for %T: %w", pq, err)
		}
		page, info := extract(&pq)
		if err := send(ctx, pages, page); err != nil {
			return err
		}
		if !info.HasNextPage {
			return nil
		}
		cursor = info.EndCursor
		g.logger.Printf("  Fetching next page for %T...", pq)
	}
}

// followCommits walks the commit contributions of one repository. The
// commits connection cannot be addressed per repository, so every
// repository is queried with the cursor and only repoURL is kept.
func (g *GitHubGateway) followCommits(ctx context.Context, q Query, name, repoURL string, cursor githubv4.String, pages chan<- *domain.Contributions) error {
	return follow(ctx, g, q, cursor, pages, func(p *commitsPageQuery) (*domain.Contributions, pageInfo) {
		page := &domain.Contributions{Name: name}
		var info pageInfo
		for _, repo := range p.User.ContributionsCollection.CommitContributionsByRepository {
			if repo.Repository.URL != repoURL {
				continue
			}
			page.Commits = append(page.Commits, repo.toDomain())
			info = repo.Contributions.PageInfo
		}
		return page, info
	})
}

func send(ctx context.Context, pages chan<- *domain.Contributions, page *domain.Contributions) error {
	select {
	case pages <- page:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q Query) withDefaults() Query {
	if q.To.IsZero() {
		q.To = time.Now()
	}
	if q.From.IsZero() {
		q.From = q.To.AddDate(-1, 0, 0)
	}
	return q
}

func (q Query) variables() map[string]interface{} {
	return map[string]interface{}{
		"login": githubv4.String(q.Login),
		"from":  githubv4.DateTime{Time: q.From},
		"to":    githubv4.DateTime{Time: q.To},
	}
}
