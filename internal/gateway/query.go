package gateway

import (
	"encoding/json"
	"reflect"
	"strings"
	"unicode"

	"github.com/shurcooL/githubv4"

	"github.com/naka-gawa/repo-year/internal/domain"
)

type repositoryFields struct {
	URL       string
	IsFork    bool
	IsPrivate bool
}

type subjectFields struct {
	URL        string
	Repository repositoryFields
}

type pageInfo struct {
	HasNextPage bool
	EndCursor   githubv4.String
}

type commitConnection struct {
	Nodes []struct {
		CommitCount int
		OccurredAt  githubv4.DateTime
	}
	PageInfo pageInfo
}

type commitsByRepository struct {
	Repository    repositoryFields
	Contributions commitConnection `graphql:"contributions(first: 100)"`
}

type commitsByRepositoryAfter struct {
	Repository    repositoryFields
	Contributions commitConnection `graphql:"contributions(first: 100, after: $cursor)"`
}

type issueConnection struct {
	Nodes []struct {
		OccurredAt githubv4.DateTime
		Issue      subjectFields
	}
	PageInfo pageInfo
}

type pullRequestConnection struct {
	Nodes []struct {
		OccurredAt  githubv4.DateTime
		PullRequest subjectFields
	}
	PageInfo pageInfo
}

type reviewConnection struct {
	Nodes []struct {
		OccurredAt        githubv4.DateTime
		PullRequestReview subjectFields
	}
	PageInfo pageInfo
}

type repositoryConnection struct {
	Nodes []struct {
		OccurredAt githubv4.DateTime
		Repository repositoryFields
	}
	PageInfo pageInfo
}

// contributionsQuery fetches the summary calendar and the first page of
// every contribution connection.
type contributionsQuery struct {
	User struct {
		Name                    githubv4.String
		ContributionsCollection struct {
			ContributionCalendar struct {
				Weeks []struct {
					ContributionDays []struct {
						Date              string
						ContributionCount int
					}
				}
			}
			CommitContributionsByRepository []commitsByRepository `graphql:"commitContributionsByRepository(maxRepositories: 100)"`
			IssueContributions              issueConnection       `graphql:"issueContributions(first: 100)"`
			PullRequestContributions        pullRequestConnection `graphql:"pullRequestContributions(first: 100)"`
			PullRequestReviewContributions  reviewConnection      `graphql:"pullRequestReviewContributions(first: 100)"`
			RepositoryContributions         repositoryConnection  `graphql:"repositoryContributions(first: 100)"`
		} `graphql:"contributionsCollection(from: $from, to: $to)"`
	} `graphql:"user(login: $login)"`
}

type commitsPageQuery struct {
	User struct {
		ContributionsCollection struct {
			CommitContributionsByRepository []commitsByRepositoryAfter `graphql:"commitContributionsByRepository(maxRepositories: 100)"`
		} `graphql:"contributionsCollection(from: $from, to: $to)"`
	} `graphql:"user(login: $login)"`
}

type issuesPageQuery struct {
	User struct {
		ContributionsCollection struct {
			IssueContributions issueConnection `graphql:"issueContributions(first: 100, after: $cursor)"`
		} `graphql:"contributionsCollection(from: $from, to: $to)"`
	} `graphql:"user(login: $login)"`
}

type pullRequestsPageQuery struct {
	User struct {
		ContributionsCollection struct {
			PullRequestContributions pullRequestConnection `graphql:"pullRequestContributions(first: 100, after: $cursor)"`
		} `graphql:"contributionsCollection(from: $from, to: $to)"`
	} `graphql:"user(login: $login)"`
}

type reviewsPageQuery struct {
	User struct {
		ContributionsCollection struct {
			PullRequestReviewContributions reviewConnection `graphql:"pullRequestReviewContributions(first: 100, after: $cursor)"`
		} `graphql:"contributionsCollection(from: $from, to: $to)"`
	} `graphql:"user(login: $login)"`
}

type repositoriesPageQuery struct {
	User struct {
		ContributionsCollection struct {
			RepositoryContributions repositoryConnection `graphql:"repositoryContributions(first: 100, after: $cursor)"`
		} `graphql:"contributionsCollection(from: $from, to: $to)"`
	} `graphql:"user(login: $login)"`
}

func (q *contributionsQuery) toContributions(login string) *domain.Contributions {
	collection := q.User.ContributionsCollection
	name := string(q.User.Name)
	if name == "" {
		name = login
	}
	page := &domain.Contributions{
		Name:         name,
		Calendar:     &domain.ContributionCalendar{},
		Issues:       collection.IssueContributions.toDomain(),
		PRs:          collection.PullRequestContributions.toDomain(),
		Reviews:      collection.PullRequestReviewContributions.toDomain(),
		Repositories: collection.RepositoryContributions.toDomain(),
	}
	for _, week := range collection.ContributionCalendar.Weeks {
		var w domain.ContributionWeek
		for _, day := range week.ContributionDays {
			w.ContributionDays = append(w.ContributionDays, domain.ContributionDay{
				Date:              day.Date,
				ContributionCount: day.ContributionCount,
			})
		}
		page.Calendar.Weeks = append(page.Calendar.Weeks, w)
	}
	for _, repo := range collection.CommitContributionsByRepository {
		page.Commits = append(page.Commits, commitsToDomain(repo.Repository, repo.Contributions))
	}
	return page
}

func (r commitsByRepositoryAfter) toDomain() domain.CommitContributionsByRepository {
	return commitsToDomain(r.Repository, r.Contributions)
}

func commitsToDomain(repo repositoryFields, conn commitConnection) domain.CommitContributionsByRepository {
	out := domain.CommitContributionsByRepository{
		Repository: repo.toDomain(),
		Contributions: domain.CommitContributionsPage{
			PageInfo: conn.PageInfo.toDomain(),
		},
	}
	for _, node := range conn.Nodes {
		out.Contributions.Nodes = append(out.Contributions.Nodes, domain.CommitContribution{
			CommitCount: node.CommitCount,
			OccurredAt:  node.OccurredAt.Time,
		})
	}
	return out
}

func (r repositoryFields) toDomain() domain.RepositoryRef {
	return domain.RepositoryRef{URL: r.URL, IsFork: r.IsFork, IsPrivate: r.IsPrivate}
}

func (s subjectFields) toDomain() domain.Subject {
	return domain.Subject{URL: s.URL, Repository: s.Repository.toDomain()}
}

func (p pageInfo) toDomain() domain.PageInfo {
	return domain.PageInfo{HasNextPage: p.HasNextPage, EndCursor: string(p.EndCursor)}
}

func (c issueConnection) toDomain() []domain.IssueContribution {
	out := make([]domain.IssueContribution, 0, len(c.Nodes))
	for _, n := range c.Nodes {
		out = append(out, domain.IssueContribution{OccurredAt: n.OccurredAt.Time, Issue: n.Issue.toDomain()})
	}
	return out
}

func (c pullRequestConnection) toDomain() []domain.PullRequestContribution {
	out := make([]domain.PullRequestContribution, 0, len(c.Nodes))
	for _, n := range c.Nodes {
		out = append(out, domain.PullRequestContribution{OccurredAt: n.OccurredAt.Time, PullRequest: n.PullRequest.toDomain()})
	}
	return out
}

func (c reviewConnection) toDomain() []domain.PullRequestReviewContribution {
	out := make([]domain.PullRequestReviewContribution, 0, len(c.Nodes))
	for _, n := range c.Nodes {
		out = append(out, domain.PullRequestReviewContribution{OccurredAt: n.OccurredAt.Time, PullRequestReview: n.PullRequestReview.toDomain()})
	}
	return out
}

func (c repositoryConnection) toDomain() []domain.RepositoryContribution {
	out := make([]domain.RepositoryContribution, 0, len(c.Nodes))
	for _, n := range c.Nodes {
		out = append(out, domain.RepositoryContribution{OccurredAt: n.OccurredAt.Time, Repository: n.Repository.toDomain()})
	}
	return out
}

// QueryText returns the selection sets of every query the gateway issues,
// in the same form githubv4 sends them. Snapshots record its hash so data
// fetched with a different query is recognised as stale.
func QueryText() string {
	queries := []any{
		contributionsQuery{},
		commitsPageQuery{},
		issuesPageQuery{},
		pullRequestsPageQuery{},
		reviewsPageQuery{},
		repositoriesPageQuery{},
	}
	texts := make([]string, len(queries))
	for i, q := range queries {
		var b strings.Builder
		writeSelection(&b, reflect.TypeOf(q), false)
		texts[i] = b.String()
	}
	return strings.Join(texts, "\n")
}

var jsonUnmarshaler = reflect.TypeFor[json.Unmarshaler]()

func writeSelection(b *strings.Builder, t reflect.Type, inline bool) {
	switch t.Kind() {
	case reflect.Pointer, reflect.Slice:
		writeSelection(b, t.Elem(), false)
	case reflect.Struct:
		if reflect.PointerTo(t).Implements(jsonUnmarshaler) {
			return
		}
		if !inline {
			b.WriteByte('{')
		}
		for i := 0; i < t.NumField(); i++ {
			if i != 0 {
				b.WriteByte(',')
			}
			f := t.Field(i)
			value, ok := f.Tag.Lookup("graphql")
			inlineField := f.Anonymous && !ok
			if !inlineField {
				if ok {
					b.WriteString(value)
				} else {
					b.WriteString(lowerCamel(f.Name))
				}
			}
			writeSelection(b, f.Type, inlineField)
		}
		if !inline {
			b.WriteByte('}')
		}
	}
}

// lowerCamel lowercases the leading initialism of a Go field name:
// URL becomes url, IsFork becomes isFork.
func lowerCamel(name string) string {
	runes := []rune(name)
	upper := 0
	for upper < len(runes) && unicode.IsUpper(runes[upper]) {
		upper++
	}
	if upper > 1 && upper < len(runes) {
		upper--
	}
	for i := 0; i < upper; i++ {
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}
