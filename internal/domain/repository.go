package domain

// DefaultHue is the hue, in degrees, given to a repository before colors are
// assigned, and the hue of the most active repository afterwards.
const DefaultHue = 285

// Repository is shared by every RepositoryDay that refers to it. Its totals
// and hue are owned by the Calendar and recomputed after each merge.
type Repository struct {
	url           string
	isFork        bool
	isPrivate     bool
	hue           int
	contributions int
}

func newRepository(ref RepositoryRef) *Repository {
	return &Repository{
		url:       ref.URL,
		isFork:    ref.IsFork,
		isPrivate: ref.IsPrivate,
		hue:       DefaultHue,
	}
}

func (r *Repository) URL() string        { return r.url }
func (r *Repository) IsFork() bool       { return r.isFork }
func (r *Repository) IsPrivate() bool    { return r.isPrivate }
func (r *Repository) Hue() int           { return r.hue }
func (r *Repository) Contributions() int { return r.contributions }

// InternRepository returns the repository registered under ref.URL, creating
// it on first sighting. Flags of an existing repository are not updated.
func (c *Calendar) InternRepository(ref RepositoryRef) *Repository {
	if repo, ok := c.repos[ref.URL]; ok {
		return repo
	}
	repo := newRepository(ref)
	c.repos[ref.URL] = repo
	c.repoOrder = append(c.repoOrder, repo)
	return repo
}

// Repository returns the registered repository for url, or nil.
func (c *Calendar) Repository(url string) *Repository {
	return c.repos[url]
}

// Repositories returns every registered repository in registration order.
func (c *Calendar) Repositories() []*Repository {
	out := make([]*Repository, len(c.repoOrder))
	copy(out, c.repoOrder)
	return out
}

// RepoURLs returns every registered repository URL in registration order.
func (c *Calendar) RepoURLs() []string {
	urls := make([]string, len(c.repoOrder))
	for i, repo := range c.repoOrder {
		urls[i] = repo.url
	}
	return urls
}
