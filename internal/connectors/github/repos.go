package github

import (
	"context"
	"fmt"
	"strings"

	gh "github.com/google/go-github/v80/github"
)

// resolveRepos returns the repositories a sync run covers. When the source
// config names repositories explicitly, only those are fetched. Otherwise
// every repository the token can access is listed, minus archived, forked,
// and disabled ones.
func resolveRepos(ctx context.Context, client *Client, cfg *Config) ([]*gh.Repository, error) {
	if len(cfg.Repos) > 0 {
		repos := make([]*gh.Repository, 0, len(cfg.Repos))
		for _, fullName := range cfg.Repos {
			owner, name, _ := strings.Cut(fullName, "/")
			repo, err := client.GetRepository(ctx, owner, name)
			if err != nil {
				if IsNotFound(err) {
					return nil, fmt.Errorf("%w: %s", ErrRepoNotFound, fullName)
				}
				return nil, err
			}
			repos = append(repos, repo)
		}
		return repos, nil
	}

	repos, err := client.ListAllAccessibleRepos(ctx)
	if err != nil {
		return nil, err
	}
	return FilterRepos(repos, false, false), nil
}

// FilterRepos filters repositories based on criteria.
func FilterRepos(repos []*gh.Repository, includeArchived, includeForks bool) []*gh.Repository {
	filtered := make([]*gh.Repository, 0, len(repos))
	for _, r := range repos {
		if r.GetArchived() && !includeArchived {
			continue
		}
		if r.GetFork() && !includeForks {
			continue
		}
		if r.GetDisabled() {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered
}
