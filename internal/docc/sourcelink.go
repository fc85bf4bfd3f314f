package docc

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-git/go-git/v5"

	"git.home.luguber.info/inful/doccbuild/internal/logfields"
)

// SourceLinkArguments derives docc source-service flags from the git
// repository containing dir, so rendered symbols can link back to hosted
// source. This is best effort: no repository, detached state or an
// unrecognizable remote yields no flags and never an error.
//
// service follows config semantics: "none" disables linking, "auto" infers
// the service from the origin remote host, anything else is passed through.
func SourceLinkArguments(dir, service string) Arguments {
	if service == "none" {
		return nil
	}

	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		slog.Debug("No git repository for source links", logfields.Path(dir), logfields.Error(err))
		return nil
	}

	head, err := repo.Head()
	if err != nil {
		slog.Debug("Cannot resolve HEAD for source links", logfields.Error(err))
		return nil
	}

	remote, err := repo.Remote("origin")
	if err != nil || len(remote.Config().URLs) == 0 {
		slog.Debug("No origin remote for source links")
		return nil
	}

	webURL := normalizeRemoteURL(remote.Config().URLs[0])
	if webURL == "" {
		return nil
	}

	if service == "" || service == "auto" {
		service = inferService(webURL)
		if service == "" {
			slog.Debug("Cannot infer source service from remote", slog.String("remote", webURL))
			return nil
		}
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil
	}

	baseURL := fmt.Sprintf("%s/blob/%s", webURL, head.Hash().String())
	return Arguments{
		"--source-service", service,
		"--source-service-base-url", baseURL,
		"--checkout-path", worktree.Filesystem.Root(),
	}
}

// normalizeRemoteURL converts common git remote forms into a browsable URL,
// e.g. "git@github.com:org/repo.git" -> "https://github.com/org/repo".
func normalizeRemoteURL(raw string) string {
	raw = strings.TrimSuffix(raw, ".git")

	if after, ok := strings.CutPrefix(raw, "git@"); ok {
		host, path, found := strings.Cut(after, ":")
		if !found {
			return ""
		}
		return "https://" + host + "/" + path
	}
	if after, ok := strings.CutPrefix(raw, "ssh://git@"); ok {
		return "https://" + after
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	return ""
}

func inferService(webURL string) string {
	switch {
	case strings.Contains(webURL, "github.com"):
		return "github"
	case strings.Contains(webURL, "gitlab"):
		return "gitlab"
	case strings.Contains(webURL, "bitbucket"):
		return "bitbucket"
	default:
		return ""
	}
}
