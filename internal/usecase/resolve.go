package usecase

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/Harsh-BH/chroma/internal/domain"
)

// ResolveResult turns the relative locators of a completed job into absolute
// URLs under baseURL. It performs no I/O and returns the same result for the
// same inputs. Absolute locators are kept unchanged.
//
// It panics if job is not COMPLETED or if baseURL or a locator is malformed.
func ResolveResult(job domain.Job, baseURL string) domain.ResolvedResult {
	if job.Status != domain.StatusCompleted {
		panic(fmt.Sprintf("usecase: resolve job %q in status %s", job.ID, job.Status))
	}
	if job.ID == "" {
		panic("usecase: resolve job without id")
	}

	base, err := url.Parse(baseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		panic(fmt.Sprintf("usecase: malformed base url %q", baseURL))
	}
	root := strings.TrimRight(base.String(), "/")

	return domain.ResolvedResult{
		JobID:       job.ID,
		InputURL:    resolveRef(root, job.InputRef),
		OutputURL:   resolveRef(root, job.OutputRef),
		DownloadURL: root + "/api/download/" + url.PathEscape(job.ID),
	}
}

func resolveRef(root, ref string) string {
	if ref == "" {
		panic("usecase: empty resource locator")
	}
	u, err := url.Parse(ref)
	if err != nil {
		panic(fmt.Sprintf("usecase: malformed resource locator %q", ref))
	}
	if u.IsAbs() {
		return u.String()
	}
	return root + "/" + strings.TrimLeft(ref, "/")
}
