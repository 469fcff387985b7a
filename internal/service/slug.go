package service

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	slugInvalid = regexp.MustCompile(`[^a-z0-9-]+`)
	slugDashes  = regexp.MustCompile(`-{2,}`)
)

// slugify derives a URL-safe slug from an organization name: lower-cased,
// spaces to hyphens, everything else non-word stripped, with a timestamp
// suffix so two organizations with the same name get distinct slugs.
func slugify(name string, now time.Time) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, " ", "-")
	s = slugInvalid.ReplaceAllString(s, "")
	s = slugDashes.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	return fmt.Sprintf("%s-%d", s, now.Unix())
}
