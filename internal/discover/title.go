package discover

import (
	"net/url"
	"path"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// titleCaser converts URL slugs to display form.
// cases.Title handles unicode word boundaries correctly, unlike the
// deprecated strings.Title.
var titleCaser = cases.Title(language.English)

// TitleFromURL derives a provisional display title from a canonical URL:
// the last path segment with its extension dropped and dashes and
// underscores turned into spaces, title-cased. The host is used for
// root URLs. The fetch replaces this with the page's real <title> when
// one exists.
func TitleFromURL(canonical string) string {
	u, err := url.Parse(canonical)
	if err != nil {
		return canonical
	}

	seg := path.Base(u.Path)
	if seg == "/" || seg == "." || seg == "" {
		return u.Host
	}

	if ext := path.Ext(seg); ext != "" {
		seg = strings.TrimSuffix(seg, ext)
	}
	seg = strings.NewReplacer("-", " ", "_", " ").Replace(seg)
	seg = strings.Join(strings.Fields(seg), " ")
	if seg == "" {
		return u.Host
	}
	return titleCaser.String(seg)
}
