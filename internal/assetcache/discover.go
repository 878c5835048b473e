package assetcache

import (
	"fmt"
	"io"
	"path"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DiscoverAssets lists the stylesheet, manifest and script references of an
// HTML document, in document order.
func DiscoverAssets(doc io.Reader) ([]string, error) {
	d, err := goquery.NewDocumentFromReader(doc)
	if err != nil {
		return nil, fmt.Errorf("assetcache: parse document: %w", err)
	}
	var refs []string
	d.Find(`link[rel="stylesheet"][href], link[rel="manifest"][href], script[src]`).Each(func(_ int, s *goquery.Selection) {
		ref, ok := s.Attr("href")
		if !ok {
			ref, _ = s.Attr("src")
		}
		if ref = strings.TrimSpace(ref); ref != "" {
			refs = append(refs, ref)
		}
	})
	return refs, nil
}

// CheckManifest returns the same-origin assets referenced by doc that the
// manifest does not list. External references are ignored.
func CheckManifest(doc io.Reader, manifest []string) ([]string, error) {
	refs, err := DiscoverAssets(doc)
	if err != nil {
		return nil, err
	}
	listed := make(map[string]bool, len(manifest))
	for _, m := range manifest {
		listed[normalizeRef(m)] = true
	}
	var missing []string
	for _, r := range refs {
		if isExternal(r) {
			continue
		}
		if n := normalizeRef(r); !listed[n] && !slices.Contains(missing, r) {
			missing = append(missing, r)
		}
	}
	return missing, nil
}

func isExternal(ref string) bool {
	return strings.HasPrefix(ref, "//") || strings.Contains(ref, "://") || strings.HasPrefix(ref, "data:")
}

// normalizeRef maps "./app.js", "app.js" and "/app.js" to the same path.
func normalizeRef(ref string) string {
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		ref = ref[:i]
	}
	return path.Clean("/" + strings.TrimPrefix(ref, "./"))
}
