package article

import "strings"

// Slugify derives a routing slug from a title: lowercase, non-alphanumeric
// runs collapsed to a single dash, no leading or trailing dash. Slugs are not
// guaranteed unique; the service appends the article id on collision.
func Slugify(title string) string {
	var sb strings.Builder
	lastDash := true // suppress a leading dash
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				sb.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimRight(sb.String(), "-")
}
