package bulkimport

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var referencePattern = regexp.MustCompile(`^\d+(/\d+)*$`)

const referrerAuditPrefix = "Additional referrers: "

// parseReferenceToken decodes "18" or "18/19/20" into user ids, keeping order
// and dropping repeats.
func parseReferenceToken(token string) ([]int64, error) {
	compact := strings.ReplaceAll(token, " ", "")
	if !referencePattern.MatchString(compact) {
		return nil, fmt.Errorf("invalid reference %q: expected user ids separated by '/'", token)
	}

	var ids []int64
	seen := make(map[int64]bool)
	for _, part := range strings.Split(compact, "/") {
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid reference %q: %q is not a valid user id", token, part)
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func formatReferenceIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, "/")
}

// appendReferrerAudit records the non-canonical referrers in notes. Running it
// twice with the same ids leaves notes unchanged.
func appendReferrerAudit(notes string, extra []int64) string {
	if len(extra) == 0 {
		return notes
	}
	users := make([]string, len(extra))
	for i, id := range extra {
		users[i] = "user " + strconv.FormatInt(id, 10)
	}
	return appendNote(notes, referrerAuditPrefix+strings.Join(users, ", "))
}
