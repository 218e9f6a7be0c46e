package discord

import (
	"strconv"
	"strings"
)

// CustomIDs de componentes. Los de sala llevan ":<thread_id>".
const (
	idJoin        = "mm_join"
	idLeave       = "mm_leave"
	idSkip        = "mm_skip"
	idExit        = "mm_exit"
	idReport      = "mm_report"
	idReportModal = "mm_report_modal"

	fieldReason  = "reason"
	fieldDetails = "details"
)

func roomCustomID(prefix string, threadID int64) string {
	return prefix + ":" + strconv.FormatInt(threadID, 10)
}

// parseCustomID separa "mm_skip:123" en ("mm_skip", 123). Sin sufijo, id=0.
func parseCustomID(raw string) (prefix string, id int64) {
	prefix, rest, found := strings.Cut(raw, ":")
	if !found {
		return raw, 0
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return prefix, 0
	}
	return prefix, id
}

// sf: snowflake string -> int64 (0 si no parsea).
func sf(id string) int64 {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func str(id int64) string { return strconv.FormatInt(id, 10) }

func sfs(ids []string) []int64 {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if n := sf(id); n > 0 {
			out = append(out, n)
		}
	}
	return out
}
