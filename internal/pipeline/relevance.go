package pipeline

import (
	"strings"

	"topicgrid/internal/prompt"
)

var genericTerms = []string{"节庆聚餐", "生活方式", "日常", "一般", "普通", "常见"}

// FilterRelevant drops generic filler keywords, then tops the list back up
// from the unfiltered output in order so a column is not left short. A
// keyword that contains the topic, or is contained in it, is always kept.
func FilterRelevant(keywords []string, topic string) []string {
	t := strings.ToLower(topic)
	kept := make([]string, 0, len(keywords))
	dropped := make([]string, 0)
	for _, k := range keywords {
		lk := strings.ToLower(k)
		if t != "" && (strings.Contains(lk, t) || strings.Contains(t, lk)) {
			kept = append(kept, k)
			continue
		}
		if isGeneric(lk) {
			dropped = append(dropped, k)
			continue
		}
		kept = append(kept, k)
	}
	for _, k := range dropped {
		if len(kept) >= prompt.KeywordsPerDimension {
			break
		}
		kept = append(kept, k)
	}
	return kept
}

func isGeneric(k string) bool {
	for _, term := range genericTerms {
		if strings.Contains(k, term) {
			return true
		}
	}
	return false
}
