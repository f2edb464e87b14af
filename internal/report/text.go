package report

import (
	"fmt"
	"strings"

	"tweetsieve/internal/model"
)

const textRuleWidth = 40

// Text renders one block per record:
//
//	Tweet 1:
//	<text>
//	Replies: 3 | Retweets: 1 | Created at: 2024-03-01 | Likes: unknown
//	----------------------------------------
//
// Blocks are separated by a blank line.
func Text(records []*model.Record) string {
	blocks := make([]string, 0, len(records))
	for i, r := range records {
		text, _ := r.Text()
		var b strings.Builder
		fmt.Fprintf(&b, "Tweet %d:\n%s\n", i+1, text)
		fmt.Fprintf(&b, "Replies: %s | Retweets: %s | Created at: %s | Likes: %s\n",
			r.MetricDisplay(model.ReplyCount),
			r.MetricDisplay(model.RetweetCount),
			createdDate(r),
			r.MetricDisplay(model.LikeCount))
		b.WriteString(strings.Repeat("-", textRuleWidth))
		b.WriteByte('\n')
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n")
}
