package theme

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7aa2f7"))
	boxStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#565f89"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#a9b1d6"))
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#9ece6a")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0af68"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#565f89"))
)

// Banner returns the tool banner.
func Banner() string {
	return titleStyle.Render("tweetsieve") + mutedStyle.Render("  filter and export tweet batches") + "\n"
}

// PrintBanner prints the banner to stdout.
func PrintBanner() {
	fmt.Print(Banner())
}

// DayCount is one row of the per-day breakdown.
type DayCount struct {
	Day   string
	Count int
}

// Summary describes a finished filter run for the terminal.
type Summary struct {
	Total    int
	Kept     int
	Skipped  int
	SortedBy string
	QueryErr string
	Days     []DayCount
	Files    []string
	PDFPages int // 0 when unknown
}

// RenderSummary formats s as a bordered box.
func RenderSummary(s Summary) string {
	var b strings.Builder
	row := func(label string, v any) {
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-10s", label)))
		b.WriteString(valueStyle.Render(fmt.Sprint(v)))
		b.WriteByte('\n')
	}
	row("records", s.Total)
	row("kept", s.Kept)
	row("skipped", s.Skipped)
	row("sorted by", s.SortedBy)
	if s.PDFPages > 0 {
		row("pdf pages", s.PDFPages)
	}
	if s.QueryErr != "" {
		b.WriteString(warningStyle.Render("query invalid, no records matched: " + s.QueryErr))
		b.WriteByte('\n')
	}
	if len(s.Days) > 0 {
		b.WriteString(mutedStyle.Render("per day"))
		b.WriteByte('\n')
		for _, d := range s.Days {
			b.WriteString(labelStyle.Render(fmt.Sprintf("  %-12s", d.Day)))
			b.WriteString(valueStyle.Render(fmt.Sprint(d.Count)))
			b.WriteByte('\n')
		}
	}
	for _, f := range s.Files {
		b.WriteString(mutedStyle.Render("wrote " + f))
		b.WriteByte('\n')
	}
	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// TweetCard is one record as listed on screen.
type TweetCard struct {
	Index    int // 1-based position in the listed batch
	Date     string
	Text     string
	Replies  string
	Retweets string
	Likes    string
	Quotes   string
}

// RenderTweets lists cards under a heading, one short block per tweet.
func RenderTweets(heading string, cards []TweetCard) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(heading))
	b.WriteByte('\n')
	if len(cards) == 0 {
		b.WriteString(mutedStyle.Render("  (none)"))
		b.WriteByte('\n')
		return b.String()
	}
	for _, c := range cards {
		b.WriteString(labelStyle.Render(fmt.Sprintf("Tweet %d", c.Index)))
		b.WriteString(mutedStyle.Render(" · " + c.Date))
		b.WriteByte('\n')
		b.WriteString("  " + c.Text)
		b.WriteByte('\n')
		b.WriteString(mutedStyle.Render(fmt.Sprintf("  replies %s · retweets %s · likes %s · quotes %s",
			c.Replies, c.Retweets, c.Likes, c.Quotes)))
		b.WriteByte('\n')
	}
	return b.String()
}
