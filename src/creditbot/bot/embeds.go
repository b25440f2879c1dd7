package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

const (
	colorGreen = 0x57f287
	colorBlue  = 0x3498db

	leaderboardSize = 10
	allTimePerPage  = 20

	footerBrand = "Vaahaka Credits"
)

// rankedUser is a leaderboard entry with its display name resolved.
type rankedUser struct {
	Name   string
	Points int64
}

var medals = []string{"🥇", "🥈", "🥉"}

func medalFor(rank int) string {
	if rank >= 1 && rank <= len(medals) {
		return medals[rank-1]
	}
	return fmt.Sprintf("**%d.**", rank)
}

// formatCount renders an integer with thousands separators, matching the
// original bot's message formatting.
func formatCount(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var out strings.Builder
	for i, digit := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out.WriteByte(',')
		}
		out.WriteRune(digit)
	}
	if neg {
		return "-" + out.String()
	}
	return out.String()
}

// formatRanking renders leaderboard lines starting at the given rank.
func formatRanking(users []rankedUser, startRank int) string {
	var out strings.Builder
	for i, u := range users {
		rank := startRank + i
		fmt.Fprintf(&out, "%s **%s** = **%s** credits\n", medalFor(rank), u.Name, formatCount(u.Points))
	}
	return out.String()
}

func totalPages(count, perPage int) int {
	if count <= 0 {
		return 1
	}
	return (count + perPage - 1) / perPage
}

// pageBounds slices [start, end) for a zero-based page.
func pageBounds(count, page, perPage int) (int, int) {
	start := page * perPage
	if start > count {
		start = count
	}
	end := start + perPage
	if end > count {
		end = count
	}
	return start, end
}

func buildUploadEmbed(user *discordgo.User, fileName string, pageCount, totalPoints, rank int64) *discordgo.MessageEmbed {
	now := time.Now().UTC().Format(time.RFC3339)
	return &discordgo.MessageEmbed{
		Title:       "📚 NEW BOOK UPLOADED!",
		Description: fmt.Sprintf("**%s** has uploaded a new book!", displayNameOf(user)),
		Color:       colorGreen,
		Timestamp:   now,
		Thumbnail:   &discordgo.MessageEmbedThumbnail{URL: user.AvatarURL("")},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "📖 Book", Value: fmt.Sprintf("`%s`", fileName)},
			{Name: "⭐ Points Earned", Value: fmt.Sprintf("**+%s** credits", formatCount(pageCount)), Inline: true},
			{Name: "🏆 Total Credits", Value: fmt.Sprintf("**%s** credits", formatCount(totalPoints)), Inline: true},
			{Name: "📊 Rank", Value: fmt.Sprintf("**#%d**", rank), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text:    fmt.Sprintf("Uploaded by %s", user.Username),
			IconURL: user.AvatarURL(""),
		},
	}
}

func buildTopEmbed(title, description string, users []rankedUser, iconURL string) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       colorGreen,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "🏅 Top 10", Value: formatRanking(users, 1)},
		},
	}
	if iconURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: iconURL}
		embed.Footer = &discordgo.MessageEmbedFooter{Text: footerBrand, IconURL: iconURL}
	} else {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: footerBrand}
	}
	return embed
}

// buildAllTimePage renders one page of the complete rankings. The ranking
// text lives in the description because field values cap at 1024 runes.
func buildAllTimePage(users []rankedUser, page, total int, iconURL string) *discordgo.MessageEmbed {
	pages := totalPages(total, allTimePerPage)
	embed := &discordgo.MessageEmbed{
		Title: "📊 ALL-TIME RANKINGS",
		Description: fmt.Sprintf("Complete ranking of all contributors\n\n%s",
			formatRanking(users, page*allTimePerPage+1)),
		Color:     colorGreen,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "👥 Total Contributors", Value: fmt.Sprintf("**%d**", total), Inline: true},
			{Name: "📄 Page", Value: fmt.Sprintf("**%d/%d**", page+1, pages), Inline: true},
		},
	}
	footer := footerBrand + " • Use the buttons to navigate pages"
	if iconURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: iconURL}
		embed.Footer = &discordgo.MessageEmbedFooter{Text: footer, IconURL: iconURL}
	} else {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: footer}
	}
	return embed
}

// buildAllTimeButtons encodes the target pages in the component custom
// ids, so page flips need no per-view state on our side.
func buildAllTimeButtons(page, total int) []discordgo.MessageComponent {
	pages := totalPages(total, allTimePerPage)
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "◀ Previous",
					Style:    discordgo.PrimaryButton,
					CustomID: fmt.Sprintf("alltime:%d", page-1),
					Disabled: page == 0,
				},
				discordgo.Button{
					Label:    fmt.Sprintf("Page %d/%d", page+1, pages),
					Style:    discordgo.SecondaryButton,
					CustomID: "alltime:indicator",
					Disabled: true,
				},
				discordgo.Button{
					Label:    "Next ▶",
					Style:    discordgo.PrimaryButton,
					CustomID: fmt.Sprintf("alltime:%d", page+1),
					Disabled: page >= pages-1,
				},
			},
		},
	}
}

func buildStatsEmbed(user *discordgo.User, points, rank int64, books []bookLine) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("📊 Stats for %s", displayNameOf(user)),
		Color: colorBlue,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Total Credits", Value: fmt.Sprintf("**%s** pages", formatCount(points)), Inline: true},
			{Name: "Global Rank", Value: fmt.Sprintf("**#%d**", rank), Inline: true},
			{Name: "Books Uploaded", Value: fmt.Sprintf("**%d**", len(books)), Inline: true},
		},
	}

	if len(books) > 0 {
		shown := books
		if len(shown) > 10 {
			shown = shown[:10]
		}
		var list strings.Builder
		for _, book := range shown {
			fmt.Fprintf(&list, "• `%s` - %s pages\n", book.Name, formatCount(book.Pages))
		}
		if len(books) > 10 {
			fmt.Fprintf(&list, "... and %d more", len(books)-10)
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "📚 Your Uploads",
			Value: strings.TrimRight(list.String(), "\n"),
		})
	}
	return embed
}

type bookLine struct {
	Name  string
	Pages int64
}

func displayNameOf(user *discordgo.User) string {
	if user == nil {
		return "Unknown"
	}
	if user.GlobalName != "" {
		return user.GlobalName
	}
	return user.Username
}
