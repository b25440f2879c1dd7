package bot

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatCount(t *testing.T) {
	cases := map[int64]string{
		0:       "0",
		7:       "7",
		999:     "999",
		1000:    "1,000",
		12345:   "12,345",
		1234567: "1,234,567",
		-4321:   "-4,321",
	}
	for n, want := range cases {
		assert.Equal(t, want, formatCount(n))
	}
}

func TestMedalFor(t *testing.T) {
	assert.Equal(t, "🥇", medalFor(1))
	assert.Equal(t, "🥈", medalFor(2))
	assert.Equal(t, "🥉", medalFor(3))
	assert.Equal(t, "**4.**", medalFor(4))
	assert.Equal(t, "**27.**", medalFor(27))
}

func TestFormatRanking(t *testing.T) {
	users := []rankedUser{
		{Name: "alice", Points: 1200},
		{Name: "bob", Points: 90},
	}
	text := formatRanking(users, 1)
	assert.Contains(t, text, "🥇 **alice** = **1,200** credits")
	assert.Contains(t, text, "🥈 **bob** = **90** credits")

	// Continuation pages keep counting from their absolute rank.
	text = formatRanking(users, 21)
	assert.Contains(t, text, "**21.** **alice**")
	assert.Contains(t, text, "**22.** **bob**")
}

func TestTotalPagesAndBounds(t *testing.T) {
	assert.Equal(t, 1, totalPages(0, allTimePerPage))
	assert.Equal(t, 1, totalPages(20, allTimePerPage))
	assert.Equal(t, 2, totalPages(21, allTimePerPage))
	assert.Equal(t, 3, totalPages(41, allTimePerPage))

	start, end := pageBounds(45, 0, allTimePerPage)
	assert.Equal(t, 0, start)
	assert.Equal(t, 20, end)

	start, end = pageBounds(45, 2, allTimePerPage)
	assert.Equal(t, 40, start)
	assert.Equal(t, 45, end)

	// A page past the end is empty rather than out of range.
	start, end = pageBounds(45, 9, allTimePerPage)
	assert.Equal(t, 45, start)
	assert.Equal(t, 45, end)
}

func TestBuildAllTimeButtons(t *testing.T) {
	components := buildAllTimeButtons(0, 45)
	require.Len(t, components, 1)
	row, ok := components[0].(discordgo.ActionsRow)
	require.True(t, ok)
	require.Len(t, row.Components, 3)

	prev := row.Components[0].(discordgo.Button)
	indicator := row.Components[1].(discordgo.Button)
	next := row.Components[2].(discordgo.Button)

	assert.True(t, prev.Disabled)
	assert.Equal(t, "Page 1/3", indicator.Label)
	assert.False(t, next.Disabled)
	assert.Equal(t, "alltime:1", next.CustomID)

	// Last page disables Next instead.
	components = buildAllTimeButtons(2, 45)
	row = components[0].(discordgo.ActionsRow)
	assert.False(t, row.Components[0].(discordgo.Button).Disabled)
	assert.Equal(t, "alltime:1", row.Components[0].(discordgo.Button).CustomID)
	assert.True(t, row.Components[2].(discordgo.Button).Disabled)
}

func TestBuildStatsEmbedTruncatesBookList(t *testing.T) {
	user := &discordgo.User{ID: "1", Username: "alice"}

	books := make([]bookLine, 0, 12)
	for i := 0; i < 12; i++ {
		books = append(books, bookLine{Name: "book.pdf", Pages: 10})
	}

	embed := buildStatsEmbed(user, 120, 1, books)
	require.Len(t, embed.Fields, 4)

	uploads := embed.Fields[3]
	assert.Equal(t, "📚 Your Uploads", uploads.Name)
	assert.Contains(t, uploads.Value, "... and 2 more")
}

func TestDisplayNameOfPrefersGlobalName(t *testing.T) {
	assert.Equal(t, "Alice", displayNameOf(&discordgo.User{Username: "alice", GlobalName: "Alice"}))
	assert.Equal(t, "alice", displayNameOf(&discordgo.User{Username: "alice"}))
	assert.Equal(t, "Unknown", displayNameOf(nil))
}
