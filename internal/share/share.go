// Package share builds the post that announces freshly submitted reviews.
package share

import (
	"net/url"
	"strings"

	"reviewant/internal/constants"
)

const (
	headline   = constants.ShareHashtag + " でマッチで出会ったプレイヤーをレビューしました✨️"
	intentBase = "https://twitter.com/share"
)

type Entry struct {
	PlayerName string `json:"player_name"` // name#tag
	Rating     int    `json:"rating"`
	Comment    string `json:"comment"`
}

// Stars renders rating as five ★/☆ glyphs, clamped to 0..5.
func Stars(rating int) string {
	rating = min(max(rating, 0), 5)
	return strings.Repeat("★", rating) + strings.Repeat("☆", 5-rating)
}

// ComposeText renders the share post for entries, one block per review.
func ComposeText(entries []Entry) string {
	blocks := make([]string, len(entries))
	for i, e := range entries {
		blocks[i] = "■ " + e.PlayerName + " \n評価: " + Stars(e.Rating) + "\n内容: " + e.Comment
	}
	return headline + "\n\n" + strings.Join(blocks, "\n\n") + "\n\n"
}

// IntentURL is the share-intent link carrying text and siteURL.
func IntentURL(text, siteURL string) string {
	q := url.Values{}
	q.Set("text", text)
	q.Set("url", siteURL)
	return intentBase + "?" + q.Encode()
}
