package domain

import (
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestIdentity(t *testing.T) {
	Convey("Given identity strings", t, func() {
		Convey("When parsing a well formed name#tag", func() {
			id, err := ParseIdentity("  Sova Main#JP1 ")

			Convey("Then name and tag are split on the separator", func() {
				So(err, ShouldBeNil)
				So(id.Name, ShouldEqual, "Sova Main")
				So(id.Tag, ShouldEqual, "JP1")
				So(id.String(), ShouldEqual, "Sova Main#JP1")
			})
		})

		Convey("When the separator or a part is missing", func() {
			_, noSep := ParseIdentity("nobody")
			_, noTag := ParseIdentity("nobody#")
			_, noName := ParseIdentity("#tag")

			Convey("Then parsing fails with invalid input", func() {
				So(errors.Is(noSep, ErrInvalidInput), ShouldBeTrue)
				So(errors.Is(noTag, ErrInvalidInput), ShouldBeTrue)
				So(errors.Is(noName, ErrInvalidInput), ShouldBeTrue)
			})
		})

		Convey("When the tag carries a second separator", func() {
			_, err := ParseIdentity("a#b#c")

			Convey("Then it is rejected", func() {
				So(errors.Is(err, ErrInvalidInput), ShouldBeTrue)
			})
		})

		Convey("When comparing identities", func() {
			a, _ := NewIdentity("Jett", "0001")
			b, _ := ParseIdentity("Jett#0001")
			c, _ := ParseIdentity("jett#0001")

			Convey("Then equality is exact on the canonical form", func() {
				So(a.Equal(b), ShouldBeTrue)
				So(a.Equal(c), ShouldBeFalse)
				So(a.Matches("Jett", "0001"), ShouldBeTrue)
				So(a.Matches("Jett", "0002"), ShouldBeFalse)
			})
		})
	})
}

func TestTierLabel(t *testing.T) {
	Convey("Given tier codes", t, func() {
		Convey("Then each band maps to its label", func() {
			So(TierLabel(0), ShouldEqual, "ランクなし")
			So(TierLabel(2), ShouldEqual, "ランクなし")
			So(TierLabel(3), ShouldEqual, "アイアン")
			So(TierLabel(8), ShouldEqual, "ブロンズ")
			So(TierLabel(9), ShouldEqual, "シルバー")
			So(TierLabel(14), ShouldEqual, "ゴールド")
			So(TierLabel(17), ShouldEqual, "プラチナ")
			So(TierLabel(20), ShouldEqual, "ダイヤ")
			So(TierLabel(21), ShouldEqual, "アセンダント")
			So(TierLabel(26), ShouldEqual, "イモータル")
			So(TierLabel(27), ShouldEqual, "レディアント")
		})

		Convey("Then out of range codes are clamped", func() {
			So(TierLabel(-4), ShouldEqual, "ランクなし")
			So(TierLabel(99), ShouldEqual, "レディアント")
		})

		Convey("Then the mapping preserves order", func() {
			labels := TierLabels()
			index := func(l string) int {
				for i, x := range labels {
					if x == l {
						return i
					}
				}
				return -1
			}
			for code := MinTier; code < MaxTier; code++ {
				So(index(TierLabel(code)), ShouldBeLessThanOrEqualTo, index(TierLabel(code+1)))
			}
		})
	})
}

func TestTeamAndVisibility(t *testing.T) {
	Convey("Given team names from the provider", t, func() {
		So(ParseTeam("red"), ShouldEqual, TeamRed)
		So(ParseTeam("Blue"), ShouldEqual, TeamBlue)
		So(ParseTeam(""), ShouldEqual, TeamUnknown)
	})

	Convey("Given a review scheduled for later", t, func() {
		now := time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)
		later := now.Add(time.Hour)
		r := Review{Rating: 4, ScheduledPostTime: &later}

		So(r.VisibleAt(now), ShouldBeFalse)
		So(r.VisibleAt(later), ShouldBeTrue)
		So(Review{Rating: 2}.VisibleAt(now), ShouldBeTrue)
	})
}
