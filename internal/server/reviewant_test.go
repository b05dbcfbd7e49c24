package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"reviewant/internal/config"
	"reviewant/internal/database"
	"reviewant/internal/db"
	"reviewant/internal/domain"
	"reviewant/internal/middleware"
	"reviewant/internal/repository"
	"reviewant/internal/service"
	"reviewant/internal/share"
	"reviewant/internal/state"

	"connectrpc.com/connect"
	"github.com/rs/zerolog"
	. "github.com/smartystreets/goconvey/convey"
)

type fetcherFunc func(ctx context.Context, id domain.Identity) ([]domain.NormalizedMatch, error)

func (f fetcherFunc) FetchMatches(ctx context.Context, id domain.Identity) ([]domain.NormalizedMatch, error) {
	return f(ctx, id)
}

type harness struct {
	srv     *httptest.Server
	server  *ReviewantServer
	matches *service.MatchService
	users   *repository.UserRepository
}

func newHarness(t *testing.T, fetcher service.MatchFetcher) *harness {
	t.Helper()
	cfg := config.Defaults()
	cfg.DBDSN = filepath.Join(t.TempDir(), "server.db")
	sqlDB, err := database.New(&cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	q := db.New(sqlDB)

	users := repository.NewUserRepository(q, zerolog.Nop())
	players := repository.NewPlayerRepository(q, zerolog.Nop())
	reviews := repository.NewReviewRepository(q, zerolog.Nop())

	matchSvc := service.NewMatchService(fetcher, state.NewMemory(), users, nil, nil, zerolog.Nop())
	reviewSvc := service.NewReviewService(players, reviews, share.NopAnnouncer{}, nil, nil, zerolog.Nop())
	userSvc := service.NewUserService(users, zerolog.Nop())
	s := NewReviewantServer(matchSvc, reviewSvc, userSvc, fetcher, &cfg, zerolog.Nop())

	mux := http.NewServeMux()
	s.Register(mux)
	srv := httptest.NewServer(middleware.Session(zerolog.Nop())(mux))
	t.Cleanup(func() {
		srv.Close()
		sqlDB.Close()
	})
	return &harness{srv: srv, server: s, matches: matchSvc, users: users}
}

func unary[Req, Res any](h *harness, procedure string, msg *Req, headers map[string]string) (*connect.Response[Res], error) {
	client := connect.NewClient[Req, Res](h.srv.Client(), h.srv.URL+procedure, connect.WithCodec(jsonCodec{}))
	req := connect.NewRequest(msg)
	for k, v := range headers {
		req.Header().Set(k, v)
	}
	return client.CallUnary(context.Background(), req)
}

func sampleMatches(id domain.Identity) []domain.NormalizedMatch {
	return []domain.NormalizedMatch{{
		MatchID: "m-1", Map: "Ascent", MyAgent: "Sova", MyTeam: domain.TeamRed, MyTeamRound: 13, EnemyTeamRound: 8,
		Players: []domain.PlayerMatchEntry{
			{Name: id.Name, Tag: id.Tag, PlayerName: id.String(), Team: domain.TeamRed, Rank: 12},
			{Name: "Foe", Tag: "0001", PlayerName: "Foe#0001", Team: domain.TeamBlue, Rank: 21},
		},
	}}
}

func codeOf(err error) connect.Code {
	var ce *connect.Error
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return connect.CodeUnknown
}

func TestMatchProcedures(t *testing.T) {
	Convey("Given a running server", t, func() {
		calls := 0
		h := newHarness(t, fetcherFunc(func(_ context.Context, id domain.Identity) ([]domain.NormalizedMatch, error) {
			calls++
			return sampleMatches(id), nil
		}))
		session := map[string]string{middleware.SessionIDHeader: "sess-1"}

		Convey("When a client without a session asks for matches", func() {
			resp, err := unary[GetMatchesRequest, GetMatchesResponse](h, GetMatchesProcedure, &GetMatchesRequest{Name: "Me", Tag: "JP1"}, nil)

			Convey("Then a session id is issued alongside the matches", func() {
				So(err, ShouldBeNil)
				So(resp.Header().Get(middleware.SessionIDHeader), ShouldNotBeEmpty)
				So(resp.Msg.Matches, ShouldHaveLength, 1)
				So(resp.Msg.CanRefresh, ShouldBeTrue)
			})
		})

		Convey("When a session refreshes twice", func() {
			_, err := unary[GetMatchesRequest, GetMatchesResponse](h, GetMatchesProcedure, &GetMatchesRequest{Name: "Me", Tag: "JP1", Refresh: true}, session)
			So(err, ShouldBeNil)
			resp, err := unary[GetMatchesRequest, GetMatchesResponse](h, GetMatchesProcedure, &GetMatchesRequest{Refresh: true}, session)

			Convey("Then the second is served from cache with a countdown", func() {
				So(err, ShouldBeNil)
				So(calls, ShouldEqual, 1)
				So(resp.Msg.Cached, ShouldBeTrue)
				So(resp.Msg.Name, ShouldEqual, "Me")
				So(resp.Msg.CanRefresh, ShouldBeFalse)
				So(resp.Msg.RemainingSeconds, ShouldBeBetweenOrEqual, 299, 300)
			})

			Convey("Then the refresh status reports the cooldown", func() {
				st, err := unary[RefreshStatusRequest, RefreshStatus](h, GetRefreshStatusProcedure, &RefreshStatusRequest{}, session)
				So(err, ShouldBeNil)
				So(st.Msg.Allowed, ShouldBeFalse)
			})

			Convey("Then a cached match can be opened with its roster grouped by team", func() {
				m, err := unary[GetMatchRequest, GetMatchResponse](h, GetMatchProcedure, &GetMatchRequest{MatchID: "m-1"}, session)
				So(err, ShouldBeNil)
				So(m.Msg.Match.Players[0].Team, ShouldEqual, domain.TeamBlue)
			})
		})

		Convey("When an unknown match is opened", func() {
			_, err := unary[GetMatchRequest, GetMatchResponse](h, GetMatchProcedure, &GetMatchRequest{MatchID: "nope"}, session)

			Convey("Then it is not found", func() {
				So(codeOf(err), ShouldEqual, connect.CodeNotFound)
			})
		})

		Convey("When the identity is incomplete", func() {
			_, err := unary[GetMatchesRequest, GetMatchesResponse](h, GetMatchesProcedure, &GetMatchesRequest{Name: "Me"}, session)

			Convey("Then the argument is invalid", func() {
				So(codeOf(err), ShouldEqual, connect.CodeInvalidArgument)
			})
		})
	})
}

func TestReviewProcedures(t *testing.T) {
	Convey("Given a running server with a registered user", t, func() {
		h := newHarness(t, fetcherFunc(func(context.Context, domain.Identity) ([]domain.NormalizedMatch, error) {
			return nil, nil
		}))
		reg, err := unary[RegisterUserRequest, RegisterUserResponse](h, RegisterUserProcedure, &RegisterUserRequest{Name: "Me", Tag: "JP1", Email: "me@example.com"}, nil)
		So(err, ShouldBeNil)
		user := map[string]string{middleware.UserIDHeader: reg.Msg.UserID}

		Convey("When a batch with one bad draft is submitted", func() {
			resp, err := unary[SubmitReviewsRequest, SubmitReviewsResponse](h, SubmitReviewsProcedure, &SubmitReviewsRequest{
				Reviews: []ReviewDraft{
					{Name: "Foe", Tag: "0001", Rank: 21, Rating: 4, Comment: "solid"},
					{Name: "Foe", Tag: "", Rank: 21, Rating: 4},
				},
			}, user)

			Convey("Then the response counts each side", func() {
				So(err, ShouldBeNil)
				So(resp.Msg.Submitted, ShouldEqual, 1)
				So(resp.Msg.Failed, ShouldEqual, 1)
				So(resp.Msg.Results[0].OK, ShouldBeTrue)
				So(resp.Msg.Results[1].Error, ShouldNotBeEmpty)
				So(resp.Msg.ShareURL, ShouldStartWith, "https://twitter.com/share?")
			})

			Convey("Then the player page shows the signed review", func() {
				pr, err := unary[GetPlayerReviewsRequest, GetPlayerReviewsResponse](h, GetPlayerReviewsProcedure, &GetPlayerReviewsRequest{Player: "Foe#0001"}, nil)
				So(err, ShouldBeNil)
				So(pr.Msg.Found, ShouldBeTrue)
				So(pr.Msg.Average.String(), ShouldEqual, "4.0")
				So(pr.Msg.Reviews, ShouldHaveLength, 1)
				So(pr.Msg.Reviews[0].Reviewer, ShouldEqual, "Me#JP1")
				So(pr.Msg.Reviews[0].Rank, ShouldEqual, "アセンダント")
			})

			Convey("Then the player is searchable and on the feed", func() {
				sr, err := unary[SearchPlayersRequest, SearchPlayersResponse](h, SearchPlayersProcedure, &SearchPlayersRequest{Query: "foe"}, nil)
				So(err, ShouldBeNil)
				So(sr.Msg.Players, ShouldResemble, []string{"Foe#0001"})

				feed, err := unary[GetRecentReviewsRequest, GetRecentReviewsResponse](h, GetRecentReviewsProcedure, &GetRecentReviewsRequest{}, nil)
				So(err, ShouldBeNil)
				So(feed.Msg.Players, ShouldHaveLength, 1)
			})
		})

		Convey("When an anonymous scheduled review is submitted", func() {
			_, err := unary[SubmitReviewRequest, SubmitReviewResponse](h, SubmitReviewProcedure, &SubmitReviewRequest{
				Name: "Later", Tag: "0003", Rank: "ゴールド", Rating: 2, DelayHours: 5, Anonymous: true,
			}, nil)
			So(err, ShouldBeNil)

			Convey("Then it is hidden and the average is N/A", func() {
				pr, err := unary[GetPlayerReviewsRequest, GetPlayerReviewsResponse](h, GetPlayerReviewsProcedure, &GetPlayerReviewsRequest{Player: "Later#0003"}, nil)
				So(err, ShouldBeNil)
				So(pr.Msg.Reviews, ShouldBeEmpty)
				So(pr.Msg.Hidden, ShouldEqual, 1)
				So(pr.Msg.Average.String(), ShouldEqual, "N/A")
			})
		})

		Convey("When a signed review is submitted without a user", func() {
			_, err := unary[SubmitReviewRequest, SubmitReviewResponse](h, SubmitReviewProcedure, &SubmitReviewRequest{Name: "A", Tag: "1", Rank: "ゴールド", Rating: 2}, nil)
			So(err, ShouldBeNil)

			Convey("Then it shows as anonymous", func() {
				pr, err := unary[GetPlayerReviewsRequest, GetPlayerReviewsResponse](h, GetPlayerReviewsProcedure, &GetPlayerReviewsRequest{Player: "A#1"}, nil)
				So(err, ShouldBeNil)
				So(pr.Msg.Reviews, ShouldHaveLength, 1)
				So(pr.Msg.Reviews[0].Reviewer, ShouldEqual, "匿名")
			})
		})

		Convey("When the user changes identity", func() {
			resp, err := unary[ChangeIdentityRequest, ChangeIdentityResponse](h, ChangeIdentityProcedure, &ChangeIdentityRequest{Name: "New", Tag: "0002"}, user)

			Convey("Then the new username is stored", func() {
				So(err, ShouldBeNil)
				So(resp.Msg.Username, ShouldEqual, "New#0002")
				u, err := h.users.Get(context.Background(), reg.Msg.UserID)
				So(err, ShouldBeNil)
				So(u.Username, ShouldEqual, "New#0002")
			})

			Convey("Then anonymous callers are refused", func() {
				_, err := unary[ChangeIdentityRequest, ChangeIdentityResponse](h, ChangeIdentityProcedure, &ChangeIdentityRequest{Name: "X", Tag: "1"}, nil)
				So(codeOf(err), ShouldEqual, connect.CodeUnauthenticated)
			})
		})
	})
}

func TestWatchRefreshCooldown(t *testing.T) {
	Convey("Given a session one second away from the end of its cooldown", t, func() {
		h := newHarness(t, fetcherFunc(func(context.Context, domain.Identity) ([]domain.NormalizedMatch, error) { return nil, nil }))
		gate := h.matches.Gate("sess-9")
		So(gate.RecordRefresh(context.Background(), time.Now().Add(-299*time.Second)), ShouldBeNil)

		Convey("When watching the countdown", func() {
			client := connect.NewClient[RefreshStatusRequest, RefreshStatus](h.srv.Client(), h.srv.URL+WatchRefreshCooldownProcedure, connect.WithCodec(jsonCodec{}))
			req := connect.NewRequest(&RefreshStatusRequest{})
			req.Header().Set(middleware.SessionIDHeader, "sess-9")

			stream, err := client.CallServerStream(context.Background(), req)
			So(err, ShouldBeNil)
			var got []RefreshStatus
			for stream.Receive() {
				got = append(got, *stream.Msg())
			}

			Convey("Then it ticks down and ends allowed", func() {
				So(stream.Err(), ShouldBeNil)
				So(len(got), ShouldBeGreaterThanOrEqualTo, 1)
				So(got[len(got)-1], ShouldResemble, RefreshStatus{Allowed: true})
				if len(got) > 1 {
					So(got[0].RemainingSeconds, ShouldEqual, 1)
				}
			})
		})
	})
}

func TestEdgeMatchesRoute(t *testing.T) {
	Convey("Given the plain match route", t, func() {
		h := newHarness(t, fetcherFunc(func(_ context.Context, id domain.Identity) ([]domain.NormalizedMatch, error) {
			if id.Name == "down" {
				return nil, domain.ErrUpstream
			}
			return sampleMatches(id), nil
		}))

		Convey("When querying a known identity", func() {
			resp, err := http.Get(h.srv.URL + "/api/matches?name=Me&tag=JP1")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			var body []map[string]json.RawMessage
			So(json.NewDecoder(resp.Body).Decode(&body), ShouldBeNil)

			Convey("Then matches are served as metadata plus players", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body, ShouldHaveLength, 1)
				So(string(body[0]["metadata"]), ShouldContainSubstring, `"match_id":"m-1"`)
				So(string(body[0]["players"]), ShouldContainSubstring, `"playerName":"Foe#0001"`)
			})
		})

		Convey("When the upstream is down", func() {
			resp, err := http.Get(h.srv.URL + "/api/matches?name=down&tag=1")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			var body []json.RawMessage
			So(json.NewDecoder(resp.Body).Decode(&body), ShouldBeNil)

			Convey("Then an empty list is returned", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body, ShouldBeEmpty)
			})
		})

		Convey("When the tag is missing", func() {
			resp, err := http.Get(h.srv.URL + "/api/matches?name=Me")
			So(err, ShouldBeNil)
			resp.Body.Close()

			Convey("Then it is a bad request", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestPlainJSONPost(t *testing.T) {
	Convey("Given a browser style JSON post", t, func() {
		h := newHarness(t, fetcherFunc(func(context.Context, domain.Identity) ([]domain.NormalizedMatch, error) { return nil, nil }))

		for _, contentType := range []string{"application/json", "application/json; charset=utf-8"} {
			Convey("When posted as "+contentType, func() {
				resp, err := http.Post(h.srv.URL+SearchPlayersProcedure, contentType, strings.NewReader(`{"query":"x"}`))
				So(err, ShouldBeNil)
				defer resp.Body.Close()

				Convey("Then the connect handler answers in JSON", func() {
					So(resp.StatusCode, ShouldEqual, http.StatusOK)
					var body SearchPlayersResponse
					So(json.NewDecoder(resp.Body).Decode(&body), ShouldBeNil)
					So(body.Players, ShouldBeEmpty)
				})
			})
		}
	})
}
