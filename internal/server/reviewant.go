package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"reviewant/internal/config"
	"reviewant/internal/domain"
	"reviewant/internal/middleware"
	"reviewant/internal/refresh"
	"reviewant/internal/service"
	"reviewant/internal/share"

	"connectrpc.com/connect"
	"github.com/rs/zerolog"
)

const ServicePath = "/reviewant.v1.ReviewantService/"

const (
	GetMatchesProcedure           = ServicePath + "GetMatches"
	GetMatchProcedure             = ServicePath + "GetMatch"
	SubmitReviewsProcedure        = ServicePath + "SubmitReviews"
	SubmitReviewProcedure         = ServicePath + "SubmitReview"
	GetPlayerReviewsProcedure     = ServicePath + "GetPlayerReviews"
	GetRecentReviewsProcedure     = ServicePath + "GetRecentReviews"
	SearchPlayersProcedure        = ServicePath + "SearchPlayers"
	RegisterUserProcedure         = ServicePath + "RegisterUser"
	ChangeIdentityProcedure       = ServicePath + "ChangeIdentity"
	GetRefreshStatusProcedure     = ServicePath + "GetRefreshStatus"
	WatchRefreshCooldownProcedure = ServicePath + "WatchRefreshCooldown"
)

type ReviewantServer struct {
	matchSvc  *service.MatchService
	reviewSvc *service.ReviewService
	userSvc   *service.UserService
	fetcher   service.MatchFetcher
	siteURL   string
	logger    zerolog.Logger
	now       func() time.Time
}

func NewReviewantServer(
	matchSvc *service.MatchService,
	reviewSvc *service.ReviewService,
	userSvc *service.UserService,
	fetcher service.MatchFetcher,
	cfg *config.Config,
	logger zerolog.Logger,
) *ReviewantServer {
	return &ReviewantServer{
		matchSvc:  matchSvc,
		reviewSvc: reviewSvc,
		userSvc:   userSvc,
		fetcher:   fetcher,
		siteURL:   cfg.SiteURL,
		logger:    logger,
		now:       time.Now,
	}
}

// Register mounts every procedure and the plain match route on mux.
func (s *ReviewantServer) Register(mux *http.ServeMux) {
	opts := connect.WithHandlerOptions(
		connect.WithCodec(jsonCodec{}),
		connect.WithCodec(jsonCodec{name: codecJSONCharset}),
	)

	mux.Handle(GetMatchesProcedure, connect.NewUnaryHandler(GetMatchesProcedure, s.GetMatches, opts))
	mux.Handle(GetMatchProcedure, connect.NewUnaryHandler(GetMatchProcedure, s.GetMatch, opts))
	mux.Handle(SubmitReviewsProcedure, connect.NewUnaryHandler(SubmitReviewsProcedure, s.SubmitReviews, opts))
	mux.Handle(SubmitReviewProcedure, connect.NewUnaryHandler(SubmitReviewProcedure, s.SubmitReview, opts))
	mux.Handle(GetPlayerReviewsProcedure, connect.NewUnaryHandler(GetPlayerReviewsProcedure, s.GetPlayerReviews, opts))
	mux.Handle(GetRecentReviewsProcedure, connect.NewUnaryHandler(GetRecentReviewsProcedure, s.GetRecentReviews, opts))
	mux.Handle(SearchPlayersProcedure, connect.NewUnaryHandler(SearchPlayersProcedure, s.SearchPlayers, opts))
	mux.Handle(RegisterUserProcedure, connect.NewUnaryHandler(RegisterUserProcedure, s.RegisterUser, opts))
	mux.Handle(ChangeIdentityProcedure, connect.NewUnaryHandler(ChangeIdentityProcedure, s.ChangeIdentity, opts))
	mux.Handle(GetRefreshStatusProcedure, connect.NewUnaryHandler(GetRefreshStatusProcedure, s.GetRefreshStatus, opts))
	mux.Handle(WatchRefreshCooldownProcedure, connect.NewServerStreamHandler(WatchRefreshCooldownProcedure, s.WatchRefreshCooldown, opts))

	mux.HandleFunc("GET /api/matches", s.handleEdgeMatches)
}

func (s *ReviewantServer) GetMatches(ctx context.Context, req *connect.Request[GetMatchesRequest]) (*connect.Response[GetMatchesResponse], error) {
	q := service.MatchQuery{
		Session: session(ctx, req.Header()),
		UserID:  req.Header().Get(middleware.UserIDHeader),
		Refresh: req.Msg.Refresh,
	}
	if req.Msg.Name != "" || req.Msg.Tag != "" {
		id, err := domain.NewIdentity(req.Msg.Name, req.Msg.Tag)
		if err != nil {
			return nil, toConnectError(err)
		}
		q.Identity = id
	}

	res, err := s.matchSvc.GetMatches(ctx, q)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&GetMatchesResponse{
		Name:             res.Identity.Name,
		Tag:              res.Identity.Tag,
		Matches:          res.Matches,
		Cached:           res.Cached,
		CanRefresh:       res.Cooldown.Allowed,
		RemainingSeconds: res.Cooldown.RemainingSeconds,
	}), nil
}

func (s *ReviewantServer) GetMatch(ctx context.Context, req *connect.Request[GetMatchRequest]) (*connect.Response[GetMatchResponse], error) {
	m, err := s.matchSvc.GetMatch(ctx, session(ctx, req.Header()), req.Msg.MatchID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&GetMatchResponse{Match: *m}), nil
}

func (s *ReviewantServer) SubmitReviews(ctx context.Context, req *connect.Request[SubmitReviewsRequest]) (*connect.Response[SubmitReviewsResponse], error) {
	drafts := make([]domain.ReviewDraft, len(req.Msg.Reviews))
	for i, d := range req.Msg.Reviews {
		// identity is validated per draft by the service
		drafts[i] = domain.ReviewDraft{
			Player:     domain.Identity{Name: d.Name, Tag: d.Tag},
			Rank:       d.Rank,
			Rating:     d.Rating,
			Comment:    d.Comment,
			DelayHours: d.DelayHours,
		}
	}

	report, err := s.reviewSvc.SubmitBatch(ctx, drafts, req.Msg.Anonymous, req.Header().Get(middleware.UserIDHeader))
	if err != nil {
		return nil, toConnectError(err)
	}

	resp := &SubmitReviewsResponse{
		Submitted: report.Submitted,
		Failed:    report.Failed,
		Results:   make([]DraftResult, len(report.Outcomes)),
		ShareText: report.ShareText,
	}
	for i, o := range report.Outcomes {
		resp.Results[i] = DraftResult{Player: o.Player, OK: o.OK(), ReviewID: o.ReviewID}
		if o.Err != nil {
			resp.Results[i].Error = o.Err.Error()
		}
	}
	if report.ShareText != "" {
		resp.ShareURL = share.IntentURL(report.ShareText, s.siteURL)
	}
	return connect.NewResponse(resp), nil
}

func (s *ReviewantServer) SubmitReview(ctx context.Context, req *connect.Request[SubmitReviewRequest]) (*connect.Response[SubmitReviewResponse], error) {
	id, err := domain.NewIdentity(req.Msg.Name, req.Msg.Tag)
	if err != nil {
		return nil, toConnectError(err)
	}

	out, err := s.reviewSvc.Submit(ctx, service.SingleReview{
		Player:     id,
		RankLabel:  req.Msg.Rank,
		Rating:     req.Msg.Rating,
		Comment:    req.Msg.Comment,
		DelayHours: req.Msg.DelayHours,
	}, req.Msg.Anonymous, req.Header().Get(middleware.UserIDHeader))
	if err != nil {
		return nil, toConnectError(err)
	}

	text := share.ComposeText([]share.Entry{{PlayerName: out.Player, Rating: req.Msg.Rating, Comment: req.Msg.Comment}})
	return connect.NewResponse(&SubmitReviewResponse{
		PlayerID: out.PlayerID,
		ReviewID: out.ReviewID,
		ShareURL: share.IntentURL(text, s.siteURL),
	}), nil
}

func (s *ReviewantServer) GetPlayerReviews(ctx context.Context, req *connect.Request[GetPlayerReviewsRequest]) (*connect.Response[GetPlayerReviewsResponse], error) {
	id, err := domain.ParseIdentity(req.Msg.Player)
	if err != nil {
		return nil, toConnectError(err)
	}

	res, err := s.reviewSvc.PlayerReviews(ctx, id, s.now())
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&GetPlayerReviewsResponse{
		Player:  id.String(),
		Found:   res.Player != nil,
		Average: res.Summary.Average,
		Hidden:  res.Summary.Hidden,
		Reviews: toReviews(res.Summary.Visible),
	}), nil
}

func (s *ReviewantServer) GetRecentReviews(ctx context.Context, req *connect.Request[GetRecentReviewsRequest]) (*connect.Response[GetRecentReviewsResponse], error) {
	feeds, err := s.reviewSvc.RecentReviews(ctx, s.now(), req.Msg.Limit)
	if err != nil {
		return nil, toConnectError(err)
	}

	resp := &GetRecentReviewsResponse{Players: make([]PlayerFeed, len(feeds))}
	for i, f := range feeds {
		resp.Players[i] = PlayerFeed{Player: f.PlayerName, Average: f.Average, Reviews: toReviews(f.Reviews)}
	}
	return connect.NewResponse(resp), nil
}

func (s *ReviewantServer) SearchPlayers(ctx context.Context, req *connect.Request[SearchPlayersRequest]) (*connect.Response[SearchPlayersResponse], error) {
	players, err := s.reviewSvc.SearchPlayers(ctx, req.Msg.Query)
	if err != nil {
		return nil, toConnectError(err)
	}

	names := make([]string, len(players))
	for i, p := range players {
		names[i] = p.Name
	}
	return connect.NewResponse(&SearchPlayersResponse{Players: names}), nil
}

func (s *ReviewantServer) RegisterUser(ctx context.Context, req *connect.Request[RegisterUserRequest]) (*connect.Response[RegisterUserResponse], error) {
	id, err := domain.NewIdentity(req.Msg.Name, req.Msg.Tag)
	if err != nil {
		return nil, toConnectError(err)
	}

	user, err := s.userSvc.Register(ctx, id, req.Msg.Email)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&RegisterUserResponse{UserID: user.ID, Username: user.Username}), nil
}

func (s *ReviewantServer) ChangeIdentity(ctx context.Context, req *connect.Request[ChangeIdentityRequest]) (*connect.Response[ChangeIdentityResponse], error) {
	userID := req.Header().Get(middleware.UserIDHeader)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, errors.New("missing "+middleware.UserIDHeader))
	}
	id, err := domain.NewIdentity(req.Msg.Name, req.Msg.Tag)
	if err != nil {
		return nil, toConnectError(err)
	}

	if err := s.userSvc.ChangeIdentity(ctx, userID, id); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ChangeIdentityResponse{Username: id.String()}), nil
}

func (s *ReviewantServer) GetRefreshStatus(ctx context.Context, req *connect.Request[RefreshStatusRequest]) (*connect.Response[RefreshStatus], error) {
	d, err := s.matchSvc.Gate(session(ctx, req.Header())).ShouldRefresh(ctx, s.now())
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(toRefreshStatus(d)), nil
}

// WatchRefreshCooldown streams the countdown once per second until the
// session may refresh again.
func (s *ReviewantServer) WatchRefreshCooldown(ctx context.Context, req *connect.Request[RefreshStatusRequest], stream *connect.ServerStream[RefreshStatus]) error {
	gate := s.matchSvc.Gate(session(ctx, req.Header()))
	err := gate.Countdown(ctx, s.now(), func(d refresh.Decision) error {
		return stream.Send(toRefreshStatus(d))
	})
	if err != nil && ctx.Err() == nil {
		return toConnectError(err)
	}
	return nil
}

func (s *ReviewantServer) handleEdgeMatches(w http.ResponseWriter, r *http.Request) {
	id, err := domain.NewIdentity(r.URL.Query().Get("name"), r.URL.Query().Get("tag"))
	if err != nil {
		http.Error(w, "name and tag are required", http.StatusBadRequest)
		return
	}

	matches, err := s.fetcher.FetchMatches(r.Context(), id)
	if err != nil {
		s.logger.Warn().Err(err).Str("identity", id.String()).Msg("match provider failed, returning no matches")
		matches = nil
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(toEdgeMatches(matches)); err != nil {
		s.logger.Warn().Err(err).Msg("failed to write matches")
	}
}

func toRefreshStatus(d refresh.Decision) *RefreshStatus {
	return &RefreshStatus{Allowed: d.Allowed, RemainingSeconds: d.RemainingSeconds}
}

func session(ctx context.Context, h http.Header) string {
	if id := middleware.GetSessionID(ctx); id != "" {
		return id
	}
	return h.Get(middleware.SessionIDHeader)
}

func toConnectError(err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, domain.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, domain.ErrUpstream):
		return connect.NewError(connect.CodeUnavailable, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
