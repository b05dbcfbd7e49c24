package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"reviewant/internal/constants"
	"reviewant/internal/domain"
	"reviewant/internal/metrics"
	"reviewant/internal/review"
	"reviewant/internal/share"
	"reviewant/internal/telemetry"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type ReviewService struct {
	players   PlayerStore
	reviews   ReviewStore
	announcer share.Announcer
	metrics   *metrics.Recorder
	reporter  *telemetry.Reporter
	logger    zerolog.Logger

	now func() time.Time
}

func NewReviewService(players PlayerStore, reviews ReviewStore, announcer share.Announcer, rec *metrics.Recorder, reporter *telemetry.Reporter, logger zerolog.Logger) *ReviewService {
	return &ReviewService{
		players:   players,
		reviews:   reviews,
		announcer: announcer,
		metrics:   rec,
		reporter:  reporter,
		logger:    logger,
		now:       time.Now,
	}
}

type SubmitReport struct {
	domain.BatchResult
	ShareText string // empty when nothing was submitted
}

// SubmitBatch stores one review per draft. Drafts run concurrently and in
// isolation: a failing draft never undoes or cancels its siblings. Outcomes
// are reported in draft order.
func (s *ReviewService) SubmitBatch(ctx context.Context, drafts []domain.ReviewDraft, anonymous bool, actingUserID string) (*SubmitReport, error) {
	userID := author(anonymous, actingUserID)
	now := s.now()
	outcomes := make([]domain.DraftOutcome, len(drafts))

	g := new(errgroup.Group)
	g.SetLimit(constants.SubmitConcurrency)
	for i, d := range drafts {
		g.Go(func() error {
			outcomes[i] = s.submitOne(ctx, d, domain.TierLabel(d.Rank), userID, now)
			return nil
		})
	}
	_ = g.Wait()

	report := &SubmitReport{BatchResult: domain.BatchResult{Outcomes: outcomes}}
	entries := make([]share.Entry, 0, len(drafts))
	for i, o := range outcomes {
		if !o.OK() {
			report.Failed++
			continue
		}
		report.Submitted++
		entries = append(entries, share.Entry{PlayerName: o.Player, Rating: drafts[i].Rating, Comment: drafts[i].Comment})
	}

	s.logger.Info().
		Int("submitted", report.Submitted).
		Int("failed", report.Failed).
		Bool("anonymous", anonymous).
		Msg("review batch processed")

	if len(entries) > 0 {
		report.ShareText = share.ComposeText(entries)
		s.announce(ctx, report.ShareText)
	}
	return report, nil
}

type SingleReview struct {
	Player     domain.Identity
	RankLabel  string // one of domain.TierLabels()
	Rating     int
	Comment    string
	DelayHours int
}

// Submit stores a single review whose rank was picked from the label list.
func (s *ReviewService) Submit(ctx context.Context, in SingleReview, anonymous bool, actingUserID string) (domain.DraftOutcome, error) {
	userID := author(anonymous, actingUserID)
	if !domain.IsTierLabel(in.RankLabel) {
		return domain.DraftOutcome{}, fmt.Errorf("unknown rank label %q: %w", in.RankLabel, domain.ErrInvalidInput)
	}

	draft := domain.ReviewDraft{Player: in.Player, Rating: in.Rating, Comment: in.Comment, DelayHours: in.DelayHours}
	out := s.submitOne(ctx, draft, in.RankLabel, userID, s.now())
	if !out.OK() {
		return out, out.Err
	}
	s.announce(ctx, share.ComposeText([]share.Entry{{PlayerName: out.Player, Rating: in.Rating, Comment: in.Comment}}))
	return out, nil
}

func (s *ReviewService) submitOne(ctx context.Context, d domain.ReviewDraft, rank string, userID *string, now time.Time) domain.DraftOutcome {
	out := domain.DraftOutcome{Player: d.Player.String()}
	defer func() { s.metrics.DraftProcessed(out.OK()) }()

	id, err := validateDraft(d)
	if err != nil {
		out.Err = err
		return out
	}
	d.Player, out.Player = id, id.String()

	player, created, err := s.players.CreateIfAbsent(ctx, d.Player, now)
	if err != nil {
		out.Err = s.persistenceFailure("create player", err, out.Player)
		return out
	}
	if created {
		s.metrics.PlayerCreated()
	}
	out.PlayerID = player.ID

	r := &domain.Review{
		PlayerID:          player.ID,
		UserID:            userID,
		Rank:              rank,
		Rating:            d.Rating,
		Comment:           d.Comment,
		CreatedAt:         now,
		ScheduledPostTime: scheduleAt(now, d.DelayHours),
	}
	if err := s.reviews.Insert(ctx, r); err != nil {
		out.Err = s.persistenceFailure("insert review", err, out.Player)
		return out
	}
	out.ReviewID = r.ID
	return out
}

func (s *ReviewService) persistenceFailure(op string, err error, player string) error {
	s.logger.Error().Err(err).Str("player", player).Str("op", op).Msg("review draft failed")
	if errors.Is(err, domain.ErrPersistence) {
		s.reporter.CaptureError(op, err, map[string]any{"player": player})
	}
	return err
}

func (s *ReviewService) announce(ctx context.Context, text string) {
	if s.announcer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()
	if err := s.announcer.Announce(ctx, text); err != nil {
		s.logger.Warn().Err(err).Msg("share announcement failed")
	}
}

type PlayerReviews struct {
	Identity domain.Identity
	Player   *domain.Player // nil when nobody reviewed this identity yet
	Summary  review.Summary
}

// PlayerReviews returns the reviews of id that are visible at now.
func (s *ReviewService) PlayerReviews(ctx context.Context, id domain.Identity, now time.Time) (*PlayerReviews, error) {
	result := &PlayerReviews{Identity: id, Summary: review.Summarize(nil, now)}

	player, err := s.players.GetByName(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return result, nil
	}
	if err != nil {
		return nil, err
	}
	result.Player = player

	all, err := s.reviews.ListByPlayer(ctx, player.ID)
	if err != nil {
		return nil, err
	}
	result.Summary = review.Summarize(all, now)
	return result, nil
}

type PlayerFeed struct {
	PlayerName string
	Reviews    []domain.Review
	Average    review.Average
}

// RecentReviews groups the newest visible reviews by player, players ordered
// by their most recent review.
func (s *ReviewService) RecentReviews(ctx context.Context, now time.Time, limit int) ([]PlayerFeed, error) {
	if limit <= 0 || limit > constants.RecentReviewsLimit {
		limit = constants.RecentReviewsLimit
	}
	recent, err := s.reviews.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int)
	feeds := []PlayerFeed{}
	for _, rr := range recent {
		if !rr.Review.VisibleAt(now) {
			continue
		}
		i, ok := index[rr.PlayerName]
		if !ok {
			i = len(feeds)
			index[rr.PlayerName] = i
			feeds = append(feeds, PlayerFeed{PlayerName: rr.PlayerName})
		}
		feeds[i].Reviews = append(feeds[i].Reviews, rr.Review)
	}
	for i := range feeds {
		feeds[i].Reviews = review.Visible(feeds[i].Reviews, now)
		feeds[i].Average = review.AverageOf(feeds[i].Reviews)
	}
	return feeds, nil
}

// SearchPlayers suggests reviewed players whose name contains query.
func (s *ReviewService) SearchPlayers(ctx context.Context, query string) ([]domain.Player, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.Player{}, nil
	}
	return s.players.Search(ctx, query, constants.SearchSuggestionLimit)
}

// author is the reviewer stored with a review. A signed review without an
// acting user is stored without one and shows as anonymous.
func author(anonymous bool, actingUserID string) *string {
	if anonymous || actingUserID == "" {
		return nil
	}
	return &actingUserID
}

// validateDraft returns the draft's canonical identity.
func validateDraft(d domain.ReviewDraft) (domain.Identity, error) {
	id, err := domain.NewIdentity(d.Player.Name, d.Player.Tag)
	if err != nil {
		return domain.Identity{}, err
	}
	if d.Rating < 1 || d.Rating > 5 {
		return domain.Identity{}, fmt.Errorf("rating %d outside 1..5: %w", d.Rating, domain.ErrInvalidInput)
	}
	if d.DelayHours < 0 || d.DelayHours > constants.MaxScheduleDelayHrs {
		return domain.Identity{}, fmt.Errorf("schedule delay %dh outside 0..%d: %w", d.DelayHours, constants.MaxScheduleDelayHrs, domain.ErrInvalidInput)
	}
	return id, nil
}

func scheduleAt(now time.Time, delayHours int) *time.Time {
	if delayHours == 0 {
		return nil
	}
	at := now.Add(time.Duration(delayHours) * time.Hour)
	return &at
}
