package service

import (
	"alcyxob/coach-tracker/internal/cache"
	"alcyxob/coach-tracker/internal/compliance"
	"alcyxob/coach-tracker/internal/metrics"
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultHistoryWeeks = 4
	MaxHistoryWeeks     = 26

	// clientFanOut bounds how many clients are fetched at once.
	clientFanOut = 8
)

// ClientCompliance is one roster row of the coach overview.
type ClientCompliance struct {
	ClientID primitive.ObjectID       `json:"clientId"`
	Name     string                   `json:"name"`
	Email    string                   `json:"email"`
	Metrics  compliance.ClientMetrics `json:"metrics"`
}

// CoachOverview is the compliance of every active client of a coach.
type CoachOverview struct {
	WindowStart time.Time            `json:"windowStart"`
	WindowEnd   time.Time            `json:"windowEnd"`
	Overall     int                  `json:"overall"`
	Clients     []ClientCompliance   `json:"clients"`
	Excluded    []primitive.ObjectID `json:"excluded"`
}

// ClientReport is the detailed view of a single client.
type ClientReport struct {
	ClientID    primitive.ObjectID       `json:"clientId"`
	WindowStart time.Time                `json:"windowStart"`
	WindowEnd   time.Time                `json:"windowEnd"`
	Metrics     compliance.ClientMetrics `json:"metrics"`
	Weekly      []compliance.WeekMetrics `json:"weekly,omitempty"`
	Daily       []compliance.DayMetrics  `json:"daily,omitempty"`
}

type ComplianceService interface {
	CoachOverview(ctx context.Context, coachID primitive.ObjectID) (*CoachOverview, error)
	ClientReport(ctx context.Context, coachID, clientID primitive.ObjectID, weeks int) (*ClientReport, error)
	OwnReport(ctx context.Context, clientID primitive.ObjectID) (*ClientReport, error)
}

type complianceService struct {
	fetcher    *fetcher
	cache      *cache.ReadThrough
	windowDays int
	loc        *time.Location
	now        func() time.Time
	log        logrus.FieldLogger
}

// NewComplianceService wires the aggregator to the repositories.
func NewComplianceService(repos Repositories, rt *cache.ReadThrough, windowDays int, loc *time.Location, log logrus.FieldLogger) ComplianceService {
	if windowDays <= 0 {
		windowDays = compliance.DefaultWindowDays
	}
	if loc == nil {
		loc = time.UTC
	}
	log = log.WithField("component", "compliance")
	return &complianceService{
		fetcher:    &fetcher{repos: repos, log: log},
		cache:      rt,
		windowDays: windowDays,
		loc:        loc,
		now:        time.Now,
		log:        log,
	}
}

// CoachComplianceKey is where a coach overview is cached.
func CoachComplianceKey(coachID primitive.ObjectID) string {
	return "compliance:coach:" + coachID.Hex()
}

func (s *complianceService) window() compliance.Window {
	return compliance.TrailingDays(s.now(), s.windowDays, s.loc)
}

func (s *complianceService) CoachOverview(ctx context.Context, coachID primitive.ObjectID) (*CoachOverview, error) {
	ov, err := cache.Fetch(ctx, s.cache, CoachComplianceKey(coachID), func(ctx context.Context) (CoachOverview, error) {
		return s.computeOverview(ctx, coachID)
	})
	if err != nil {
		return nil, err
	}
	return &ov, nil
}

func (s *complianceService) computeOverview(ctx context.Context, coachID primitive.ObjectID) (CoachOverview, error) {
	start := time.Now()
	w := s.window()

	roster, err := s.fetcher.repos.Users.GetClientsByCoachID(ctx, coachID)
	if err != nil {
		return CoachOverview{}, err
	}
	clients := activeClients(roster)

	inputs := make([]compliance.ClientInput, len(clients))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(clientFanOut)
	for i, c := range clients {
		i, c := i, c
		g.Go(func() error {
			inputs[i] = s.fetcher.load(gctx, c.ID, w)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return CoachOverview{}, err
	}

	res := compliance.Compute(inputs, w)
	ov := CoachOverview{
		WindowStart: w.Start,
		WindowEnd:   w.End,
		Overall:     res.Overall,
		Clients:     make([]ClientCompliance, 0, len(clients)),
		Excluded:    res.Excluded,
	}
	if ov.Excluded == nil {
		ov.Excluded = []primitive.ObjectID{}
	}
	for _, c := range clients {
		ov.Clients = append(ov.Clients, ClientCompliance{
			ClientID: c.ID,
			Name:     c.Name,
			Email:    c.Email,
			Metrics:  res.Clients[c.ID],
		})
	}

	metrics.RecordCompliance("coach", time.Since(start))
	s.log.WithFields(logrus.Fields{
		"coachId":  coachID.Hex(),
		"clients":  len(clients),
		"excluded": len(res.Excluded),
		"overall":  res.Overall,
	}).Debug("computed coach compliance")
	return ov, nil
}

func (s *complianceService) ClientReport(ctx context.Context, coachID, clientID primitive.ObjectID, weeks int) (*ClientReport, error) {
	if _, err := managedClient(ctx, s.fetcher.repos.Users, coachID, clientID); err != nil {
		return nil, err
	}
	if weeks <= 0 {
		weeks = DefaultHistoryWeeks
	}
	if weeks > MaxHistoryWeeks {
		weeks = MaxHistoryWeeks
	}

	start := time.Now()
	now := s.now()
	w := s.window()
	history := compliance.TrailingDays(now, weeks*compliance.DefaultWindowDays, s.loc)
	from := history.Start
	if w.Start.Before(from) {
		from = w.Start
	}

	in := s.fetcher.load(ctx, clientID, compliance.Window{Start: from, End: w.End, Location: s.loc})
	report := &ClientReport{
		ClientID:    clientID,
		WindowStart: w.Start,
		WindowEnd:   w.End,
		Metrics:     compliance.ComputeClient(in, w),
		Weekly:      compliance.Weekly(in, now, weeks, s.loc),
	}
	metrics.RecordCompliance("client", time.Since(start))
	return report, nil
}

func (s *complianceService) OwnReport(ctx context.Context, clientID primitive.ObjectID) (*ClientReport, error) {
	start := time.Now()
	w := s.window()
	in := s.fetcher.load(ctx, clientID, w)

	report := &ClientReport{
		ClientID:    clientID,
		WindowStart: w.Start,
		WindowEnd:   w.End,
		Metrics:     compliance.ComputeClient(in, w),
	}
	for d := w.Start; d.Before(w.End); d = d.AddDate(0, 0, 1) {
		report.Daily = append(report.Daily, compliance.Daily(in, d, s.loc))
	}
	metrics.RecordCompliance("self", time.Since(start))
	return report, nil
}
