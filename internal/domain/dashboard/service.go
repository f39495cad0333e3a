package dashboard

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"

	"github.com/hms/hms/internal/domain/billing"
)

const overviewKey = "overview"

type Service struct {
	repo  Repository
	loc   *time.Location
	cache *cache.Cache // nil disables caching
	now   func() time.Time
}

// NewService builds the dashboard service. A ttl of zero or less turns the
// cache off.
func NewService(repo Repository, loc *time.Location, ttl time.Duration) *Service {
	if loc == nil {
		loc = time.UTC
	}
	s := &Service{repo: repo, loc: loc, now: time.Now}
	if ttl > 0 {
		s.cache = cache.New(ttl, 2*ttl)
	}
	return s
}

// Overview returns the landing page counts, served from cache while fresh.
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	if s.cache != nil {
		if v, ok := s.cache.Get(overviewKey); ok {
			return v.(*Overview), nil
		}
	}

	o, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(overviewKey, o, cache.DefaultExpiration)
	}
	return o, nil
}

// Invalidate drops the cached overview.
func (s *Service) Invalidate() {
	if s.cache != nil {
		s.cache.Delete(overviewKey)
	}
}

func (s *Service) today() time.Time {
	y, m, d := s.now().In(s.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (s *Service) load(ctx context.Context) (*Overview, error) {
	today := s.today()
	from := today.AddDate(0, 0, -(TrendDays - 1))

	o := &Overview{GeneratedAt: s.now()}
	var (
		apptDays    map[string]int
		revenueDays map[string]float64
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		o.TotalPatients, err = s.repo.ActivePatients(ctx)
		return err
	})
	g.Go(func() (err error) {
		o.TodayAppointments, err = s.repo.AppointmentsOn(ctx, today)
		return err
	})
	g.Go(func() (err error) {
		o.LowStockDrugs, err = s.repo.LowStockDrugs(ctx)
		return err
	})
	g.Go(func() (err error) {
		o.ActiveBeds, o.OccupiedBeds, err = s.repo.Beds(ctx)
		return err
	})
	g.Go(func() (err error) {
		o.UnpaidBills, err = s.repo.UnpaidBills(ctx)
		return err
	})
	g.Go(func() (err error) {
		apptDays, err = s.repo.AppointmentsPerDay(ctx, from, today)
		return err
	})
	g.Go(func() (err error) {
		revenueDays, err = s.repo.RevenuePerDay(ctx, from, today, s.loc)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	o.AvailableBeds = o.ActiveBeds - o.OccupiedBeds
	o.AppointmentTrend = make([]DayCount, 0, TrendDays)
	o.RevenueTrend = make([]DayAmount, 0, TrendDays)
	for d := from; !d.After(today); d = d.AddDate(0, 0, 1) {
		key := d.Format(dayLayout)
		o.AppointmentTrend = append(o.AppointmentTrend, DayCount{Date: key, Count: apptDays[key]})
		o.RevenueTrend = append(o.RevenueTrend, DayAmount{Date: key, Amount: billing.RoundAmount(revenueDays[key])})
	}
	return o, nil
}
