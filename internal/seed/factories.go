package seed

import (
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"skillswap/internal/engine"
	"skillswap/internal/models"
	"skillswap/internal/query"
)

var (
	skillPool = []string{
		"Guitar", "Piano", "Pottery", "Photography", "Spanish", "French", "Japanese",
		"Python", "JavaScript", "React", "Go", "SQL", "DevOps", "UI/UX Design",
		"Illustration", "Video Editing", "Cooking", "Baking", "Yoga", "Running",
		"Chess", "Knitting", "Woodworking", "Public Speaking", "Copywriting",
		"Bookkeeping", "Gardening", "Calligraphy", "Salsa", "Sewing",
	}

	locationPool = []string{
		"Lisbon", "Berlin", "Toronto", "Austin", "Melbourne", "Nairobi",
		"Bangalore", "Mexico City", "Seoul", "Remote",
	}

	availabilityPool = []string{"weekdays", "weekends", "mornings", "evenings", "flexible"}

	statusPool = []models.SwapStatus{
		models.SwapStatusPending,
		models.SwapStatusAccepted,
		models.SwapStatusRejected,
		models.SwapStatusCompleted,
		models.SwapStatusCancelled,
	}
)

// Options sizes a generated marketplace.
type Options struct {
	Users    int
	Swaps    int
	Messages int
	// MaxDays bounds how far back creation times are spread.
	MaxDays int
}

// DefaultOptions is a small marketplace suitable for local development.
var DefaultOptions = Options{Users: 12, Swaps: 20, Messages: 3, MaxDays: 60}

// Factory builds marketplace entities from a seeded faker, so the same seed
// yields the same data.
type Factory struct {
	faker *gofakeit.Faker
}

// NewFactory returns a factory seeded with seed. Zero picks a random seed.
func NewFactory(seed int64) *Factory {
	return &Factory{faker: gofakeit.New(seed)}
}

// BuildUser returns a member with a unique email derived from n.
func (f *Factory) BuildUser(n int, createdAt time.Time) models.User {
	first := f.faker.FirstName()
	last := f.faker.LastName()
	return models.User{
		ID:            f.faker.UUID(),
		Name:          first + " " + last,
		Email:         fmt.Sprintf("%s.%s.%d@example.com", strings.ToLower(first), strings.ToLower(last), n),
		Location:      f.faker.RandomString(locationPool),
		IsPublic:      f.faker.Number(1, 10) > 2,
		SkillsOffered: f.pick(skillPool, 1, 4),
		SkillsWanted:  f.pick(skillPool, 1, 3),
		Availability:  f.pick(availabilityPool, 1, 2),
		CreatedAt:     createdAt.UTC(),
	}
}

// Marketplace generates a consistent state: the first user is an admin,
// swap statuses follow the state machine, feedback exists only for
// completed swaps and every rating matches its feedback history.
func (f *Factory) Marketplace(opts Options, now time.Time) engine.State {
	if opts.MaxDays <= 0 {
		opts.MaxDays = DefaultOptions.MaxDays
	}
	now = now.UTC().Round(0)
	s := engine.Initial()
	horizon := time.Duration(opts.MaxDays) * 24 * time.Hour

	for i := 0; i < opts.Users; i++ {
		u := f.BuildUser(i, now.Add(-horizon+f.jitter(time.Hour)))
		if i == 0 {
			u.IsAdmin = true
			u.IsPublic = true
		}
		s.Users = append(s.Users, u)
	}
	if len(s.Users) < 2 {
		return s
	}

	for attempts := 0; len(s.SwapRequests) < opts.Swaps && attempts < opts.Swaps*10; attempts++ {
		if req, ok := f.buildSwap(s, now, horizon); ok {
			s.SwapRequests = append(s.SwapRequests, req)
		}
	}

	for _, req := range s.SwapRequests {
		if req.Status != models.SwapStatusCompleted {
			continue
		}
		for _, rater := range []string{req.FromUserID, req.ToUserID} {
			if !f.faker.Bool() {
				continue
			}
			s.Feedback = append(s.Feedback, models.Feedback{
				ID:            f.faker.UUID(),
				SwapRequestID: req.ID,
				FromUserID:    rater,
				ToUserID:      req.Counterparty(rater),
				Rating:        f.faker.Number(models.MinRating, models.MaxRating),
				Comment:       f.faker.Sentence(8),
				CreatedAt:     req.UpdatedAt.Add(time.Hour),
			})
		}
	}
	for i := range s.Users {
		s.Users[i].Rating, s.Users[i].TotalRatings = engine.AggregateRating(s.Feedback, s.Users[i].ID)
	}

	admin := s.Users[0]
	for i := 0; i < opts.Messages; i++ {
		s.AdminMessages = append(s.AdminMessages, models.AdminMessage{
			ID:        f.faker.UUID(),
			Title:     strings.TrimSuffix(f.faker.Sentence(4), "."),
			Content:   f.faker.Paragraph(1, 2, 10, " "),
			CreatedAt: now.Add(-time.Duration(opts.Messages-i) * 24 * time.Hour),
			AdminID:   admin.ID,
		})
	}
	return s
}

func (f *Factory) buildSwap(s engine.State, now time.Time, horizon time.Duration) (models.SwapRequest, bool) {
	from := s.Users[f.faker.Number(0, len(s.Users)-1)]
	to := s.Users[f.faker.Number(0, len(s.Users)-1)]
	if from.ID == to.ID || len(from.SkillsOffered) == 0 || len(to.SkillsOffered) == 0 {
		return models.SwapRequest{}, false
	}
	requested := f.faker.RandomString(to.SkillsOffered)
	status := statusPool[f.faker.Number(0, len(statusPool)-1)]
	if status.IsActive() && query.HasActiveRequest(s, from.ID, to.ID, requested) {
		return models.SwapRequest{}, false
	}

	created := now.Add(-f.jitter(horizon / 2))
	updated := created
	if status != models.SwapStatusPending {
		updated = created.Add(time.Hour + f.jitter(48*time.Hour))
	}
	return models.SwapRequest{
		ID:             f.faker.UUID(),
		FromUserID:     from.ID,
		ToUserID:       to.ID,
		OfferedSkill:   f.faker.RandomString(from.SkillsOffered),
		RequestedSkill: requested,
		Message:        f.faker.Sentence(10),
		Status:         status,
		CreatedAt:      created,
		UpdatedAt:      updated,
	}, true
}

// pick returns between lo and hi distinct entries of pool.
func (f *Factory) pick(pool []string, lo, hi int) []string {
	shuffled := append([]string(nil), pool...)
	f.faker.ShuffleStrings(shuffled)
	return models.NormalizeTags(shuffled[:f.faker.Number(lo, hi)])
}

// jitter returns a whole-minute duration in [0, max).
func (f *Factory) jitter(max time.Duration) time.Duration {
	minutes := int(max / time.Minute)
	if minutes <= 1 {
		return 0
	}
	return time.Duration(f.faker.Number(0, minutes-1)) * time.Minute
}
