package seed

import (
	_ "embed"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"skillswap/internal/engine"
	"skillswap/internal/models"
)

// DemoFixture is the bundled demo marketplace.
//
//go:embed fixtures/demo.yml
var DemoFixture []byte

// Fixture is the YAML shape of a hand-written marketplace. Swaps, feedback
// and messages refer to users by the fixture key, not by id.
type Fixture struct {
	Users    []FixtureUser     `yaml:"users"`
	Swaps    []FixtureSwap     `yaml:"swaps"`
	Feedback []FixtureFeedback `yaml:"feedback"`
	Messages []FixtureMessage  `yaml:"messages"`
}

type FixtureUser struct {
	Key          string   `yaml:"key"`
	Name         string   `yaml:"name"`
	Email        string   `yaml:"email"`
	Location     string   `yaml:"location"`
	Admin        bool     `yaml:"admin"`
	Banned       bool     `yaml:"banned"`
	Private      bool     `yaml:"private"`
	Offered      []string `yaml:"offered"`
	Wanted       []string `yaml:"wanted"`
	Availability []string `yaml:"availability"`
}

type FixtureSwap struct {
	Key       string            `yaml:"key"`
	From      string            `yaml:"from"`
	To        string            `yaml:"to"`
	Offered   string            `yaml:"offered"`
	Requested string            `yaml:"requested"`
	Message   string            `yaml:"message"`
	Status    models.SwapStatus `yaml:"status"`
	DaysAgo   int               `yaml:"daysAgo"`
}

type FixtureFeedback struct {
	Swap    string `yaml:"swap"`
	From    string `yaml:"from"`
	Rating  int    `yaml:"rating"`
	Comment string `yaml:"comment"`
}

type FixtureMessage struct {
	Title   string `yaml:"title"`
	Content string `yaml:"content"`
	Admin   string `yaml:"admin"`
}

// ParseFixture decodes YAML into a Fixture.
func ParseFixture(data []byte) (*Fixture, error) {
	var fx Fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	return &fx, nil
}

// State builds the marketplace the fixture describes, stamping times
// relative to now. References are checked and ratings are computed from
// the fixture's feedback.
func (fx *Fixture) State(now time.Time) (engine.State, error) {
	now = now.UTC().Round(0)
	s := engine.Initial()
	ids := make(map[string]string, len(fx.Users))

	for _, fu := range fx.Users {
		if fu.Key == "" {
			return s, fmt.Errorf("fixture user %q: key is required", fu.Email)
		}
		if _, dup := ids[fu.Key]; dup {
			return s, fmt.Errorf("fixture user %q: duplicate key", fu.Key)
		}
		if _, dup := s.FindUserByEmail(fu.Email); dup {
			return s, fmt.Errorf("fixture user %q: duplicate email %q", fu.Key, fu.Email)
		}
		u, err := models.NewUser(models.UserParams{
			ID:       "seed-" + fu.Key,
			Name:     fu.Name,
			Email:    fu.Email,
			Location: fu.Location,
			IsAdmin:  fu.Admin && !fu.Banned,
		})
		if err != nil {
			return s, fmt.Errorf("fixture user %q: %w", fu.Key, err)
		}
		u.IsBanned = fu.Banned
		u.IsPublic = !fu.Private
		u.SkillsOffered = models.NormalizeTags(fu.Offered)
		u.SkillsWanted = models.NormalizeTags(fu.Wanted)
		u.Availability = models.NormalizeTags(fu.Availability)
		u.CreatedAt = now.Add(-90 * 24 * time.Hour)
		ids[fu.Key] = u.ID
		s.Users = append(s.Users, *u)
	}

	swaps := make(map[string]models.SwapRequest, len(fx.Swaps))
	for _, fs := range fx.Swaps {
		from, to := ids[fs.From], ids[fs.To]
		if from == "" || to == "" {
			return s, fmt.Errorf("fixture swap %q: unknown user", fs.Key)
		}
		req, err := models.NewSwapRequest(models.SwapRequestParams{
			FromUserID:     from,
			ToUserID:       to,
			OfferedSkill:   fs.Offered,
			RequestedSkill: fs.Requested,
			Message:        fs.Message,
		})
		if err != nil {
			return s, fmt.Errorf("fixture swap %q: %w", fs.Key, err)
		}
		if fs.Status != "" {
			if !fs.Status.Valid() {
				return s, fmt.Errorf("fixture swap %q: invalid status %q", fs.Key, fs.Status)
			}
			req.Status = fs.Status
		}
		req.ID = "seed-" + fs.Key
		req.CreatedAt = now.Add(-time.Duration(fs.DaysAgo) * 24 * time.Hour)
		req.UpdatedAt = req.CreatedAt
		if req.Status != models.SwapStatusPending {
			req.UpdatedAt = req.CreatedAt.Add(time.Hour)
		}
		swaps[fs.Key] = *req
		s.SwapRequests = append(s.SwapRequests, *req)
	}

	for i, ff := range fx.Feedback {
		req, ok := swaps[ff.Swap]
		if !ok {
			return s, fmt.Errorf("fixture feedback %d: unknown swap %q", i, ff.Swap)
		}
		rater := ids[ff.From]
		if !req.Involves(rater) {
			return s, fmt.Errorf("fixture feedback %d: %q is not a party of %q", i, ff.From, ff.Swap)
		}
		if req.Status != models.SwapStatusCompleted {
			return s, fmt.Errorf("fixture feedback %d: swap %q is not completed", i, ff.Swap)
		}
		fb, err := models.NewFeedback(models.FeedbackParams{
			SwapRequestID: req.ID,
			FromUserID:    rater,
			ToUserID:      req.Counterparty(rater),
			Rating:        ff.Rating,
			Comment:       ff.Comment,
		})
		if err != nil {
			return s, fmt.Errorf("fixture feedback %d: %w", i, err)
		}
		fb.ID = fmt.Sprintf("seed-feedback-%d", i+1)
		fb.CreatedAt = req.UpdatedAt.Add(time.Hour)
		s.Feedback = append(s.Feedback, *fb)
	}
	for i := range s.Users {
		s.Users[i].Rating, s.Users[i].TotalRatings = engine.AggregateRating(s.Feedback, s.Users[i].ID)
	}

	for i, fm := range fx.Messages {
		admin, ok := s.FindUser(ids[fm.Admin])
		if !ok || !admin.IsAdmin {
			return s, fmt.Errorf("fixture message %d: %q is not an admin", i, fm.Admin)
		}
		msg, err := models.NewAdminMessage(admin.ID, fm.Title, fm.Content)
		if err != nil {
			return s, fmt.Errorf("fixture message %d: %w", i, err)
		}
		msg.ID = fmt.Sprintf("seed-message-%d", i+1)
		msg.CreatedAt = now.Add(-time.Duration(len(fx.Messages)-i) * time.Hour)
		s.AdminMessages = append(s.AdminMessages, *msg)
	}
	return s, nil
}

// LoadFixture parses data and builds its state.
func LoadFixture(data []byte, now time.Time) (engine.State, error) {
	fx, err := ParseFixture(data)
	if err != nil {
		return engine.Initial(), err
	}
	return fx.State(now)
}
