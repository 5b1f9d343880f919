package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillswap/internal/models"
)

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newUser(t *testing.T, name, email string) models.User {
	t.Helper()
	u, err := models.NewUser(models.UserParams{Name: name, Email: email})
	require.NoError(t, err)
	return *u
}

func newRequest(t *testing.T, from, to, offered, requested string) models.SwapRequest {
	t.Helper()
	req, err := models.NewSwapRequest(models.SwapRequestParams{
		FromUserID:     from,
		ToUserID:       to,
		OfferedSkill:   offered,
		RequestedSkill: requested,
	})
	require.NoError(t, err)
	req.CreatedAt = base
	req.UpdatedAt = base
	return *req
}

func newFeedback(t *testing.T, swapID, from, to string, rating int) models.Feedback {
	t.Helper()
	fb, err := models.NewFeedback(models.FeedbackParams{
		SwapRequestID: swapID, FromUserID: from, ToUserID: to, Rating: rating,
	})
	require.NoError(t, err)
	return *fb
}

func applyAll(s State, intents ...Intent) State {
	for _, in := range intents {
		s = Apply(s, in)
	}
	return s
}

type unknownIntent struct{}

func (unknownIntent) Name() string { return "unknown" }

func TestApply_ReferentialMissesAreNoOps(t *testing.T) {
	t.Parallel()

	s := applyAll(Initial(), AddUser{User: newUser(t, "Ada", "ada@x.com")})

	intents := []Intent{
		UpdateUser{User: models.User{ID: "missing", Name: "Ghost"}},
		BanUser{UserID: "missing", At: base},
		UnbanUser{UserID: "missing"},
		MakeAdmin{UserID: "missing"},
		RemoveAdmin{UserID: "missing"},
		UpdateSwapRequest{Request: models.SwapRequest{ID: "missing", Status: models.SwapStatusAccepted}},
		DeleteSwapRequest{ID: "missing"},
		ForceLogout{UserID: "missing"},
		CheckBannedStatus{},
		unknownIntent{},
		nil,
	}
	for _, in := range intents {
		in := in
		name := "nil"
		if in != nil {
			name = in.Name()
		}
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			var (
				next    State
				changed bool
			)
			require.NotPanics(t, func() { next, changed = Reduce(s, in) })
			assert.False(t, changed)
			assert.Equal(t, s, next)
		})
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	a := newUser(t, "A", "a@x.com")
	b := newUser(t, "B", "b@x.com")
	req := newRequest(t, a.ID, b.ID, "Guitar", "Pottery")
	s := applyAll(Initial(),
		AddUser{User: a}, AddUser{User: b},
		SetSession{User: &a},
		AddSwapRequest{Request: req},
	)

	snapshotUsers := append([]models.User(nil), s.Users...)
	snapshotReqs := append([]models.SwapRequest(nil), s.SwapRequests...)

	_ = Apply(s, BanUser{UserID: a.ID, At: base.Add(time.Minute)})
	_ = Apply(s, MakeAdmin{UserID: b.ID})
	_ = Apply(s, DeleteSwapRequest{ID: req.ID})

	assert.Equal(t, snapshotUsers, s.Users)
	assert.Equal(t, snapshotReqs, s.SwapRequests)
	require.NotNil(t, s.Session)
	assert.Equal(t, a.ID, s.Session.ID)
}

func TestApply_UserIntents(t *testing.T) {
	t.Parallel()

	a := newUser(t, "A", "a@x.com")
	s := applyAll(Initial(), AddUser{User: a}, SetSession{User: &a})

	t.Run("update refreshes session", func(t *testing.T) {
		t.Parallel()
		edited := a.Clone()
		edited.Name = "Alice"
		edited.SkillsOffered = []string{"Guitar"}
		next := Apply(s, UpdateUser{User: edited})
		assert.Equal(t, "Alice", next.Users[0].Name)
		require.NotNil(t, next.Session)
		assert.Equal(t, "Alice", next.Session.Name)
		assert.Equal(t, []string{"Guitar"}, next.Session.SkillsOffered)
	})

	t.Run("make and remove admin", func(t *testing.T) {
		t.Parallel()
		next := Apply(s, MakeAdmin{UserID: a.ID})
		assert.True(t, next.Users[0].IsAdmin)
		assert.True(t, next.Session.IsAdmin)
		again := Apply(next, MakeAdmin{UserID: a.ID})
		assert.Equal(t, next.Users, again.Users)
		removed := Apply(next, RemoveAdmin{UserID: a.ID})
		assert.False(t, removed.Users[0].IsAdmin)
		assert.False(t, removed.Session.IsAdmin)
	})

	t.Run("unban keeps admin stripped", func(t *testing.T) {
		t.Parallel()
		next := applyAll(s, MakeAdmin{UserID: a.ID}, BanUser{UserID: a.ID, At: base}, UnbanUser{UserID: a.ID})
		assert.False(t, next.Users[0].IsBanned)
		assert.False(t, next.Users[0].IsAdmin)
	})

	t.Run("make admin on banned user is refused", func(t *testing.T) {
		t.Parallel()
		banned := Apply(s, BanUser{UserID: a.ID, At: base})
		next, changed := Reduce(banned, MakeAdmin{UserID: a.ID})
		assert.False(t, changed)
		assert.False(t, next.Users[0].IsAdmin)
	})

	t.Run("update cannot resurrect admin on banned user", func(t *testing.T) {
		t.Parallel()
		edited := a.Clone()
		edited.IsBanned = true
		edited.IsAdmin = true
		next := Apply(s, UpdateUser{User: edited})
		assert.True(t, next.Users[0].IsBanned)
		assert.False(t, next.Users[0].IsAdmin)
	})
}

func TestApply_BanCascade(t *testing.T) {
	t.Parallel()

	a := newUser(t, "A", "a@x.com")
	b := newUser(t, "B", "b@x.com")
	c := newUser(t, "C", "c@x.com")
	admin := newUser(t, "Admin", "admin@x.com")
	admin.IsAdmin = true

	pendingOut := newRequest(t, a.ID, b.ID, "Guitar", "Pottery")
	pendingIn := newRequest(t, c.ID, a.ID, "Chess", "Guitar")
	accepted := newRequest(t, a.ID, c.ID, "Guitar", "Chess")
	accepted.Status = models.SwapStatusAccepted
	unrelated := newRequest(t, b.ID, c.ID, "Pottery", "Chess")

	s := Initial()
	s.Users = []models.User{a, b, c, admin}
	s.SwapRequests = []models.SwapRequest{pendingOut, pendingIn, accepted, unrelated}
	s.Session = &admin

	tests := []struct {
		name string
		at   time.Time
	}{
		{"at after updatedAt", base.Add(time.Hour)},
		{"at equal to updatedAt", base},
		{"zero at", time.Time{}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			next := Apply(s, BanUser{UserID: a.ID, At: tt.at})

			for i, req := range next.SwapRequests {
				before := s.SwapRequests[i]
				switch req.ID {
				case pendingOut.ID, pendingIn.ID:
					assert.Equal(t, models.SwapStatusCancelled, req.Status)
					assert.True(t, req.UpdatedAt.After(before.UpdatedAt), "updatedAt must advance")
				default:
					assert.Equal(t, before, req)
				}
			}
			banned, ok := next.FindUser(a.ID)
			require.True(t, ok)
			assert.True(t, banned.IsBanned)
			require.NotNil(t, next.Session)
			assert.Equal(t, admin.ID, next.Session.ID)
		})
	}
}

func TestApply_BanStripsAdmin(t *testing.T) {
	t.Parallel()

	a := newUser(t, "A", "a@x.com")
	a.IsAdmin = true
	s := applyAll(Initial(), AddUser{User: a}, BanUser{UserID: a.ID, At: base})
	assert.False(t, s.Users[0].IsAdmin)
	assert.True(t, s.Users[0].IsBanned)
}

func TestApply_SelfBanClearsSessionImmediately(t *testing.T) {
	t.Parallel()

	a := newUser(t, "A", "a@x.com")
	a.IsAdmin = true
	s := applyAll(Initial(), AddUser{User: a}, SetSession{User: &a})
	next := Apply(s, BanUser{UserID: a.ID, At: base})
	assert.Nil(t, next.Session)
}

func TestApply_WriteGatingWhileSessionBanned(t *testing.T) {
	t.Parallel()

	a := newUser(t, "A", "a@x.com")
	b := newUser(t, "B", "b@x.com")
	req := newRequest(t, a.ID, b.ID, "Guitar", "Pottery")

	s := applyAll(Initial(), AddUser{User: a}, AddUser{User: b}, SetSession{User: &a}, AddSwapRequest{Request: req})
	bannedSession := a.Clone()
	bannedSession.IsBanned = true
	s = Apply(s, SetSession{User: &bannedSession})

	accepted := req
	accepted.Status = models.SwapStatusAccepted
	intents := []Intent{
		AddSwapRequest{Request: newRequest(t, a.ID, b.ID, "Guitar", "Chess")},
		UpdateSwapRequest{Request: accepted},
		DeleteSwapRequest{ID: req.ID},
		AddFeedback{Feedback: newFeedback(t, req.ID, a.ID, b.ID, 5)},
		RecordFeedback{Feedback: newFeedback(t, req.ID, a.ID, b.ID, 5)},
	}
	for _, in := range intents {
		in := in
		t.Run(in.Name(), func(t *testing.T) {
			t.Parallel()
			next, changed := Reduce(s, in)
			assert.False(t, changed)
			assert.Equal(t, s, next)
		})
	}
}

func TestApply_AddSwapRequestRequiresSession(t *testing.T) {
	t.Parallel()

	a := newUser(t, "A", "a@x.com")
	b := newUser(t, "B", "b@x.com")
	s := applyAll(Initial(), AddUser{User: a}, AddUser{User: b})

	req := newRequest(t, a.ID, b.ID, "Guitar", "Pottery")
	assert.Empty(t, Apply(s, AddSwapRequest{Request: req}).SwapRequests)

	req.Status = models.SwapStatusCompleted
	next := applyAll(s, SetSession{User: &a}, AddSwapRequest{Request: req})
	require.Len(t, next.SwapRequests, 1)
	assert.Equal(t, models.SwapStatusPending, next.SwapRequests[0].Status)
}

func TestApply_AdminMessageGating(t *testing.T) {
	t.Parallel()

	admin := newUser(t, "Admin", "admin@x.com")
	admin.IsAdmin = true
	member := newUser(t, "M", "m@x.com")
	bannedAdmin := admin.Clone()
	bannedAdmin.IsBanned = true

	msg, err := models.NewAdminMessage(admin.ID, "Maintenance", "Tonight")
	require.NoError(t, err)

	tests := []struct {
		name    string
		session *models.User
		want    int
	}{
		{"no session", nil, 0},
		{"member", &member, 0},
		{"banned admin", &bannedAdmin, 0},
		{"admin", &admin, 1},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := applyAll(Initial(), SetSession{User: tt.session}, AddAdminMessage{Message: *msg})
			assert.Len(t, s.AdminMessages, tt.want)
		})
	}

	t.Run("empty admin id defaults to session", func(t *testing.T) {
		t.Parallel()
		m := *msg
		m.AdminID = ""
		s := applyAll(Initial(), SetSession{User: &admin}, AddAdminMessage{Message: m})
		require.Len(t, s.AdminMessages, 1)
		assert.Equal(t, admin.ID, s.AdminMessages[0].AdminID)
	})
}

func TestApply_UpdateSwapRequestStateMachine(t *testing.T) {
	t.Parallel()

	a := newUser(t, "A", "a@x.com")
	b := newUser(t, "B", "b@x.com")
	req := newRequest(t, a.ID, b.ID, "Guitar", "Pottery")
	s := applyAll(Initial(), AddUser{User: a}, AddUser{User: b}, SetSession{User: &b}, AddSwapRequest{Request: req})

	with := func(status models.SwapStatus, at time.Time) UpdateSwapRequest {
		r := req
		r.Status = status
		r.UpdatedAt = at
		return UpdateSwapRequest{Request: r}
	}

	t.Run("pending to completed is refused", func(t *testing.T) {
		t.Parallel()
		_, changed := Reduce(s, with(models.SwapStatusCompleted, base.Add(time.Minute)))
		assert.False(t, changed)
	})

	t.Run("unknown status is refused", func(t *testing.T) {
		t.Parallel()
		_, changed := Reduce(s, with("archived", base.Add(time.Minute)))
		assert.False(t, changed)
	})

	t.Run("accept then complete advances updatedAt", func(t *testing.T) {
		t.Parallel()
		accepted := Apply(s, with(models.SwapStatusAccepted, base))
		got, _ := accepted.FindSwapRequest(req.ID)
		assert.Equal(t, models.SwapStatusAccepted, got.Status)
		assert.True(t, got.UpdatedAt.After(base))

		completed := Apply(accepted, with(models.SwapStatusCompleted, base.Add(-time.Hour)))
		done, _ := completed.FindSwapRequest(req.ID)
		assert.Equal(t, models.SwapStatusCompleted, done.Status)
		assert.True(t, done.UpdatedAt.After(got.UpdatedAt))
		assert.Equal(t, base, done.CreatedAt)
	})

	t.Run("same status edits fields but not parties", func(t *testing.T) {
		t.Parallel()
		r := req
		r.Message = "Saturdays work for me"
		r.FromUserID = "someone-else"
		next := Apply(s, UpdateSwapRequest{Request: r})
		got, _ := next.FindSwapRequest(req.ID)
		assert.Equal(t, "Saturdays work for me", got.Message)
		assert.Equal(t, a.ID, got.FromUserID)
	})

	t.Run("delete removes the request", func(t *testing.T) {
		t.Parallel()
		next := Apply(s, DeleteSwapRequest{ID: req.ID})
		assert.Empty(t, next.SwapRequests)
		assert.Len(t, s.SwapRequests, 1)
	})
}

func TestApply_RecordFeedbackRecomputesRating(t *testing.T) {
	t.Parallel()

	c := newUser(t, "C", "c@x.com")
	d := newUser(t, "D", "d@x.com")
	e := newUser(t, "E", "e@x.com")
	s := applyAll(Initial(), AddUser{User: c}, AddUser{User: d}, AddUser{User: e}, SetSession{User: &d})

	s = Apply(s, RecordFeedback{Feedback: newFeedback(t, "swap-1", d.ID, c.ID, 4)})
	got, _ := s.FindUser(c.ID)
	assert.Equal(t, 4.0, got.Rating)
	assert.Equal(t, 1, got.TotalRatings)

	s = Apply(s, RecordFeedback{Feedback: newFeedback(t, "swap-2", e.ID, c.ID, 2)})
	got, _ = s.FindUser(c.ID)
	assert.Equal(t, 3.0, got.Rating)
	assert.Equal(t, 2, got.TotalRatings)
	assert.Len(t, s.Feedback, 2)

	other, _ := s.FindUser(d.ID)
	assert.Zero(t, other.TotalRatings)
}

func TestApply_RatingIsExactMean(t *testing.T) {
	t.Parallel()

	target := newUser(t, "T", "t@x.com")
	rater := newUser(t, "R", "r@x.com")
	s := applyAll(Initial(), AddUser{User: target}, AddUser{User: rater}, SetSession{User: &rater})

	ratings := []int{5, 4, 4, 3, 1, 2, 5, 5, 4}
	sum := 0
	for i, r := range ratings {
		s = Apply(s, RecordFeedback{Feedback: newFeedback(t, string(rune('a'+i)), rater.ID, target.ID, r)})
		sum += r
	}
	got, _ := s.FindUser(target.ID)
	assert.Equal(t, float64(sum)/float64(len(ratings)), got.Rating)
	assert.Equal(t, len(ratings), got.TotalRatings)
}

func TestApply_AddFeedbackIsAppendOnly(t *testing.T) {
	t.Parallel()

	c := newUser(t, "C", "c@x.com")
	d := newUser(t, "D", "d@x.com")
	s := applyAll(Initial(), AddUser{User: c}, AddUser{User: d}, SetSession{User: &d})

	s = Apply(s, AddFeedback{Feedback: newFeedback(t, "swap-1", d.ID, c.ID, 4)})
	got, _ := s.FindUser(c.ID)
	assert.Len(t, s.Feedback, 1)
	assert.Zero(t, got.TotalRatings)

	mean, count := AggregateRating(s.Feedback, c.ID)
	got.Rating, got.TotalRatings = mean, count
	s = Apply(s, UpdateUser{User: got})
	updated, _ := s.FindUser(c.ID)
	assert.Equal(t, 4.0, updated.Rating)
	assert.Equal(t, 1, updated.TotalRatings)
}

func TestApply_CheckBannedStatus(t *testing.T) {
	t.Parallel()

	u := newUser(t, "U", "u@x.com")

	t.Run("stale session is cleared", func(t *testing.T) {
		t.Parallel()
		s := Initial()
		banned := u.Clone()
		banned.IsBanned = true
		s.Users = []models.User{banned}
		stale := u.Clone()
		s.Session = &stale

		next := Apply(s, CheckBannedStatus{})
		assert.Nil(t, next.Session)
		again, changed := Reduce(next, CheckBannedStatus{})
		assert.False(t, changed)
		assert.Equal(t, next, again)
	})

	t.Run("unbanned record refreshes banned session", func(t *testing.T) {
		t.Parallel()
		s := Initial()
		s.Users = []models.User{u}
		cached := u.Clone()
		cached.IsBanned = true
		s.Session = &cached

		next := Apply(s, CheckBannedStatus{})
		require.NotNil(t, next.Session)
		assert.False(t, next.Session.IsBanned)
	})

	t.Run("converged state is unchanged", func(t *testing.T) {
		t.Parallel()
		s := applyAll(Initial(), AddUser{User: u}, SetSession{User: &u})
		next, changed := Reduce(s, CheckBannedStatus{})
		assert.False(t, changed)
		assert.Equal(t, s, next)
	})
}

func TestApply_ForceLogout(t *testing.T) {
	t.Parallel()

	u := newUser(t, "U", "u@x.com")
	s := applyAll(Initial(), AddUser{User: u}, SetSession{User: &u})
	assert.NotNil(t, Apply(s, ForceLogout{UserID: "other"}).Session)
	assert.Nil(t, Apply(s, ForceLogout{UserID: u.ID}).Session)
}

func TestApply_LoadSnapshotMergesProvidedFields(t *testing.T) {
	t.Parallel()

	u := newUser(t, "U", "u@x.com")
	s := applyAll(Initial(), AddUser{User: u}, SetSession{User: &u})

	msgs := []models.AdminMessage{{ID: "m1", Title: "Hi", Content: "There", AdminID: u.ID, CreatedAt: base}}
	next := Apply(s, LoadSnapshot{Partial: Partial{AdminMessages: &msgs}})
	assert.Equal(t, s.Users, next.Users)
	assert.NotNil(t, next.Session)
	assert.Equal(t, msgs, next.AdminMessages)

	cleared := Apply(s, LoadSnapshot{Partial: Partial{SetSession: true}})
	assert.Nil(t, cleared.Session)

	replaced := Apply(Initial(), LoadSnapshot{Partial: s.AsPartial()})
	assert.Equal(t, s, replaced)
}

func TestScenario_BanCancelsPendingRequest(t *testing.T) {
	t.Parallel()

	admin := newUser(t, "Admin", "admin@x.com")
	admin.IsAdmin = true
	a := newUser(t, "A", "a@x.com")
	b := newUser(t, "B", "b@x.com")

	s := applyAll(Initial(), AddUser{User: admin}, AddUser{User: a}, AddUser{User: b}, SetSession{User: &a})
	req := newRequest(t, a.ID, b.ID, "Guitar", "Pottery")
	s = Apply(s, AddSwapRequest{Request: req})
	got, _ := s.FindSwapRequest(req.ID)
	require.Equal(t, models.SwapStatusPending, got.Status)

	s = applyAll(s, SetSession{User: &admin}, BanUser{UserID: a.ID, At: base.Add(time.Minute)})
	got, _ = s.FindSwapRequest(req.ID)
	require.Equal(t, models.SwapStatusCancelled, got.Status)

	accept := got
	accept.Status = models.SwapStatusAccepted
	s = Apply(s, SetSession{User: &b})
	next, changed := Reduce(s, UpdateSwapRequest{Request: accept})
	assert.False(t, changed)
	final, _ := next.FindSwapRequest(req.ID)
	assert.Equal(t, models.SwapStatusCancelled, final.Status)
}

func TestScenario_RemovingSoleAdminIsAllowed(t *testing.T) {
	t.Parallel()

	admin := newUser(t, "Admin", "admin@x.com")
	admin.IsAdmin = true
	s := applyAll(Initial(), AddUser{User: admin}, SetSession{User: &admin})

	next, changed := Reduce(s, RemoveAdmin{UserID: admin.ID})
	assert.True(t, changed)
	for _, u := range next.Users {
		assert.False(t, u.IsAdmin)
	}
}
