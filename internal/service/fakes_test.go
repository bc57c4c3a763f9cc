package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"alcyxob/coach-tracker/internal/cache"
	"alcyxob/coach-tracker/internal/domain"
	"alcyxob/coach-tracker/internal/logging"
	"alcyxob/coach-tracker/internal/repository"
	"alcyxob/coach-tracker/internal/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memStore backs in-memory fakes of every repository. Setting fail[entity]
// makes reads of that entity return the error.
type memStore struct {
	mu sync.Mutex

	users        map[primitive.ObjectID]domain.User
	mealPlans    map[primitive.ObjectID]domain.MealPlan
	meals        map[primitive.ObjectID]domain.Meal
	workoutPlans map[primitive.ObjectID]domain.WorkoutPlan
	workoutDays  map[primitive.ObjectID]domain.WorkoutDay
	supplements  map[primitive.ObjectID]domain.Supplement

	mealCompletions       []domain.MealCompletion
	workoutCompletions    []domain.WorkoutCompletion
	supplementCompletions []domain.SupplementCompletion
	weights               []domain.WeightLog
	messages              []domain.Message
	photos                []domain.ProgressPhoto

	fail  map[string]error
	reads map[string]int
}

func newMemStore() *memStore {
	return &memStore{
		users:        map[primitive.ObjectID]domain.User{},
		mealPlans:    map[primitive.ObjectID]domain.MealPlan{},
		meals:        map[primitive.ObjectID]domain.Meal{},
		workoutPlans: map[primitive.ObjectID]domain.WorkoutPlan{},
		workoutDays:  map[primitive.ObjectID]domain.WorkoutDay{},
		supplements:  map[primitive.ObjectID]domain.Supplement{},
		fail:         map[string]error{},
		reads:        map[string]int{},
	}
}

func (m *memStore) repos() Repositories {
	return Repositories{
		Users:       fakeUsers{m},
		MealPlans:   fakeMealPlans{m},
		Workouts:    fakeWorkouts{m},
		Completions: fakeCompletions{m},
		Supplements: fakeSupplements{m},
		Weights:     fakeWeights{m},
		Messages:    fakeMessages{m},
		Photos:      fakePhotos{m},
	}
}

// read must be called with mu held.
func (m *memStore) read(entity string) error {
	m.reads[entity]++
	return m.fail[entity]
}

func (m *memStore) readCount(entity string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads[entity]
}

func inRange(t, from, to time.Time) bool { return !t.Before(from) && t.Before(to) }

// --- users ---

type fakeUsers struct{ *memStore }

func (f fakeUsers) Create(_ context.Context, u *domain.User) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == u.Email || existing.AuthID == u.AuthID {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	u.ID = primitive.NewObjectID()
	f.users[u.ID] = *u
	return u.ID, nil
}

func (f fakeUsers) find(match func(domain.User) bool) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.read("users"); err != nil {
		return nil, err
	}
	for _, u := range f.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f fakeUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return f.find(func(u domain.User) bool { return u.Email == email })
}

func (f fakeUsers) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	return f.find(func(u domain.User) bool { return u.ID == id })
}

func (f fakeUsers) GetByAuthID(_ context.Context, authID string) (*domain.User, error) {
	return f.find(func(u domain.User) bool { return u.AuthID == authID })
}

func (f fakeUsers) AddClientIDToCoach(_ context.Context, coachID, clientID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	coach, ok := f.users[coachID]
	if !ok {
		return repository.ErrNotFound
	}
	for _, id := range coach.ClientIDs {
		if id == clientID {
			return nil
		}
	}
	coach.ClientIDs = append(coach.ClientIDs, clientID)
	f.users[coachID] = coach
	return nil
}

func (f fakeUsers) GetClientsByCoachID(_ context.Context, coachID primitive.ObjectID) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.read("users"); err != nil {
		return nil, err
	}
	out := []domain.User{}
	for _, u := range f.users {
		if u.IsClient() && u.CoachID != nil && *u.CoachID == coachID {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f fakeUsers) SetCoachForClient(_ context.Context, clientID, coachID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[clientID]
	if !ok {
		return repository.ErrNotFound
	}
	u.CoachID = &coachID
	f.users[clientID] = u
	return nil
}

func (f fakeUsers) SetStatus(_ context.Context, id primitive.ObjectID, status domain.UserStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Status = status
	f.users[id] = u
	return nil
}

// --- plans ---

type fakeMealPlans struct{ *memStore }

func (f fakeMealPlans) Create(_ context.Context, p *domain.MealPlan, meals []domain.Meal) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = primitive.NewObjectID()
	f.mealPlans[p.ID] = *p
	for i := range meals {
		meals[i].ID = primitive.NewObjectID()
		meals[i].MealPlanID = p.ID
		f.meals[meals[i].ID] = meals[i]
	}
	return p.ID, nil
}

func (f fakeMealPlans) GetByID(_ context.Context, id primitive.ObjectID) (*domain.MealPlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.mealPlans[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (f fakeMealPlans) GetByClientID(_ context.Context, clientID primitive.ObjectID) ([]domain.MealPlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.read("meal_plans"); err != nil {
		return nil, err
	}
	out := []domain.MealPlan{}
	for _, p := range f.mealPlans {
		if p.ClientID == clientID && !p.IsTemplate {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f fakeMealPlans) GetMeals(_ context.Context, planID primitive.ObjectID) ([]domain.Meal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.read("meals"); err != nil {
		return nil, err
	}
	out := []domain.Meal{}
	for _, m := range f.meals {
		if m.MealPlanID == planID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}

func (f fakeMealPlans) GetMealByID(_ context.Context, id primitive.ObjectID) (*domain.Meal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.meals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &m, nil
}

func (f fakeMealPlans) Activate(_ context.Context, planID, clientID primitive.ObjectID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	target, ok := f.mealPlans[planID]
	if !ok || target.ClientID != clientID || target.IsTemplate {
		return repository.ErrNotFound
	}
	for id, p := range f.mealPlans {
		if id != planID && p.ClientID == clientID && p.IsActive {
			p.IsActive = false
			p.DeactivatedAt = &at
			f.mealPlans[id] = p
		}
	}
	target.IsActive = true
	target.ActivatedAt = &at
	target.DeactivatedAt = nil
	f.mealPlans[planID] = target
	return nil
}

type fakeWorkouts struct{ *memStore }

func (f fakeWorkouts) Create(_ context.Context, p *domain.WorkoutPlan, days []domain.WorkoutDay) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = primitive.NewObjectID()
	f.workoutPlans[p.ID] = *p
	for i := range days {
		days[i].ID = primitive.NewObjectID()
		days[i].WorkoutPlanID = p.ID
		f.workoutDays[days[i].ID] = days[i]
	}
	return p.ID, nil
}

func (f fakeWorkouts) GetByID(_ context.Context, id primitive.ObjectID) (*domain.WorkoutPlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.workoutPlans[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (f fakeWorkouts) GetByClientID(_ context.Context, clientID primitive.ObjectID) ([]domain.WorkoutPlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.read("workout_plans"); err != nil {
		return nil, err
	}
	out := []domain.WorkoutPlan{}
	for _, p := range f.workoutPlans {
		if p.ClientID == clientID && !p.IsTemplate {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f fakeWorkouts) GetDays(_ context.Context, planID primitive.ObjectID) ([]domain.WorkoutDay, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.read("workout_days"); err != nil {
		return nil, err
	}
	out := []domain.WorkoutDay{}
	for _, d := range f.workoutDays {
		if d.WorkoutPlanID == planID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DayOfWeek < out[j].DayOfWeek })
	return out, nil
}

func (f fakeWorkouts) Activate(_ context.Context, planID, clientID primitive.ObjectID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	target, ok := f.workoutPlans[planID]
	if !ok || target.ClientID != clientID || target.IsTemplate {
		return repository.ErrNotFound
	}
	for id, p := range f.workoutPlans {
		if id != planID && p.ClientID == clientID && p.IsActive {
			p.IsActive = false
			p.DeactivatedAt = &at
			f.workoutPlans[id] = p
		}
	}
	target.IsActive = true
	target.ActivatedAt = &at
	target.DeactivatedAt = nil
	f.workoutPlans[planID] = target
	return nil
}

// --- completions ---

type fakeCompletions struct{ *memStore }

func (f fakeCompletions) UpsertMealCompletion(_ context.Context, c *domain.MealCompletion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.mealCompletions {
		if e.UserID == c.UserID && e.MealID == c.MealID && e.CompletedAt.Equal(c.CompletedAt) {
			return nil
		}
	}
	c.ID = primitive.NewObjectID()
	f.mealCompletions = append(f.mealCompletions, *c)
	return nil
}

func (f fakeCompletions) GetMealCompletions(_ context.Context, userID primitive.ObjectID, from, to time.Time) ([]domain.MealCompletion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.read("meal_completions"); err != nil {
		return nil, err
	}
	out := []domain.MealCompletion{}
	for _, c := range f.mealCompletions {
		if c.UserID == userID && inRange(c.CompletedAt, from, to) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f fakeCompletions) UpsertWorkoutCompletion(_ context.Context, c *domain.WorkoutCompletion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, e := range f.workoutCompletions {
		if e.UserID == c.UserID && e.CompletedDate.Equal(c.CompletedDate) {
			c.ID = e.ID
			f.workoutCompletions[i] = *c
			return nil
		}
	}
	c.ID = primitive.NewObjectID()
	f.workoutCompletions = append(f.workoutCompletions, *c)
	return nil
}

func (f fakeCompletions) GetWorkoutCompletions(_ context.Context, userID primitive.ObjectID, from, to time.Time) ([]domain.WorkoutCompletion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.read("workout_completions"); err != nil {
		return nil, err
	}
	out := []domain.WorkoutCompletion{}
	for _, c := range f.workoutCompletions {
		if c.UserID == userID && inRange(c.CompletedDate, from, to) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f fakeCompletions) UpsertSupplementCompletion(_ context.Context, c *domain.SupplementCompletion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.supplementCompletions {
		if e.UserID == c.UserID && e.SupplementID == c.SupplementID && e.CompletedAt.Equal(c.CompletedAt) {
			return nil
		}
	}
	c.ID = primitive.NewObjectID()
	f.supplementCompletions = append(f.supplementCompletions, *c)
	return nil
}

func (f fakeCompletions) GetSupplementCompletions(_ context.Context, userID primitive.ObjectID, from, to time.Time) ([]domain.SupplementCompletion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.read("supplement_completions"); err != nil {
		return nil, err
	}
	out := []domain.SupplementCompletion{}
	for _, c := range f.supplementCompletions {
		if c.UserID == userID && inRange(c.CompletedAt, from, to) {
			out = append(out, c)
		}
	}
	return out, nil
}

// --- supplements, weights ---

type fakeSupplements struct{ *memStore }

func (f fakeSupplements) Create(_ context.Context, s *domain.Supplement) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s.ID = primitive.NewObjectID()
	f.supplements[s.ID] = *s
	return s.ID, nil
}

func (f fakeSupplements) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Supplement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.supplements[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (f fakeSupplements) GetByUserID(_ context.Context, userID primitive.ObjectID) ([]domain.Supplement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.read("supplements"); err != nil {
		return nil, err
	}
	out := []domain.Supplement{}
	for _, s := range f.supplements {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeWeights struct{ *memStore }

func (f fakeWeights) Create(_ context.Context, w *domain.WeightLog) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.ID = primitive.NewObjectID()
	f.weights = append(f.weights, *w)
	return w.ID, nil
}

func (f fakeWeights) GetByUserID(_ context.Context, userID primitive.ObjectID, from, to time.Time) ([]domain.WeightLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.read("weight_logs"); err != nil {
		return nil, err
	}
	out := []domain.WeightLog{}
	for _, w := range f.weights {
		if w.UserID == userID && inRange(w.LoggedAt, from, to) {
			out = append(out, w)
		}
	}
	return out, nil
}

// --- messages, photos ---

type fakeMessages struct{ *memStore }

func (f fakeMessages) Create(_ context.Context, m *domain.Message) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m.ID = primitive.NewObjectID()
	m.CreatedAt = time.Now()
	f.messages = append(f.messages, *m)
	return m.ID, nil
}

func (f fakeMessages) GetThread(_ context.Context, coachID, clientID primitive.ObjectID, limit int64) ([]domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Message{}
	for _, m := range f.messages {
		if m.CoachID == coachID && m.ClientID == clientID {
			out = append(out, m)
		}
	}
	if limit > 0 && int64(len(out)) > limit {
		out = out[int64(len(out))-limit:]
	}
	return out, nil
}

func (f fakeMessages) MarkRead(_ context.Context, coachID, clientID, readerID primitive.ObjectID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, m := range f.messages {
		if m.CoachID == coachID && m.ClientID == clientID && m.SenderID != readerID && m.ReadAt == nil {
			f.messages[i].ReadAt = &at
		}
	}
	return nil
}

type fakePhotos struct{ *memStore }

func (f fakePhotos) Create(_ context.Context, p *domain.ProgressPhoto) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.photos {
		if e.S3ObjectKey == p.S3ObjectKey {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	p.ID = primitive.NewObjectID()
	f.photos = append(f.photos, *p)
	return p.ID, nil
}

func (f fakePhotos) GetByClientID(_ context.Context, clientID primitive.ObjectID) ([]domain.ProgressPhoto, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.ProgressPhoto{}
	for _, p := range f.photos {
		if p.ClientID == clientID {
			out = append(out, p)
		}
	}
	return out, nil
}

// --- storage ---

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string]storage.ObjectMetadata
	deleted []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string]storage.ObjectMetadata{}}
}

func (s *fakeStorage) put(key, contentType string, size int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = storage.ObjectMetadata{ContentType: contentType, Size: size}
}

func (s *fakeStorage) GeneratePresignedUploadURL(_ context.Context, key, _ string, _ time.Duration) (string, error) {
	return "https://s3.test/put/" + key, nil
}

func (s *fakeStorage) GeneratePresignedDownloadURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://s3.test/get/" + key, nil
}

func (s *fakeStorage) HeadObject(_ context.Context, key string) (*storage.ObjectMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	meta, ok := s.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return &meta, nil
}

func (s *fakeStorage) DeleteObject(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	s.deleted = append(s.deleted, key)
	return nil
}

// --- fixtures ---

// fixedNow is a Sunday afternoon.
var fixedNow = time.Date(2026, time.October, 18, 15, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func newCache() *cache.ReadThrough {
	return cache.NewReadThrough(cache.NewMemory(), time.Minute, logging.Discard())
}

func (m *memStore) addUser(name string, role domain.Role, coach *domain.User) domain.User {
	u := domain.User{
		ID:     primitive.NewObjectID(),
		AuthID: "auth|" + name,
		Name:   name,
		Email:  name + "@example.com",
		Role:   role,
		Status: domain.StatusActive,
	}
	if coach != nil {
		u.CoachID = &coach.ID
	}
	m.mu.Lock()
	m.users[u.ID] = u
	m.mu.Unlock()
	return u
}

func ptr[T any](v T) *T { return &v }

// seedWorkoutPlan stores an active fixed plan for client with one group on
// each training weekday; the rest of the week are rest days.
func (m *memStore) seedWorkoutPlan(coach, client domain.User, activated time.Time, trainingDays ...time.Weekday) (domain.WorkoutPlan, []domain.WorkoutDay) {
	plan := domain.WorkoutPlan{
		ID:           primitive.NewObjectID(),
		CoachID:      coach.ID,
		ClientID:     client.ID,
		Name:         "split",
		ScheduleMode: domain.ScheduleFixed,
		Activation:   domain.Activation{IsActive: true, ActivatedAt: ptr(activated)},
	}
	training := map[time.Weekday]bool{}
	for _, d := range trainingDays {
		training[d] = true
	}
	var days []domain.WorkoutDay
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workoutPlans[plan.ID] = plan
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		d := domain.WorkoutDay{ID: primitive.NewObjectID(), WorkoutPlanID: plan.ID, DayOfWeek: int(wd), IsRest: !training[wd]}
		if training[wd] {
			d.Groups = []domain.ExerciseGroup{{ID: "g-" + wd.String(), Name: "main"}}
		}
		m.workoutDays[d.ID] = d
		days = append(days, d)
	}
	return plan, days
}

// seedMealPlan stores an active meal plan with Breakfast options A/B and Lunch.
func (m *memStore) seedMealPlan(coach, client domain.User, activated time.Time) (domain.MealPlan, []domain.Meal) {
	plan := domain.MealPlan{
		ID:         primitive.NewObjectID(),
		CoachID:    coach.ID,
		ClientID:   client.ID,
		Name:       "cut",
		Activation: domain.Activation{IsActive: true, ActivatedAt: ptr(activated)},
	}
	meals := []domain.Meal{
		{ID: primitive.NewObjectID(), MealPlanID: plan.ID, Name: "Breakfast", Time: "08:00", Option: "A", Sequence: 1},
		{ID: primitive.NewObjectID(), MealPlanID: plan.ID, Name: "Breakfast", Time: "08:00", Option: "B", Sequence: 2},
		{ID: primitive.NewObjectID(), MealPlanID: plan.ID, Name: "Lunch", Time: "13:00", Sequence: 3},
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mealPlans[plan.ID] = plan
	for _, meal := range meals {
		m.meals[meal.ID] = meal
	}
	return plan, meals
}
