package service

import (
	"alcyxob/coach-tracker/internal/cache"
	"alcyxob/coach-tracker/internal/compliance"
	"alcyxob/coach-tracker/internal/domain"
	"alcyxob/coach-tracker/internal/repository"
	"alcyxob/coach-tracker/internal/storage"
	"context"
	"errors"
	"path"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrMealNotFound             = errors.New("meal not found")
	ErrSupplementNotFound       = errors.New("supplement not found")
	ErrNoActivePlan             = errors.New("no plan is in effect today")
	ErrUnknownExerciseGroup     = errors.New("exercise group is not part of today's plan")
	ErrInvalidWeight            = errors.New("weight must be a positive number of kilograms")
	ErrUploadURLError           = errors.New("failed to generate upload URL")
	ErrDownloadURLError         = errors.New("failed to generate download URL")
	ErrUploadNotFound           = errors.New("no uploaded file found for this key")
	ErrUploadNotOwned           = errors.New("object key was not issued to this client")
	ErrPhotoTooLarge            = errors.New("photo exceeds the maximum upload size")
	ErrUploadConfirmationFailed = errors.New("failed to confirm upload")
)

// UploadURLResponse structure for returning URL and object key
type UploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"` // The key client needs to report back on confirm
}

// PhotoView is photo metadata with a temporary download URL.
type PhotoView struct {
	domain.ProgressPhoto
	URL string `json:"url,omitempty"`
}

// TodayView is what a client sees on the dashboard for the current day.
type TodayView struct {
	Date time.Time `json:"date"`

	MealPlan   *domain.MealPlan       `json:"mealPlan,omitempty"`
	MealGroups []compliance.MealGroup `json:"mealGroups"`

	WorkoutPlan *domain.WorkoutPlan `json:"workoutPlan,omitempty"`
	// WorkoutDays holds today's day for fixed schedules and every day for flexible ones.
	WorkoutDays []domain.WorkoutDay `json:"workoutDays"`

	Supplements []domain.Supplement `json:"supplements"`

	CompletedMealIDs       []primitive.ObjectID      `json:"completedMealIds"`
	CompletedSupplementIDs []primitive.ObjectID      `json:"completedSupplementIds"`
	WorkoutCompletion      *domain.WorkoutCompletion `json:"workoutCompletion,omitempty"`

	Metrics compliance.DayMetrics `json:"metrics"`
}

type ClientService interface {
	Today(ctx context.Context, clientID primitive.ObjectID) (*TodayView, error)

	// Completions are per calendar day; repeating one is a no-op.
	CompleteMeal(ctx context.Context, clientID, coachID, mealID primitive.ObjectID) error
	CompleteWorkout(ctx context.Context, clientID, coachID primitive.ObjectID, groupIDs []string) (*domain.WorkoutCompletion, error)
	CompleteSupplement(ctx context.Context, clientID, coachID, supplementID primitive.ObjectID) error
	LogWeight(ctx context.Context, clientID, coachID primitive.ObjectID, weightKg float64, loggedAt *time.Time) (*domain.WeightLog, error)

	// Upload Process
	RequestPhotoUpload(ctx context.Context, clientID primitive.ObjectID, fileName, contentType string) (*UploadURLResponse, error)
	ConfirmPhotoUpload(ctx context.Context, clientID, coachID primitive.ObjectID, objectKey, fileName string) (*domain.ProgressPhoto, error)
	GetMyPhotos(ctx context.Context, clientID primitive.ObjectID) ([]PhotoView, error)
}

// clientService implements the ClientService interface.
type clientService struct {
	fetcher     *fetcher
	fileStorage storage.FileStorage
	cache       *cache.ReadThrough
	loc         *time.Location
	now         func() time.Time
	log         logrus.FieldLogger
}

// NewClientService creates a new instance of clientService.
func NewClientService(repos Repositories, fileStorage storage.FileStorage, rt *cache.ReadThrough, loc *time.Location, log logrus.FieldLogger) ClientService {
	if loc == nil {
		loc = time.UTC
	}
	log = log.WithField("component", "client")
	return &clientService{
		fetcher:     &fetcher{repos: repos, log: log},
		fileStorage: fileStorage,
		cache:       rt,
		loc:         loc,
		now:         time.Now,
		log:         log,
	}
}

func (s *clientService) repos() Repositories { return s.fetcher.repos }

func (s *clientService) today() time.Time {
	return compliance.StartOfDay(s.now(), s.loc)
}

// completed marks the coach overview stale after the client logged something.
func (s *clientService) completed(ctx context.Context, coachID primitive.ObjectID) {
	if !coachID.IsZero() {
		s.cache.Invalidate(ctx, CoachComplianceKey(coachID))
	}
}

func (s *clientService) Today(ctx context.Context, clientID primitive.ObjectID) (*TodayView, error) {
	now := s.now()
	w := compliance.TrailingDays(now, 1, s.loc)
	in := s.fetcher.load(ctx, clientID, w)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	view := &TodayView{
		Date:                   w.Start,
		MealGroups:             []compliance.MealGroup{},
		WorkoutDays:            []domain.WorkoutDay{},
		Supplements:            in.Supplements,
		CompletedMealIDs:       []primitive.ObjectID{},
		CompletedSupplementIDs: []primitive.ObjectID{},
		Metrics:                compliance.Daily(in, now, s.loc),
	}
	if view.Supplements == nil {
		view.Supplements = []domain.Supplement{}
	}
	if ms, ok := in.MealsOn(now, s.loc); ok {
		view.MealPlan = &ms.Plan
		if groups := compliance.GroupMeals(ms.Meals); groups != nil {
			view.MealGroups = groups
		}
	}
	if ws, ok := in.WorkoutOn(now, s.loc); ok {
		view.WorkoutPlan = &ws.Plan
		if ws.Plan.ScheduleMode == domain.ScheduleFlexible {
			if ws.Days != nil {
				view.WorkoutDays = ws.Days
			}
		} else if d, ok := compliance.ScheduledDay(&ws.Plan, ws.Days, now, s.loc); ok {
			view.WorkoutDays = []domain.WorkoutDay{d}
		}
	}
	for _, c := range in.MealCompletions {
		view.CompletedMealIDs = append(view.CompletedMealIDs, c.MealID)
	}
	for _, c := range in.SupplementCompletions {
		view.CompletedSupplementIDs = append(view.CompletedSupplementIDs, c.SupplementID)
	}
	if len(in.WorkoutCompletions) > 0 {
		wc := in.WorkoutCompletions[0]
		view.WorkoutCompletion = &wc
	}
	return view, nil
}

func (s *clientService) CompleteMeal(ctx context.Context, clientID, coachID, mealID primitive.ObjectID) error {
	meal, err := s.repos().MealPlans.GetMealByID(ctx, mealID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrMealNotFound
		}
		return err
	}
	plan, err := s.repos().MealPlans.GetByID(ctx, meal.MealPlanID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrMealNotFound
		}
		return err
	}
	if plan.ClientID != clientID || plan.IsTemplate {
		return ErrMealNotFound
	}

	err = s.repos().Completions.UpsertMealCompletion(ctx, &domain.MealCompletion{
		UserID:      clientID,
		MealID:      mealID,
		CompletedAt: s.today(),
	})
	if err != nil {
		return err
	}
	s.completed(ctx, coachID)
	return nil
}

func (s *clientService) CompleteWorkout(ctx context.Context, clientID, coachID primitive.ObjectID, groupIDs []string) (*domain.WorkoutCompletion, error) {
	now := s.now()
	plans, err := s.repos().Workouts.GetByClientID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	plan, ok := compliance.GoverningPlan(plans, now, s.loc)
	if !ok {
		return nil, ErrNoActivePlan
	}
	days, err := s.repos().Workouts.GetDays(ctx, plan.ID)
	if err != nil {
		return nil, err
	}

	completion := &domain.WorkoutCompletion{
		UserID:            clientID,
		WorkoutPlanID:     plan.ID,
		CompletedDate:     s.today(),
		CompletedGroupIDs: dedupe(groupIDs),
	}
	if d, ok := compliance.ScheduledDay(&plan, days, now, s.loc); ok {
		completion.WorkoutDayID = d.ID
	}
	if !completion.IsRestDay() {
		dayID, err := dayOfGroups(days, completion.CompletedGroupIDs)
		if err != nil {
			return nil, err
		}
		if completion.WorkoutDayID.IsZero() {
			completion.WorkoutDayID = dayID
		}
	}

	if err := s.repos().Completions.UpsertWorkoutCompletion(ctx, completion); err != nil {
		return nil, err
	}
	s.completed(ctx, coachID)
	return completion, nil
}

// dayOfGroups checks that every id names a group of the plan and returns the
// day holding the first one.
func dayOfGroups(days []domain.WorkoutDay, ids []string) (primitive.ObjectID, error) {
	owner := make(map[string]primitive.ObjectID)
	for _, d := range days {
		for _, g := range d.Groups {
			owner[g.ID] = d.ID
		}
	}
	var first primitive.ObjectID
	for i, id := range ids {
		dayID, ok := owner[id]
		if !ok {
			return primitive.NilObjectID, ErrUnknownExerciseGroup
		}
		if i == 0 {
			first = dayID
		}
	}
	return first, nil
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func (s *clientService) CompleteSupplement(ctx context.Context, clientID, coachID, supplementID primitive.ObjectID) error {
	sup, err := s.repos().Supplements.GetByID(ctx, supplementID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSupplementNotFound
		}
		return err
	}
	if sup.UserID != clientID {
		return ErrSupplementNotFound
	}

	err = s.repos().Completions.UpsertSupplementCompletion(ctx, &domain.SupplementCompletion{
		UserID:       clientID,
		SupplementID: supplementID,
		CompletedAt:  s.today(),
	})
	if err != nil {
		return err
	}
	s.completed(ctx, coachID)
	return nil
}

func (s *clientService) LogWeight(ctx context.Context, clientID, coachID primitive.ObjectID, weightKg float64, loggedAt *time.Time) (*domain.WeightLog, error) {
	if weightKg <= 0 || weightKg > 700 {
		return nil, ErrInvalidWeight
	}
	entry := &domain.WeightLog{UserID: clientID, WeightKg: weightKg, LoggedAt: s.now()}
	if loggedAt != nil && !loggedAt.IsZero() && !loggedAt.After(s.now()) {
		entry.LoggedAt = *loggedAt
	}
	id, err := s.repos().Weights.Create(ctx, entry)
	if err != nil {
		return nil, err
	}
	entry.ID = id
	s.completed(ctx, coachID)
	return entry, nil
}

// === Upload Process ===

// RequestPhotoUpload generates a pre-signed URL for a client to upload a progress photo.
func (s *clientService) RequestPhotoUpload(ctx context.Context, clientID primitive.ObjectID, fileName, contentType string) (*UploadURLResponse, error) {
	if err := storage.ValidateImageType(contentType); err != nil {
		return nil, err
	}
	objectKey := storage.PhotoObjectKey(clientID, fileName)

	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, ErrUploadURLError
	}
	return &UploadURLResponse{UploadURL: uploadURL, ObjectKey: objectKey}, nil
}

// ConfirmPhotoUpload records metadata once the client has PUT the file to
// the presigned URL.
func (s *clientService) ConfirmPhotoUpload(ctx context.Context, clientID, coachID primitive.ObjectID, objectKey, fileName string) (*domain.ProgressPhoto, error) {
	if !storage.OwnsObjectKey(clientID, objectKey) {
		return nil, ErrUploadNotOwned
	}

	meta, err := s.fileStorage.HeadObject(ctx, objectKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, ErrUploadNotFound
		}
		return nil, ErrUploadConfirmationFailed
	}
	if err := storage.ValidateImageType(meta.ContentType); err != nil {
		s.discard(ctx, objectKey)
		return nil, err
	}
	if meta.Size > storage.MaxPhotoSize {
		s.discard(ctx, objectKey)
		return nil, ErrPhotoTooLarge
	}

	if fileName == "" {
		fileName = path.Base(objectKey)
	}
	photo := &domain.ProgressPhoto{
		ClientID:    clientID,
		CoachID:     coachID,
		S3ObjectKey: objectKey,
		FileName:    path.Base(fileName),
		ContentType: meta.ContentType,
		Size:        meta.Size,
	}
	id, err := s.repos().Photos.Create(ctx, photo)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, repository.ErrDuplicate
		}
		s.log.WithError(err).WithField("key", objectKey).Error("failed to save photo metadata")
		return nil, ErrUploadConfirmationFailed
	}
	photo.ID = id
	return photo, nil
}

// discard removes a rejected upload, logging failures.
func (s *clientService) discard(ctx context.Context, objectKey string) {
	if err := s.fileStorage.DeleteObject(ctx, objectKey); err != nil {
		s.log.WithError(err).WithField("key", objectKey).Warn("failed to delete rejected upload")
	}
}

func (s *clientService) GetMyPhotos(ctx context.Context, clientID primitive.ObjectID) ([]PhotoView, error) {
	return photoViews(ctx, s.repos().Photos, s.fileStorage, clientID, s.log)
}

// photoViews lists a client's photos with presigned download URLs. A photo
// whose URL cannot be signed is returned without one.
func photoViews(ctx context.Context, photos repository.PhotoRepository, fs storage.FileStorage, clientID primitive.ObjectID, log logrus.FieldLogger) ([]PhotoView, error) {
	rows, err := photos.GetByClientID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	out := make([]PhotoView, 0, len(rows))
	for _, p := range rows {
		v := PhotoView{ProgressPhoto: p}
		url, err := fs.GeneratePresignedDownloadURL(ctx, p.S3ObjectKey, storage.DefaultPresignedURLExpiry)
		if err != nil {
			log.WithError(err).WithField("photoId", p.ID.Hex()).Warn(ErrDownloadURLError.Error())
		} else {
			v.URL = url
		}
		out = append(out, v)
	}
	return out, nil
}
