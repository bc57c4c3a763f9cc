package service

import (
	"alcyxob/coach-tracker/internal/cache"
	"alcyxob/coach-tracker/internal/compliance"
	"alcyxob/coach-tracker/internal/domain"
	"alcyxob/coach-tracker/internal/repository"
	"alcyxob/coach-tracker/internal/storage"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrClientNotFound        = errors.New("client user not found")
	ErrClientNotRole         = errors.New("user found but is not a client")
	ErrClientAlreadyAssigned = errors.New("client is already assigned to a coach")
	ErrClientNotManaged      = errors.New("client is not managed by this coach")
	ErrPlanNotFound          = errors.New("plan not found")
	ErrPlanAccessDenied      = errors.New("access denied to this plan")
	ErrTemplateActivation    = errors.New("template plans cannot be activated")
	ErrInvalidPlan           = errors.New("invalid plan")
	ErrInvalidStatus         = errors.New("status must be active or inactive")
	ErrInvalidSupplement     = errors.New("supplement name is required")
)

// MealPlanInput is what a coach submits to create a meal plan.
type MealPlanInput struct {
	Name        string        `json:"name" binding:"required"`
	Description string        `json:"description"`
	IsTemplate  bool          `json:"isTemplate"`
	Meals       []domain.Meal `json:"meals"`
}

// WorkoutPlanInput is what a coach submits to create a workout plan.
type WorkoutPlanInput struct {
	Name         string              `json:"name" binding:"required"`
	Description  string              `json:"description"`
	ScheduleMode domain.ScheduleMode `json:"scheduleMode"`
	IsTemplate   bool                `json:"isTemplate"`
	Days         []domain.WorkoutDay `json:"days"`
}

// MealPlanDetail is a meal plan with its meals grouped into options.
type MealPlanDetail struct {
	domain.MealPlan
	Groups []compliance.MealGroup `json:"groups"`
}

// WorkoutPlanDetail is a workout plan with its days.
type WorkoutPlanDetail struct {
	domain.WorkoutPlan
	Days []domain.WorkoutDay `json:"days"`
}

type CoachService interface {
	// Client Management
	AddClientByEmail(ctx context.Context, coachID primitive.ObjectID, clientEmail string) (*domain.User, error)
	GetManagedClients(ctx context.Context, coachID primitive.ObjectID) ([]domain.User, error)
	SetClientStatus(ctx context.Context, coachID, clientID primitive.ObjectID, status domain.UserStatus) (*domain.User, error)

	// Plans
	CreateMealPlan(ctx context.Context, coachID, clientID primitive.ObjectID, in MealPlanInput) (*MealPlanDetail, error)
	GetMealPlans(ctx context.Context, coachID, clientID primitive.ObjectID) ([]MealPlanDetail, error)
	ActivateMealPlan(ctx context.Context, coachID, planID primitive.ObjectID) error
	CreateWorkoutPlan(ctx context.Context, coachID, clientID primitive.ObjectID, in WorkoutPlanInput) (*WorkoutPlanDetail, error)
	GetWorkoutPlans(ctx context.Context, coachID, clientID primitive.ObjectID) ([]WorkoutPlanDetail, error)
	ActivateWorkoutPlan(ctx context.Context, coachID, planID primitive.ObjectID) error

	// Supplements
	AddSupplement(ctx context.Context, coachID, clientID primitive.ObjectID, name, dosage string) (*domain.Supplement, error)
	GetSupplements(ctx context.Context, coachID, clientID primitive.ObjectID) ([]domain.Supplement, error)

	// Progress photos
	GetClientPhotos(ctx context.Context, coachID, clientID primitive.ObjectID) ([]PhotoView, error)
}

// coachService implements the CoachService interface.
type coachService struct {
	repos       Repositories
	fileStorage storage.FileStorage
	cache       *cache.ReadThrough
	now         func() time.Time
	log         logrus.FieldLogger
}

// NewCoachService creates a new instance of coachService.
func NewCoachService(repos Repositories, fileStorage storage.FileStorage, rt *cache.ReadThrough, log logrus.FieldLogger) CoachService {
	return &coachService{
		repos:       repos,
		fileStorage: fileStorage,
		cache:       rt,
		now:         time.Now,
		log:         log.WithField("component", "coach"),
	}
}

// managedClient loads clientID and checks that coachID manages it.
func managedClient(ctx context.Context, users repository.UserRepository, coachID, clientID primitive.ObjectID) (*domain.User, error) {
	client, err := users.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	if !client.IsClient() {
		return nil, ErrClientNotRole
	}
	if client.CoachID == nil || *client.CoachID != coachID {
		return nil, ErrClientNotManaged
	}
	return client, nil
}

// === Client Management ===

// AddClientByEmail finds a client by email and assigns them to the coach.
func (s *coachService) AddClientByEmail(ctx context.Context, coachID primitive.ObjectID, clientEmail string) (*domain.User, error) {
	clientEmail = strings.ToLower(strings.TrimSpace(clientEmail))
	if coachID.IsZero() || clientEmail == "" {
		return nil, errors.New("coach ID and client email are required")
	}

	client, err := s.repos.Users.GetByEmail(ctx, clientEmail)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	if !client.IsClient() {
		return nil, ErrClientNotRole
	}

	if client.CoachID != nil && !client.CoachID.IsZero() {
		if *client.CoachID == coachID {
			return client, nil // already on the roster
		}
		return nil, ErrClientAlreadyAssigned
	}

	if err := s.repos.Users.AddClientIDToCoach(ctx, coachID, client.ID); err != nil {
		return nil, err
	}
	if err := s.repos.Users.SetCoachForClient(ctx, client.ID, coachID); err != nil {
		// The coach's clientIds now lists a client without the back reference;
		// retrying the request repairs it.
		s.log.WithError(err).WithField("clientId", client.ID.Hex()).Error("failed to set coach on client")
		return nil, err
	}

	client.CoachID = &coachID
	s.invalidate(ctx, coachID, client.AuthID)
	return client, nil
}

// GetManagedClients retrieves the list of clients managed by the coach.
func (s *coachService) GetManagedClients(ctx context.Context, coachID primitive.ObjectID) ([]domain.User, error) {
	if coachID.IsZero() {
		return nil, errors.New("coach ID is required")
	}
	return s.repos.Users.GetClientsByCoachID(ctx, coachID)
}

func (s *coachService) SetClientStatus(ctx context.Context, coachID, clientID primitive.ObjectID, status domain.UserStatus) (*domain.User, error) {
	if status != domain.StatusActive && status != domain.StatusInactive {
		return nil, ErrInvalidStatus
	}
	client, err := managedClient(ctx, s.repos.Users, coachID, clientID)
	if err != nil {
		return nil, err
	}
	if err := s.repos.Users.SetStatus(ctx, clientID, status); err != nil {
		return nil, err
	}
	client.Status = status
	s.invalidate(ctx, coachID, client.AuthID)
	return client, nil
}

// invalidate drops the cached overview of coachID and, when given, the
// cached identity of the affected user.
func (s *coachService) invalidate(ctx context.Context, coachID primitive.ObjectID, authID string) {
	keys := []string{CoachComplianceKey(coachID)}
	if authID != "" {
		keys = append(keys, UserCacheKey(authID))
	}
	s.cache.Invalidate(ctx, keys...)
}

// === Plans ===

func validateMeals(meals []domain.Meal) error {
	for i, m := range meals {
		if strings.TrimSpace(m.Name) == "" {
			return fmt.Errorf("%w: meal %d has no name", ErrInvalidPlan, i)
		}
		if _, err := time.Parse("15:04", strings.TrimSpace(m.Time)); err != nil {
			return fmt.Errorf("%w: meal %q time must be HH:MM", ErrInvalidPlan, m.Name)
		}
	}
	return nil
}

func validateDays(mode domain.ScheduleMode, days []domain.WorkoutDay) error {
	if mode != domain.ScheduleFixed && mode != domain.ScheduleFlexible {
		return fmt.Errorf("%w: unknown schedule mode %q", ErrInvalidPlan, mode)
	}
	if len(days) > 7 {
		return fmt.Errorf("%w: at most 7 days", ErrInvalidPlan)
	}
	seen := make(map[int]bool, len(days))
	for _, d := range days {
		if d.DayOfWeek < 0 || d.DayOfWeek > 6 {
			return fmt.Errorf("%w: dayOfWeek %d out of range", ErrInvalidPlan, d.DayOfWeek)
		}
		if seen[d.DayOfWeek] {
			return fmt.Errorf("%w: duplicate dayOfWeek %d", ErrInvalidPlan, d.DayOfWeek)
		}
		seen[d.DayOfWeek] = true
		if !d.IsRest && len(d.Groups) == 0 {
			return fmt.Errorf("%w: training day %d has no exercise groups", ErrInvalidPlan, d.DayOfWeek)
		}
	}
	return nil
}

func (s *coachService) CreateMealPlan(ctx context.Context, coachID, clientID primitive.ObjectID, in MealPlanInput) (*MealPlanDetail, error) {
	if _, err := managedClient(ctx, s.repos.Users, coachID, clientID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidPlan)
	}
	if err := validateMeals(in.Meals); err != nil {
		return nil, err
	}

	plan := &domain.MealPlan{
		CoachID:     coachID,
		ClientID:    clientID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Activation:  domain.Activation{IsTemplate: in.IsTemplate},
	}
	meals := make([]domain.Meal, len(in.Meals))
	copy(meals, in.Meals)
	for i := range meals {
		if meals[i].Sequence == 0 {
			meals[i].Sequence = i + 1
		}
	}
	id, err := s.repos.MealPlans.Create(ctx, plan, meals)
	if err != nil {
		return nil, err
	}
	plan.ID = id
	return &MealPlanDetail{MealPlan: *plan, Groups: compliance.GroupMeals(meals)}, nil
}

func (s *coachService) GetMealPlans(ctx context.Context, coachID, clientID primitive.ObjectID) ([]MealPlanDetail, error) {
	if _, err := managedClient(ctx, s.repos.Users, coachID, clientID); err != nil {
		return nil, err
	}
	plans, err := s.repos.MealPlans.GetByClientID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	out := make([]MealPlanDetail, 0, len(plans))
	for _, p := range plans {
		meals, err := s.repos.MealPlans.GetMeals(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, MealPlanDetail{MealPlan: p, Groups: compliance.GroupMeals(meals)})
	}
	return out, nil
}

// activatable checks ownership of a plan about to be activated.
func activatable(coachID primitive.ObjectID, planCoach primitive.ObjectID, a domain.Activation) error {
	if planCoach != coachID {
		return ErrPlanAccessDenied
	}
	if a.IsTemplate {
		return ErrTemplateActivation
	}
	return nil
}

func (s *coachService) ActivateMealPlan(ctx context.Context, coachID, planID primitive.ObjectID) error {
	plan, err := s.repos.MealPlans.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPlanNotFound
		}
		return err
	}
	if err := activatable(coachID, plan.CoachID, plan.Activation); err != nil {
		return err
	}
	if plan.IsActive {
		// Restamping activatedAt would stop the plan governing today.
		return nil
	}
	if err := s.repos.MealPlans.Activate(ctx, planID, plan.ClientID, s.now()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPlanNotFound
		}
		return err
	}
	s.log.WithFields(logrus.Fields{"planId": planID.Hex(), "clientId": plan.ClientID.Hex()}).Info("meal plan activated")
	s.invalidate(ctx, coachID, "")
	return nil
}

func (s *coachService) CreateWorkoutPlan(ctx context.Context, coachID, clientID primitive.ObjectID, in WorkoutPlanInput) (*WorkoutPlanDetail, error) {
	if _, err := managedClient(ctx, s.repos.Users, coachID, clientID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidPlan)
	}
	if in.ScheduleMode == "" {
		in.ScheduleMode = domain.ScheduleFixed
	}
	if err := validateDays(in.ScheduleMode, in.Days); err != nil {
		return nil, err
	}

	plan := &domain.WorkoutPlan{
		CoachID:      coachID,
		ClientID:     clientID,
		Name:         strings.TrimSpace(in.Name),
		Description:  in.Description,
		ScheduleMode: in.ScheduleMode,
		Activation:   domain.Activation{IsTemplate: in.IsTemplate},
	}
	days := make([]domain.WorkoutDay, len(in.Days))
	copy(days, in.Days)
	id, err := s.repos.Workouts.Create(ctx, plan, days)
	if err != nil {
		return nil, err
	}
	plan.ID = id
	return &WorkoutPlanDetail{WorkoutPlan: *plan, Days: days}, nil
}

func (s *coachService) GetWorkoutPlans(ctx context.Context, coachID, clientID primitive.ObjectID) ([]WorkoutPlanDetail, error) {
	if _, err := managedClient(ctx, s.repos.Users, coachID, clientID); err != nil {
		return nil, err
	}
	plans, err := s.repos.Workouts.GetByClientID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	out := make([]WorkoutPlanDetail, 0, len(plans))
	for _, p := range plans {
		days, err := s.repos.Workouts.GetDays(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, WorkoutPlanDetail{WorkoutPlan: p, Days: days})
	}
	return out, nil
}

func (s *coachService) ActivateWorkoutPlan(ctx context.Context, coachID, planID primitive.ObjectID) error {
	plan, err := s.repos.Workouts.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPlanNotFound
		}
		return err
	}
	if err := activatable(coachID, plan.CoachID, plan.Activation); err != nil {
		return err
	}
	if plan.IsActive {
		// Restamping activatedAt would stop the plan governing today.
		return nil
	}
	if err := s.repos.Workouts.Activate(ctx, planID, plan.ClientID, s.now()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPlanNotFound
		}
		return err
	}
	s.log.WithFields(logrus.Fields{"planId": planID.Hex(), "clientId": plan.ClientID.Hex()}).Info("workout plan activated")
	s.invalidate(ctx, coachID, "")
	return nil
}

// === Supplements ===

func (s *coachService) AddSupplement(ctx context.Context, coachID, clientID primitive.ObjectID, name, dosage string) (*domain.Supplement, error) {
	if _, err := managedClient(ctx, s.repos.Users, coachID, clientID); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidSupplement
	}
	sup := &domain.Supplement{UserID: clientID, CoachID: coachID, Name: name, Dosage: strings.TrimSpace(dosage)}
	id, err := s.repos.Supplements.Create(ctx, sup)
	if err != nil {
		return nil, err
	}
	sup.ID = id
	s.invalidate(ctx, coachID, "")
	return sup, nil
}

func (s *coachService) GetSupplements(ctx context.Context, coachID, clientID primitive.ObjectID) ([]domain.Supplement, error) {
	if _, err := managedClient(ctx, s.repos.Users, coachID, clientID); err != nil {
		return nil, err
	}
	return s.repos.Supplements.GetByUserID(ctx, clientID)
}

// === Progress photos ===

func (s *coachService) GetClientPhotos(ctx context.Context, coachID, clientID primitive.ObjectID) ([]PhotoView, error) {
	if _, err := managedClient(ctx, s.repos.Users, coachID, clientID); err != nil {
		return nil, err
	}
	return photoViews(ctx, s.repos.Photos, s.fileStorage, clientID, s.log)
}
