package service

import (
	"alcyxob/coach-tracker/internal/compliance"
	"alcyxob/coach-tracker/internal/domain"
	"alcyxob/coach-tracker/internal/metrics"
	"alcyxob/coach-tracker/internal/repository"
	"context"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

// Repositories bundles the stores the services read from.
type Repositories struct {
	Users       repository.UserRepository
	MealPlans   repository.MealPlanRepository
	Workouts    repository.WorkoutPlanRepository
	Completions repository.CompletionRepository
	Supplements repository.SupplementRepository
	Weights     repository.WeightRepository
	Messages    repository.MessageRepository
	Photos      repository.PhotoRepository
}

// fetcher loads everything the aggregator needs for one client. A failed
// read is logged and leaves that collection empty; the client is still scored.
type fetcher struct {
	repos Repositories
	log   logrus.FieldLogger
}

// load fetches rows in span together with every plan that governs at least
// one day of it, so each day can be scored against its own plan.
func (f *fetcher) load(ctx context.Context, clientID primitive.ObjectID, span compliance.Window) compliance.ClientInput {
	in := compliance.ClientInput{ClientID: clientID}
	log := f.log.WithField("clientId", clientID.Hex())
	from, to := span.Start, span.End

	// Each goroutine writes to its own fields of in; Wait orders the writes
	// before the return.
	var g errgroup.Group
	g.Go(func() error {
		plans, err := f.repos.Workouts.GetByClientID(ctx, clientID)
		if f.failed(log, "workout_plans", err) {
			return nil
		}
		for _, plan := range plans {
			if !compliance.EligibleWithin(plan.ActivationState(), span) {
				continue
			}
			days, err := f.repos.Workouts.GetDays(ctx, plan.ID)
			if f.failed(log, "workout_days", err) {
				days = nil
			}
			in.WorkoutPlans = append(in.WorkoutPlans, compliance.WorkoutSchedule{Plan: plan, Days: days})
		}
		return nil
	})
	g.Go(func() error {
		plans, err := f.repos.MealPlans.GetByClientID(ctx, clientID)
		if f.failed(log, "meal_plans", err) {
			return nil
		}
		for _, plan := range plans {
			if !compliance.EligibleWithin(plan.ActivationState(), span) {
				continue
			}
			meals, err := f.repos.MealPlans.GetMeals(ctx, plan.ID)
			if f.failed(log, "meals", err) {
				meals = nil
			}
			in.MealPlans = append(in.MealPlans, compliance.MealSchedule{Plan: plan, Meals: meals})
		}
		return nil
	})
	g.Go(func() error {
		rows, err := f.repos.Completions.GetWorkoutCompletions(ctx, clientID, from, to)
		if !f.failed(log, "workout_completions", err) {
			in.WorkoutCompletions = rows
		}
		return nil
	})
	g.Go(func() error {
		rows, err := f.repos.Completions.GetMealCompletions(ctx, clientID, from, to)
		if !f.failed(log, "meal_completions", err) {
			in.MealCompletions = rows
		}
		return nil
	})
	g.Go(func() error {
		rows, err := f.repos.Supplements.GetByUserID(ctx, clientID)
		if !f.failed(log, "supplements", err) {
			in.Supplements = rows
		}
		return nil
	})
	g.Go(func() error {
		rows, err := f.repos.Completions.GetSupplementCompletions(ctx, clientID, from, to)
		if !f.failed(log, "supplement_completions", err) {
			in.SupplementCompletions = rows
		}
		return nil
	})
	g.Go(func() error {
		rows, err := f.repos.Weights.GetByUserID(ctx, clientID, from, to)
		if !f.failed(log, "weight_logs", err) {
			in.WeightLogs = rows
		}
		return nil
	})
	_ = g.Wait()
	return in
}

func (f *fetcher) failed(log logrus.FieldLogger, entity string, err error) bool {
	if err == nil {
		return false
	}
	metrics.RecordFetchFailure(entity)
	log.WithError(err).WithField("entity", entity).Warn("fetch failed, treating as empty")
	return true
}

// activeClients drops clients the coach has deactivated.
func activeClients(users []domain.User) []domain.User {
	out := make([]domain.User, 0, len(users))
	for _, u := range users {
		if u.IsActive() {
			out = append(out, u)
		}
	}
	return out
}
