package tracker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"sdgtrack/internal/engine"
	"sdgtrack/internal/models"
	"sdgtrack/internal/store"
)

// Status strings shown by the dashboard. The engine's error taxonomy maps
// onto these so "not yet configured" never reads as a computation failure
// and a corrupt hierarchy never reads as a bad formula.
const (
	StatusOK               = "ok"
	StatusNotConfigured    = "not_configured"
	StatusNoTarget         = "no_target"
	StatusCycleDetected    = "cycle_detected"
	StatusComputationError = "computation_error"
)

// IndicatorProgress is one indicator's dashboard row.
type IndicatorProgress struct {
	BindingID uint                    `json:"bindingId"`
	Name      string                  `json:"name"`
	Value     *float64                `json:"value,omitempty"`
	Status    string                  `json:"status"`
	Detail    string                  `json:"detail,omitempty"`
	Progress  engine.PercentageResult `json:"progress"`
}

// GoalProgress is a goal's overall dashboard view.
type GoalProgress struct {
	GoalID     uint                `json:"goalId"`
	Number     int                 `json:"number"`
	Title      string              `json:"title"`
	Overall    float64             `json:"overall"`
	Indicators []IndicatorProgress `json:"indicators"`
}

// ProjectProgress mirrors GoalProgress for project-level tracking.
type ProjectProgress struct {
	ProjectID  uint                `json:"projectId"`
	Name       string              `json:"name"`
	Overall    float64             `json:"overall"`
	Indicators []IndicatorProgress `json:"indicators"`
}

// TreeNode is the serialized form of one resolved hierarchy node.
type TreeNode struct {
	BindingID uint                    `json:"bindingId"`
	Name      string                  `json:"name"`
	Value     *float64                `json:"value,omitempty"`
	Status    string                  `json:"status"`
	Detail    string                  `json:"detail,omitempty"`
	Progress  engine.PercentageResult `json:"progress"`
	Children  []*TreeNode             `json:"children,omitempty"`
}

// Trend is a binding's temporal series plus its derived summary.
type Trend struct {
	BindingID uint                 `json:"bindingId"`
	FieldName string               `json:"fieldName"`
	Series    []engine.PeriodPoint `json:"series"`
	Summary   engine.SeriesSummary `json:"summary"`
}

// Service orchestrates store, engine, and result writing. Everything is
// computed fresh from raw observations; the cached columns and redis
// snapshots it writes afterwards are projections only.
type Service struct {
	db             *gorm.DB
	writer         *store.ResultWriter
	maxConcurrency int
}

func NewService(db *gorm.DB, rdb *redis.Client, maxConcurrency int) *Service {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &Service{
		db:             db,
		writer:         store.NewResultWriter(db, rdb),
		maxConcurrency: maxConcurrency,
	}
}

func statusOf(err error) (string, string) {
	var cycle *engine.CycleDetectedError
	switch {
	case err == nil:
		return StatusOK, ""
	case errors.Is(err, engine.ErrNoRuleDefined):
		return StatusNotConfigured, ""
	case errors.As(err, &cycle):
		return StatusCycleDetected, err.Error()
	default:
		return StatusComputationError, err.Error()
	}
}

// StreamGoalProgress resolves every indicator bound to a goal, invoking
// emit as each one settles, and returns the goal's overall percentage.
// Top-level indicators are independent and resolve concurrently; emit may
// therefore be called from multiple goroutines, but never after return.
func (s *Service) StreamGoalProgress(ctx context.Context, goalID uint, emit func(IndicatorProgress)) (float64, error) {
	var bindings []models.GoalIndicator
	if err := s.db.WithContext(ctx).Where("goal_id = ?", goalID).Find(&bindings).Error; err != nil {
		return 0, fmt.Errorf("load goal indicators: %w", err)
	}

	results := make([]engine.PercentageResult, len(bindings))
	sem := make(chan struct{}, s.maxConcurrency)
	var wg sync.WaitGroup
	for i, b := range bindings {
		wg.Add(1)
		go func(i int, bindingID uint) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			progress := s.resolveGoalIndicator(ctx, bindingID)
			results[i] = progress.Progress
			if emit != nil {
				emit(progress)
			}
		}(i, b.ID)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return engine.ComputeGroupProgress(results), nil
}

// GoalProgress resolves a whole goal and returns the assembled dashboard
// view, indicators ordered by binding id.
func (s *Service) GoalProgress(ctx context.Context, goalID uint) (*GoalProgress, error) {
	var goal models.Goal
	if err := s.db.WithContext(ctx).First(&goal, goalID).Error; err != nil {
		return nil, fmt.Errorf("load goal %d: %w", goalID, err)
	}

	var mu sync.Mutex
	var rows []IndicatorProgress
	overall, err := s.StreamGoalProgress(ctx, goalID, func(p IndicatorProgress) {
		mu.Lock()
		rows = append(rows, p)
		mu.Unlock()
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].BindingID < rows[j].BindingID })

	return &GoalProgress{
		GoalID:     goal.ID,
		Number:     goal.Number,
		Title:      goal.Title,
		Overall:    overall,
		Indicators: rows,
	}, nil
}

// resolveGoalIndicator resolves one indicator hierarchy and converts the
// root outcome into a dashboard row. Failures stay per-indicator.
func (s *Service) resolveGoalIndicator(ctx context.Context, goalIndicatorID uint) IndicatorProgress {
	provider, root, err := store.NewGoalHierarchyProvider(s.db, goalIndicatorID)
	if err != nil {
		status, detail := statusOf(err)
		return IndicatorProgress{BindingID: goalIndicatorID, Status: status, Detail: detail}
	}

	agg := engine.NewAggregator(provider, s.maxConcurrency)
	result, err := agg.ResolveHierarchy(ctx, root)
	if err != nil {
		status, detail := statusOf(err)
		return IndicatorProgress{BindingID: goalIndicatorID, Name: root.Name, Status: status, Detail: detail}
	}

	row := IndicatorProgress{BindingID: goalIndicatorID, Name: root.Name}
	row.Status, row.Detail = statusOf(result.Err)
	if result.Err != nil {
		// Failed indicators contribute 0% to the goal average.
		return row
	}

	value := result.Value
	row.Value = &value
	target, terr := provider.Target(ctx, root)
	if terr != nil {
		row.Status, row.Detail = statusOf(terr)
		return row
	}
	row.Progress = engine.ComputeProgress(value, target)
	if row.Progress.NoTarget {
		row.Status = StatusNoTarget
	}

	if werr := s.writer.WriteHierarchy(ctx, result); werr != nil {
		log.Printf("[Tracker] cache write failed for goal indicator %d: %v", goalIndicatorID, werr)
	}
	return row
}

// checkGoalBinding verifies the goal-indicator binding actually belongs to
// the goal named in the request, so one goal's URL space cannot serve
// another goal's data.
func (s *Service) checkGoalBinding(ctx context.Context, goalID, goalIndicatorID uint) error {
	var binding models.GoalIndicator
	if err := s.db.WithContext(ctx).
		Where("id = ? AND goal_id = ?", goalIndicatorID, goalID).
		First(&binding).Error; err != nil {
		return fmt.Errorf("load goal indicator %d for goal %d: %w", goalIndicatorID, goalID, err)
	}
	return nil
}

// IndicatorTree resolves one goal-indicator hierarchy and returns the full
// result tree for drill-down display.
func (s *Service) IndicatorTree(ctx context.Context, goalID, goalIndicatorID uint) (*TreeNode, error) {
	if err := s.checkGoalBinding(ctx, goalID, goalIndicatorID); err != nil {
		return nil, err
	}
	provider, root, err := store.NewGoalHierarchyProvider(s.db, goalIndicatorID)
	if err != nil {
		return nil, err
	}
	agg := engine.NewAggregator(provider, s.maxConcurrency)
	result, err := agg.ResolveHierarchy(ctx, root)
	if err != nil {
		return nil, err
	}
	if werr := s.writer.WriteHierarchy(ctx, result); werr != nil {
		log.Printf("[Tracker] cache write failed for goal indicator %d: %v", goalIndicatorID, werr)
	}
	return s.buildTree(ctx, provider, result), nil
}

func (s *Service) buildTree(ctx context.Context, provider *store.GoalHierarchyProvider, result *engine.NodeResult) *TreeNode {
	node := &TreeNode{BindingID: result.Node.BindingID, Name: result.Node.Name}
	node.Status, node.Detail = statusOf(result.Err)
	if result.Err == nil {
		value := result.Value
		node.Value = &value
		if target, err := provider.Target(ctx, result.Node); err == nil {
			node.Progress = engine.ComputeProgress(value, target)
			if node.Progress.NoTarget {
				node.Status = StatusNoTarget
			}
		}
	}
	for _, c := range result.Children {
		node.Children = append(node.Children, s.buildTree(ctx, provider, c))
	}
	return node
}

// GoalIndicatorTrend buckets the binding's primary (first declared)
// required-data observations into a temporal series against the binding's
// target.
func (s *Service) GoalIndicatorTrend(ctx context.Context, goalID, goalIndicatorID uint, g engine.Granularity, from, to time.Time) (*Trend, error) {
	if err := s.checkGoalBinding(ctx, goalID, goalIndicatorID); err != nil {
		return nil, err
	}
	provider, root, err := store.NewGoalHierarchyProvider(s.db, goalIndicatorID)
	if err != nil {
		return nil, err
	}
	fields, err := provider.DeclaredRequiredData(ctx, root)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, engine.ErrNoTemporalData
	}
	primary := fields[0]

	obs, err := provider.ObservationSeries(ctx, primary.ID, root, from, to)
	if err != nil {
		return nil, err
	}
	target, err := provider.Target(ctx, root)
	if err != nil {
		return nil, err
	}
	series, err := engine.ComputeTemporalSeries(obs, target, g)
	if err != nil {
		return nil, err
	}
	summary, err := engine.Summarize(series)
	if err != nil {
		return nil, err
	}
	return &Trend{
		BindingID: goalIndicatorID,
		FieldName: primary.Name,
		Series:    series,
		Summary:   summary,
	}, nil
}

// ProjectProgress resolves every indicator bound to a project. Project
// indicators are flat, so each resolves through the resolver directly.
func (s *Service) ProjectProgress(ctx context.Context, projectID uint) (*ProjectProgress, error) {
	var project models.Project
	if err := s.db.WithContext(ctx).First(&project, projectID).Error; err != nil {
		return nil, fmt.Errorf("load project %d: %w", projectID, err)
	}
	var bindings []models.ProjectIndicator
	if err := s.db.WithContext(ctx).Where("project_id = ?", projectID).Order("id").Find(&bindings).Error; err != nil {
		return nil, fmt.Errorf("load project indicators: %w", err)
	}

	rows := make([]IndicatorProgress, len(bindings))
	pcts := make([]engine.PercentageResult, len(bindings))
	sem := make(chan struct{}, s.maxConcurrency)
	var wg sync.WaitGroup
	for i, b := range bindings {
		wg.Add(1)
		go func(i int, bindingID uint) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			rows[i] = s.resolveProjectIndicator(ctx, bindingID)
			pcts[i] = rows[i].Progress
		}(i, b.ID)
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &ProjectProgress{
		ProjectID:  project.ID,
		Name:       project.Name,
		Overall:    engine.ComputeGroupProgress(pcts),
		Indicators: rows,
	}, nil
}

func (s *Service) resolveProjectIndicator(ctx context.Context, projectIndicatorID uint) IndicatorProgress {
	provider, node, err := store.NewProjectIndicatorProvider(s.db, projectIndicatorID)
	if err != nil {
		status, detail := statusOf(err)
		return IndicatorProgress{BindingID: projectIndicatorID, Status: status, Detail: detail}
	}

	resolver := engine.NewResolver(provider)
	value, err := resolver.ResolveNode(ctx, node, nil)
	row := IndicatorProgress{BindingID: projectIndicatorID, Name: node.Name}
	row.Status, row.Detail = statusOf(err)
	if err != nil {
		return row
	}
	row.Value = &value

	target, terr := provider.Target(ctx, node)
	if terr != nil {
		row.Status, row.Detail = statusOf(terr)
		return row
	}
	row.Progress = engine.ComputeProgress(value, target)
	if row.Progress.NoTarget {
		row.Status = StatusNoTarget
	}

	result := &engine.NodeResult{Node: node, Value: value}
	if werr := s.writer.WriteProjectIndicator(ctx, result); werr != nil {
		log.Printf("[Tracker] cache write failed for project indicator %d: %v", projectIndicatorID, werr)
	}
	return row
}
