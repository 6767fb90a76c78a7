package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"sdgtrack/internal/engine"
	"sdgtrack/internal/models"
)

var (
	_ engine.DataProvider = (*GoalHierarchyProvider)(nil)
	_ engine.DataProvider = (*ProjectIndicatorProvider)(nil)
)

// GoalHierarchyProvider serves one goal-indicator hierarchy to the engine.
// The root binding is a goal_indicators row; every deeper node is a
// goal_sub_indicators row. goal_indicators and goal_sub_indicators have
// independent id sequences, so every query dispatches on the node's kind,
// never on the bare binding id.
type GoalHierarchyProvider struct {
	db   *gorm.DB
	root models.GoalIndicator
}

// NewGoalHierarchyProvider loads the root binding and returns the provider
// together with the engine node for the hierarchy root.
func NewGoalHierarchyProvider(db *gorm.DB, goalIndicatorID uint) (*GoalHierarchyProvider, engine.Node, error) {
	var gi models.GoalIndicator
	if err := db.Preload("Indicator").First(&gi, goalIndicatorID).Error; err != nil {
		return nil, engine.Node{}, fmt.Errorf("load goal indicator %d: %w", goalIndicatorID, err)
	}
	p := &GoalHierarchyProvider{db: db, root: gi}
	root := engine.Node{
		Kind:        engine.KindGoalIndicator,
		BindingID:   gi.ID,
		IndicatorID: gi.IndicatorID,
		Name:        gi.Indicator.Name,
	}
	return p, root, nil
}

func (p *GoalHierarchyProvider) DeclaredRequiredData(ctx context.Context, node engine.Node) ([]engine.RequiredDataField, error) {
	var rows []models.RequiredData
	q := p.db.WithContext(ctx).Model(&models.RequiredData{})
	if node.Kind == engine.KindGoalIndicator {
		q = q.Joins("JOIN goal_indicator_required_data j ON j.required_data_id = required_data.id").
			Where("j.goal_indicator_id = ?", node.BindingID)
	} else {
		q = q.Joins("JOIN goal_sub_indicator_required_data j ON j.required_data_id = required_data.id").
			Where("j.goal_sub_indicator_id = ?", node.BindingID)
	}
	if err := q.Order("required_data.id").Find(&rows).Error; err != nil {
		return nil, err
	}
	fields := make([]engine.RequiredDataField, len(rows))
	for i, r := range rows {
		fields[i] = engine.RequiredDataField{ID: r.ID, Name: r.Name}
	}
	return fields, nil
}

// LatestObservation returns the newest observation: latest measurement date
// first, ties broken by highest row id (most recent insertion wins).
func (p *GoalHierarchyProvider) LatestObservation(ctx context.Context, requiredDataID uint, node engine.Node) (*engine.Observation, error) {
	q := p.db.WithContext(ctx).Where("required_data_id = ?", requiredDataID)
	if node.Kind == engine.KindGoalIndicator {
		q = q.Where("goal_indicator_id = ?", node.BindingID)
	} else {
		q = q.Where("goal_sub_indicator_id = ?", node.BindingID)
	}
	var v models.RequiredDataValue
	err := q.Order("measured_at DESC, id DESC").First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &engine.Observation{Value: v.Value, MeasuredAt: time.Time(v.MeasuredAt)}, nil
}

func (p *GoalHierarchyProvider) ObservationSeries(ctx context.Context, requiredDataID uint, node engine.Node, from, to time.Time) ([]engine.Observation, error) {
	q := p.db.WithContext(ctx).Where("required_data_id = ?", requiredDataID).
		Where("measured_at >= ? AND measured_at <= ?", from, to)
	if node.Kind == engine.KindGoalIndicator {
		q = q.Where("goal_indicator_id = ?", node.BindingID)
	} else {
		q = q.Where("goal_sub_indicator_id = ?", node.BindingID)
	}
	var rows []models.RequiredDataValue
	if err := q.Order("measured_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	obs := make([]engine.Observation, len(rows))
	for i, v := range rows {
		obs[i] = engine.Observation{Value: v.Value, MeasuredAt: time.Time(v.MeasuredAt)}
	}
	return obs, nil
}

func (p *GoalHierarchyProvider) Rule(ctx context.Context, node engine.Node) (*engine.Rule, error) {
	q := p.db.WithContext(ctx)
	if node.Kind == engine.KindGoalIndicator {
		q = q.Where("goal_indicator_id = ?", node.BindingID)
	} else {
		q = q.Where("goal_sub_indicator_id = ?", node.BindingID)
	}
	var rule models.ComputationRule
	err := q.First(&rule).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &engine.Rule{Formula: rule.Formula, IncludeSubIndicators: rule.IncludeSubIndicators}, nil
}

// Children lists the direct child sub-indicators of a node that are bound
// under this goal indicator. Sub-indicators without a binding here have no
// rule or target in this goal's context and are not resolvable nodes.
func (p *GoalHierarchyProvider) Children(ctx context.Context, node engine.Node) ([]engine.Node, error) {
	parentClause := "sub_indicators.parent_sub_indicator_id = ?"
	if node.Kind == engine.KindGoalIndicator {
		parentClause = "sub_indicators.parent_indicator_id = ?"
	}
	type childRow struct {
		BindingID      uint
		SubIndicatorID uint
		Name           string
	}
	var rows []childRow
	err := p.db.WithContext(ctx).Table("goal_sub_indicators").
		Select("goal_sub_indicators.id AS binding_id, sub_indicators.id AS sub_indicator_id, sub_indicators.name AS name").
		Joins("JOIN sub_indicators ON sub_indicators.id = goal_sub_indicators.sub_indicator_id").
		Where("goal_sub_indicators.goal_indicator_id = ?", p.root.ID).
		Where(parentClause, node.IndicatorID).
		Order("goal_sub_indicators.id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	children := make([]engine.Node, len(rows))
	for i, r := range rows {
		children[i] = engine.Node{
			Kind:        engine.KindGoalSubIndicator,
			BindingID:   r.BindingID,
			IndicatorID: r.SubIndicatorID,
			Name:        r.Name,
		}
	}
	return children, nil
}

func (p *GoalHierarchyProvider) Target(ctx context.Context, node engine.Node) (*float64, error) {
	if node.Kind == engine.KindGoalIndicator {
		var gi models.GoalIndicator
		if err := p.db.WithContext(ctx).Select("target").First(&gi, node.BindingID).Error; err != nil {
			return nil, err
		}
		return gi.Target, nil
	}
	var gsi models.GoalSubIndicator
	if err := p.db.WithContext(ctx).Select("target").First(&gsi, node.BindingID).Error; err != nil {
		return nil, err
	}
	return gsi.Target, nil
}

// ProjectIndicatorProvider serves a single project-indicator binding.
// Project tracking is flat: nodes never have children.
type ProjectIndicatorProvider struct {
	db   *gorm.DB
	root models.ProjectIndicator
}

func NewProjectIndicatorProvider(db *gorm.DB, projectIndicatorID uint) (*ProjectIndicatorProvider, engine.Node, error) {
	var pi models.ProjectIndicator
	if err := db.Preload("Indicator").First(&pi, projectIndicatorID).Error; err != nil {
		return nil, engine.Node{}, fmt.Errorf("load project indicator %d: %w", projectIndicatorID, err)
	}
	p := &ProjectIndicatorProvider{db: db, root: pi}
	node := engine.Node{
		Kind:        engine.KindProjectIndicator,
		BindingID:   pi.ID,
		IndicatorID: pi.IndicatorID,
		Name:        pi.Indicator.Name,
	}
	return p, node, nil
}

func (p *ProjectIndicatorProvider) DeclaredRequiredData(ctx context.Context, node engine.Node) ([]engine.RequiredDataField, error) {
	var rows []models.RequiredData
	err := p.db.WithContext(ctx).Model(&models.RequiredData{}).
		Joins("JOIN project_indicator_required_data j ON j.required_data_id = required_data.id").
		Where("j.project_indicator_id = ?", node.BindingID).
		Order("required_data.id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	fields := make([]engine.RequiredDataField, len(rows))
	for i, r := range rows {
		fields[i] = engine.RequiredDataField{ID: r.ID, Name: r.Name}
	}
	return fields, nil
}

func (p *ProjectIndicatorProvider) LatestObservation(ctx context.Context, requiredDataID uint, node engine.Node) (*engine.Observation, error) {
	var v models.RequiredDataValue
	err := p.db.WithContext(ctx).
		Where("required_data_id = ? AND project_indicator_id = ?", requiredDataID, node.BindingID).
		Order("measured_at DESC, id DESC").
		First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &engine.Observation{Value: v.Value, MeasuredAt: time.Time(v.MeasuredAt)}, nil
}

func (p *ProjectIndicatorProvider) ObservationSeries(ctx context.Context, requiredDataID uint, node engine.Node, from, to time.Time) ([]engine.Observation, error) {
	var rows []models.RequiredDataValue
	err := p.db.WithContext(ctx).
		Where("required_data_id = ? AND project_indicator_id = ?", requiredDataID, node.BindingID).
		Where("measured_at >= ? AND measured_at <= ?", from, to).
		Order("measured_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	obs := make([]engine.Observation, len(rows))
	for i, v := range rows {
		obs[i] = engine.Observation{Value: v.Value, MeasuredAt: time.Time(v.MeasuredAt)}
	}
	return obs, nil
}

func (p *ProjectIndicatorProvider) Rule(ctx context.Context, node engine.Node) (*engine.Rule, error) {
	var rule models.ComputationRule
	err := p.db.WithContext(ctx).Where("project_indicator_id = ?", node.BindingID).First(&rule).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &engine.Rule{Formula: rule.Formula, IncludeSubIndicators: rule.IncludeSubIndicators}, nil
}

func (p *ProjectIndicatorProvider) Children(ctx context.Context, node engine.Node) ([]engine.Node, error) {
	return nil, nil
}

func (p *ProjectIndicatorProvider) Target(ctx context.Context, node engine.Node) (*float64, error) {
	var pi models.ProjectIndicator
	if err := p.db.WithContext(ctx).Select("target").First(&pi, node.BindingID).Error; err != nil {
		return nil, err
	}
	return pi.Target, nil
}
