package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"sdgtrack/internal/engine"
	"sdgtrack/internal/models"
)

const snapshotTTL = 24 * time.Hour

// NodeSnapshot is the dashboard-facing projection of one resolved node.
type NodeSnapshot struct {
	BindingID uint     `json:"bindingId"`
	Name      string   `json:"name"`
	Value     *float64 `json:"value,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// ResultWriter persists the outcomes of a successful engine run: the
// last-computed-value columns and a redis snapshot for cheap dashboard
// reads. Both are write-only projections; the engine never reads them back,
// so a stale cache can never compound into later resolutions.
type ResultWriter struct {
	db  *gorm.DB
	rdb *redis.Client
}

func NewResultWriter(db *gorm.DB, rdb *redis.Client) *ResultWriter {
	return &ResultWriter{db: db, rdb: rdb}
}

// WriteHierarchy records computed values for every successful node in a
// goal-indicator result tree. The root updates goal_indicators; all other
// nodes update goal_sub_indicators. Failed nodes are left untouched.
func (w *ResultWriter) WriteHierarchy(ctx context.Context, result *engine.NodeResult) error {
	now := time.Now().UTC()
	for _, r := range result.Flatten() {
		if r.Err != nil {
			continue
		}
		updates := map[string]interface{}{
			"last_computed_value": r.Value,
			"last_computed_at":    now,
		}
		var err error
		if r.Node.Kind == engine.KindGoalIndicator {
			err = w.db.WithContext(ctx).Model(&models.GoalIndicator{}).
				Where("id = ?", r.Node.BindingID).Updates(updates).Error
		} else {
			err = w.db.WithContext(ctx).Model(&models.GoalSubIndicator{}).
				Where("id = ?", r.Node.BindingID).Updates(updates).Error
		}
		if err != nil {
			return fmt.Errorf("write computed value for binding %d: %w", r.Node.BindingID, err)
		}
	}
	w.writeSnapshot(ctx, fmt.Sprintf("progress:goal_indicator:%d", result.Node.BindingID), result)
	return nil
}

// WriteProjectIndicator records a project-level computed value.
func (w *ResultWriter) WriteProjectIndicator(ctx context.Context, result *engine.NodeResult) error {
	if result.Err != nil {
		return nil
	}
	now := time.Now().UTC()
	err := w.db.WithContext(ctx).Model(&models.ProjectIndicator{}).
		Where("id = ?", result.Node.BindingID).
		Updates(map[string]interface{}{
			"last_computed_value": result.Value,
			"last_computed_at":    now,
		}).Error
	if err != nil {
		return fmt.Errorf("write computed value for project indicator %d: %w", result.Node.BindingID, err)
	}
	w.writeSnapshot(ctx, fmt.Sprintf("progress:project_indicator:%d", result.Node.BindingID), result)
	return nil
}

func (w *ResultWriter) writeSnapshot(ctx context.Context, key string, result *engine.NodeResult) {
	if w.rdb == nil {
		return
	}
	flat := result.Flatten()
	snaps := make([]NodeSnapshot, len(flat))
	for i, r := range flat {
		snaps[i] = NodeSnapshot{BindingID: r.Node.BindingID, Name: r.Node.Name}
		if r.Err != nil {
			snaps[i].Error = r.Err.Error()
		} else {
			v := r.Value
			snaps[i].Value = &v
		}
	}
	raw, err := json.Marshal(snaps)
	if err != nil {
		log.Printf("[ResultWriter] snapshot marshal failed for %s: %v", key, err)
		return
	}
	// Snapshot is best-effort; the database remains the source of truth.
	if err := w.rdb.Set(ctx, key, raw, snapshotTTL).Err(); err != nil {
		log.Printf("[ResultWriter] snapshot write failed for %s: %v", key, err)
	}
}
