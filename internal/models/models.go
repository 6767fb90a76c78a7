package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusPending  Status = "pending"
	StatusInactive Status = "inactive"
)

// Goal is a top-level SDG objective (e.g. "Goal 6: Clean Water").
type Goal struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Number      int    `gorm:"not null" json:"number"`
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`

	Indicators []GoalIndicator `json:"indicators,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DefaultGoals returns the 17 standard SDG goals, used to seed an
// empty database during initial setup.
func DefaultGoals() []Goal {
	titles := []string{
		"No Poverty",
		"Zero Hunger",
		"Good Health and Well-Being",
		"Quality Education",
		"Gender Equality",
		"Clean Water and Sanitation",
		"Affordable and Clean Energy",
		"Decent Work and Economic Growth",
		"Industry, Innovation and Infrastructure",
		"Reduced Inequalities",
		"Sustainable Cities and Communities",
		"Responsible Consumption and Production",
		"Climate Action",
		"Life Below Water",
		"Life on Land",
		"Peace, Justice and Strong Institutions",
		"Partnerships for the Goals",
	}
	goals := make([]Goal, len(titles))
	for i, title := range titles {
		goals[i] = Goal{Number: i + 1, Title: title}
	}
	return goals
}

// Project tracks indicators at project level, parallel to goals.
type Project struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:255;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`

	Indicators []ProjectIndicator `json:"indicators,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Indicator is a globally-defined measurable concept. It carries no targets
// itself; targets live on its per-goal bindings.
type Indicator struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:255;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Status      Status `gorm:"type:varchar(10);not null;default:'pending'" json:"status"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SubIndicator hangs under either an Indicator or another SubIndicator,
// never both. The two parent columns model a tagged union; ValidateParent
// enforces it at the boundary because the schema alone cannot.
type SubIndicator struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:255;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Status      Status `gorm:"type:varchar(10);not null;default:'pending'" json:"status"`

	ParentIndicatorID    *uint `gorm:"index" json:"parentIndicatorId,omitempty"`
	ParentSubIndicatorID *uint `gorm:"index" json:"parentSubIndicatorId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

var ErrAmbiguousParent = errors.New("sub-indicator must have exactly one parent")

func (s *SubIndicator) ValidateParent() error {
	if (s.ParentIndicatorID == nil) == (s.ParentSubIndicatorID == nil) {
		return ErrAmbiguousParent
	}
	return nil
}

// GoalIndicator binds an Indicator to a Goal with goal-specific targets.
// One indicator may be tracked under many goals, each with its own binding.
type GoalIndicator struct {
	ID          uint `gorm:"primaryKey" json:"id"`
	GoalID      uint `gorm:"index;not null" json:"goalId"`
	IndicatorID uint `gorm:"index;not null" json:"indicatorId"`

	Goal      Goal      `json:"-"`
	Indicator Indicator `json:"indicator"`

	Target       *float64 `json:"target,omitempty"`
	Baseline     *float64 `json:"baseline,omitempty"`
	BaselineYear *int     `json:"baselineYear,omitempty"`

	// LastComputedValue is a write-only projection refreshed after a
	// successful engine run. Resolutions never read it back.
	LastComputedValue *float64   `json:"lastComputedValue,omitempty"`
	LastComputedAt    *time.Time `json:"lastComputedAt,omitempty"`

	RequiredData []RequiredData `gorm:"many2many:goal_indicator_required_data;" json:"requiredData,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// GoalSubIndicator mirrors GoalIndicator one level down: a sub-indicator
// only has numeric targets in the context of a specific goal-indicator.
type GoalSubIndicator struct {
	ID              uint `gorm:"primaryKey" json:"id"`
	GoalIndicatorID uint `gorm:"index;not null" json:"goalIndicatorId"`
	SubIndicatorID  uint `gorm:"index;not null" json:"subIndicatorId"`

	SubIndicator SubIndicator `json:"subIndicator"`

	Target       *float64 `json:"target,omitempty"`
	Baseline     *float64 `json:"baseline,omitempty"`
	BaselineYear *int     `json:"baselineYear,omitempty"`

	LastComputedValue *float64   `json:"lastComputedValue,omitempty"`
	LastComputedAt    *time.Time `json:"lastComputedAt,omitempty"`

	RequiredData []RequiredData `gorm:"many2many:goal_sub_indicator_required_data;" json:"requiredData,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ProjectIndicator binds an Indicator to a Project. Structurally identical
// to GoalIndicator; project tracking is flat (no sub-indicator bindings).
type ProjectIndicator struct {
	ID          uint `gorm:"primaryKey" json:"id"`
	ProjectID   uint `gorm:"index;not null" json:"projectId"`
	IndicatorID uint `gorm:"index;not null" json:"indicatorId"`

	Indicator Indicator `json:"indicator"`

	Target       *float64 `json:"target,omitempty"`
	Baseline     *float64 `json:"baseline,omitempty"`
	BaselineYear *int     `json:"baselineYear,omitempty"`

	LastComputedValue *float64   `json:"lastComputedValue,omitempty"`
	LastComputedAt    *time.Time `json:"lastComputedAt,omitempty"`

	RequiredData []RequiredData `gorm:"many2many:project_indicator_required_data;" json:"requiredData,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RequiredData is a named raw data field an indicator declares it needs,
// e.g. "Number of households surveyed".
type RequiredData struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:255;not null" json:"name"`
	Unit string `gorm:"size:64" json:"unit,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName pins the table name; gorm's pluralizer mangles "data".
func (RequiredData) TableName() string { return "required_data" }

// RequiredDataValue is a single append-only observation. Exactly one of the
// three owning-binding columns is set; ValidateOwner enforces the sum type
// at the boundary.
type RequiredDataValue struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	RecordUID      uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"recordUid"`
	RequiredDataID uint      `gorm:"index;not null" json:"requiredDataId"`

	GoalIndicatorID    *uint `gorm:"index" json:"goalIndicatorId,omitempty"`
	GoalSubIndicatorID *uint `gorm:"index" json:"goalSubIndicatorId,omitempty"`
	ProjectIndicatorID *uint `gorm:"index" json:"projectIndicatorId,omitempty"`

	Value      float64        `gorm:"not null" json:"value"`
	MeasuredAt datatypes.Date `gorm:"index;not null" json:"measuredAt"`
	Location   string         `gorm:"size:255" json:"location,omitempty"`
	Note       string         `gorm:"type:text" json:"note,omitempty"`
	AuthorID   *uint          `json:"authorId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

var ErrAmbiguousOwner = errors.New("observation must belong to exactly one binding")

func (v *RequiredDataValue) ValidateOwner() error {
	owners := 0
	if v.GoalIndicatorID != nil {
		owners++
	}
	if v.GoalSubIndicatorID != nil {
		owners++
	}
	if v.ProjectIndicatorID != nil {
		owners++
	}
	if owners != 1 {
		return ErrAmbiguousOwner
	}
	return nil
}

// ComputationRule belongs to exactly one binding: the stored formula over
// normalized variable names plus the include-descendants flag.
type ComputationRule struct {
	ID uint `gorm:"primaryKey" json:"id"`

	GoalIndicatorID    *uint `gorm:"uniqueIndex" json:"goalIndicatorId,omitempty"`
	GoalSubIndicatorID *uint `gorm:"uniqueIndex" json:"goalSubIndicatorId,omitempty"`
	ProjectIndicatorID *uint `gorm:"uniqueIndex" json:"projectIndicatorId,omitempty"`

	Formula              string `gorm:"type:text;not null" json:"formula"`
	IncludeSubIndicators bool   `gorm:"not null;default:false" json:"includeSubIndicators"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (r *ComputationRule) ValidateOwner() error {
	owners := 0
	if r.GoalIndicatorID != nil {
		owners++
	}
	if r.GoalSubIndicatorID != nil {
		owners++
	}
	if r.ProjectIndicatorID != nil {
		owners++
	}
	if owners != 1 {
		return ErrAmbiguousOwner
	}
	return nil
}
