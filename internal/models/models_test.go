package models

import "testing"

func ptr(v uint) *uint { return &v }

func TestSubIndicator_ValidateParent(t *testing.T) {
	cases := []struct {
		name string
		s    SubIndicator
		ok   bool
	}{
		{"indicator parent", SubIndicator{ParentIndicatorID: ptr(1)}, true},
		{"sub-indicator parent", SubIndicator{ParentSubIndicatorID: ptr(2)}, true},
		{"no parent", SubIndicator{}, false},
		{"both parents", SubIndicator{ParentIndicatorID: ptr(1), ParentSubIndicatorID: ptr(2)}, false},
	}
	for _, c := range cases {
		err := c.s.ValidateParent()
		if c.ok && err != nil {
			t.Errorf("%s: unexpected error: %v", c.name, err)
		}
		if !c.ok && err == nil {
			t.Errorf("%s: expected ErrAmbiguousParent", c.name)
		}
	}
}

func TestRequiredDataValue_ValidateOwner(t *testing.T) {
	good := RequiredDataValue{GoalIndicatorID: ptr(1)}
	if err := good.ValidateOwner(); err != nil {
		t.Errorf("single owner rejected: %v", err)
	}
	none := RequiredDataValue{}
	if err := none.ValidateOwner(); err == nil {
		t.Error("ownerless observation accepted")
	}
	two := RequiredDataValue{GoalIndicatorID: ptr(1), ProjectIndicatorID: ptr(2)}
	if err := two.ValidateOwner(); err == nil {
		t.Error("dual-owner observation accepted")
	}
}

func TestComputationRule_ValidateOwner(t *testing.T) {
	good := ComputationRule{GoalSubIndicatorID: ptr(3), Formula: "a + b"}
	if err := good.ValidateOwner(); err != nil {
		t.Errorf("single owner rejected: %v", err)
	}
	bad := ComputationRule{Formula: "a + b"}
	if err := bad.ValidateOwner(); err == nil {
		t.Error("ownerless rule accepted")
	}
}
