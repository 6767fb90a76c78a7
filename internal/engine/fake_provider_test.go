package engine

import (
	"context"
	"sync/atomic"
	"time"
)

type obsKey struct {
	fieldID   uint
	bindingID uint
}

// fakeProvider is an in-memory DataProvider for engine tests. It lives in
// a single id namespace, so everything is keyed by binding id.
type fakeProvider struct {
	fields   map[uint][]RequiredDataField
	latest   map[obsKey]*Observation
	series   map[obsKey][]Observation
	rules    map[uint]*Rule
	children map[uint][]Node // keyed by parent BindingID
	targets  map[uint]*float64

	fetches atomic.Int64 // LatestObservation call count

	// callDelay slows every provider call down so overlapping calls are
	// observable; inFlight/peak record the overlap.
	callDelay time.Duration
	inFlight  atomic.Int64
	peak      atomic.Int64
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		fields:   map[uint][]RequiredDataField{},
		latest:   map[obsKey]*Observation{},
		series:   map[obsKey][]Observation{},
		rules:    map[uint]*Rule{},
		children: map[uint][]Node{},
		targets:  map[uint]*float64{},
	}
}

// addField declares a named field on a binding with a latest observation.
func (f *fakeProvider) addField(bindingID, fieldID uint, name string, value float64) {
	f.fields[bindingID] = append(f.fields[bindingID], RequiredDataField{ID: fieldID, Name: name})
	f.latest[obsKey{fieldID, bindingID}] = &Observation{Value: value, MeasuredAt: time.Now()}
}

// addEmptyField declares a field with zero observations.
func (f *fakeProvider) addEmptyField(bindingID, fieldID uint, name string) {
	f.fields[bindingID] = append(f.fields[bindingID], RequiredDataField{ID: fieldID, Name: name})
}

func (f *fakeProvider) enter() {
	cur := f.inFlight.Add(1)
	for {
		peak := f.peak.Load()
		if cur <= peak || f.peak.CompareAndSwap(peak, cur) {
			break
		}
	}
	if f.callDelay > 0 {
		time.Sleep(f.callDelay)
	}
}

func (f *fakeProvider) exit() {
	f.inFlight.Add(-1)
}

func (f *fakeProvider) DeclaredRequiredData(_ context.Context, node Node) ([]RequiredDataField, error) {
	f.enter()
	defer f.exit()
	return f.fields[node.BindingID], nil
}

func (f *fakeProvider) LatestObservation(_ context.Context, requiredDataID uint, node Node) (*Observation, error) {
	f.enter()
	defer f.exit()
	f.fetches.Add(1)
	return f.latest[obsKey{requiredDataID, node.BindingID}], nil
}

func (f *fakeProvider) ObservationSeries(_ context.Context, requiredDataID uint, node Node, from, to time.Time) ([]Observation, error) {
	f.enter()
	defer f.exit()
	var out []Observation
	for _, o := range f.series[obsKey{requiredDataID, node.BindingID}] {
		if !o.MeasuredAt.Before(from) && !o.MeasuredAt.After(to) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeProvider) Rule(_ context.Context, node Node) (*Rule, error) {
	f.enter()
	defer f.exit()
	return f.rules[node.BindingID], nil
}

func (f *fakeProvider) Children(_ context.Context, node Node) ([]Node, error) {
	f.enter()
	defer f.exit()
	return f.children[node.BindingID], nil
}

func (f *fakeProvider) Target(_ context.Context, node Node) (*float64, error) {
	f.enter()
	defer f.exit()
	return f.targets[node.BindingID], nil
}
