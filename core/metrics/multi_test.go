package metrics

import (
	"errors"
	"testing"
)

type recordSink struct {
	admissions int
	trips      int
	fail       bool
}

func (r *recordSink) RecordAdmission(AdmissionResult) error {
	r.admissions++
	if r.fail {
		return errors.New("boom")
	}
	return nil
}

func (r *recordSink) RecordTrip(TripEvent) error {
	r.trips++
	return nil
}

// admissionOnly does not implement any optional recorder.
type admissionOnly struct{ count int }

func (a *admissionOnly) RecordAdmission(AdmissionResult) error {
	a.count++
	return nil
}

func TestMultiSinkForwards(t *testing.T) {
	s1 := &recordSink{}
	s2 := &admissionOnly{}
	m := NewMultiSink(s1, s2)
	if err := m.RecordAdmission(AdmissionResult{RequestID: "r"}); err != nil {
		t.Fatalf("record admission: %v", err)
	}
	if err := m.RecordTrip(TripEvent{TripID: "t"}); err != nil {
		t.Fatalf("record trip: %v", err)
	}
	if err := m.RecordVehicleState(VehicleStateEvent{}); err != nil {
		t.Fatalf("record state: %v", err)
	}
	if s1.admissions != 1 || s1.trips != 1 || s2.count != 1 {
		t.Fatalf("records not forwarded: %+v %+v", s1, s2)
	}
}

func TestMultiSinkCallsAllOnError(t *testing.T) {
	bad := &recordSink{fail: true}
	good := &recordSink{}
	err := NewMultiSink(bad, good).RecordAdmission(AdmissionResult{})
	if err == nil {
		t.Fatalf("expected error")
	}
	if good.admissions != 1 {
		t.Fatalf("second sink skipped after error")
	}
}

type closingSink struct {
	recordSink
	closed bool
}

func (c *closingSink) Close() { c.closed = true }

func TestMultiSinkClose(t *testing.T) {
	c := &closingSink{}
	m := NewMultiSink(&recordSink{}, c)
	m.Close()
	if !c.closed {
		t.Fatal("expected sink closed")
	}
}
