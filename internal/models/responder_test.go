package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecomputeAllowedLevels(t *testing.T) {
	tests := []struct {
		name           string
		certifications []Certification
		want           []SOSLevel
	}{
		{
			name: "no certifications",
			want: []SOSLevel{SOSLevel1},
		},
		{
			name: "unverified certification grants nothing",
			certifications: []Certification{
				{Type: CertificationLifeSaving, Verified: false},
			},
			want: []SOSLevel{SOSLevel1},
		},
		{
			name: "first aid stays at base level",
			certifications: []Certification{
				{Type: CertificationFirstAid, Verified: true},
			},
			want: []SOSLevel{SOSLevel1},
		},
		{
			name: "medical professional reaches level 2",
			certifications: []Certification{
				{Type: CertificationMedicalProfessional, Verified: true},
			},
			want: []SOSLevel{SOSLevel1, SOSLevel2},
		},
		{
			name: "life saving reaches level 3",
			certifications: []Certification{
				{Type: CertificationLifeSaving, Verified: true},
			},
			want: []SOSLevel{SOSLevel1, SOSLevel2, SOSLevel3},
		},
		{
			name: "search and rescue reaches level 2",
			certifications: []Certification{
				{Type: CertificationSearchRescue, Verified: true},
			},
			want: []SOSLevel{SOSLevel1, SOSLevel2},
		},
		{
			name: "union of multiple certifications",
			certifications: []Certification{
				{Type: CertificationSearchRescue, Verified: true},
				{Type: CertificationLifeSaving, Verified: true},
			},
			want: []SOSLevel{SOSLevel1, SOSLevel2, SOSLevel3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			responder := &CivilianResponder{Certifications: tt.certifications}
			responder.RecomputeAllowedLevels()
			assert.Equal(t, tt.want, responder.AllowedSOSLevels)
		})
	}
}

func TestHasLevel(t *testing.T) {
	responder := &CivilianResponder{AllowedSOSLevels: []SOSLevel{SOSLevel1, SOSLevel2}}
	assert.True(t, responder.HasLevel(SOSLevel2))
	assert.False(t, responder.HasLevel(SOSLevel3))
}

func TestSignalIsOpen(t *testing.T) {
	signal := &SosSignal{Status: SignalStatusPending}
	assert.True(t, signal.IsOpen())

	signal.Status = SignalStatusResponding
	assert.True(t, signal.IsOpen())

	signal.Status = SignalStatusResolved
	assert.False(t, signal.IsOpen())

	signal.Status = SignalStatusPending
	signal.SafeConfirmation = &VictimSafeConfirmation{IsSafe: true}
	assert.False(t, signal.IsOpen(), "self-marked safe closes the signal regardless of status")
}

func TestResponseTimelineField(t *testing.T) {
	assert.Equal(t, "en_route_at", ResponseStatusEnRoute.TimelineField())
	assert.Equal(t, "arrived_at", ResponseStatusArrived.TimelineField())
	assert.Equal(t, "completed_at", ResponseStatusCompleted.TimelineField())
	assert.Equal(t, "", ResponseStatusAssigned.TimelineField())
}
