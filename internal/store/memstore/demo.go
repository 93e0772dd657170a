package memstore

import (
	"fmt"
	"time"

	"github.com/jekabolt/grbpwr-reports/internal/entity"
)

var (
	demoStages = []entity.PipelineStage{
		{Id: 1, Name: "New", Sequence: 1},
		{Id: 2, Name: "Qualified", Sequence: 2},
		{Id: 3, Name: "Proposition", Sequence: 3},
		{Id: 4, Name: "Won", Sequence: 4, IsWon: true},
	}
	demoUsers = []entity.Reference{
		{ID: 1, Name: "Mitchell Admin"},
		{ID: 2, Name: "Marc Demo"},
	}
	demoCountries = []entity.Reference{
		{ID: 1, Name: "Belgium"},
		{ID: 2, Name: "United States"},
		{ID: 3, Name: "Latvia"},
	}
	demoLostReasons = []entity.Reference{
		{ID: 1, Name: "Too expensive"},
		{ID: 2, Name: "We don't have people/skills"},
		{ID: 3, Name: "Not enough stock"},
	}
	demoActivityTypes = []entity.Reference{
		{ID: 1, Name: "Email"},
		{ID: 2, Name: "Call"},
		{ID: 3, Name: "Meeting"},
	}
)

// Demo returns a store filled with a deterministic CRM pipeline spread over
// the twelve months before now.
func Demo(now time.Time) *Store {
	s := New()
	s.now = func() time.Time { return now }
	for _, st := range demoStages {
		s.AddStage(st)
	}
	s.SetFieldLabels([]entity.FieldLabel{
		{Source: entity.SourceLead, Field: entity.LeadStage, Label: "Stage"},
		{Source: entity.SourceLead, Field: entity.LeadUser, Label: "Salesperson"},
		{Source: entity.SourceLead, Field: entity.LeadCountry, Label: "Country"},
		{Source: entity.SourceLead, Field: entity.LeadExpRevenue, Label: "Expected Revenue"},
		{Source: entity.SourceLead, Field: entity.LeadLostReason, Label: "Lost Reason"},
		{Source: entity.SourceActivity, Field: entity.ActivityType, Label: "Activity Type"},
		{Source: entity.SourceActivity, Field: entity.ActivityUser, Label: "Assigned to"},
	})

	var leads, activities []entity.Record
	for i := 0; i < 48; i++ {
		id := int64(i + 1)
		created := now.AddDate(0, -(i % 12), -(i % 27)).Truncate(time.Hour)
		user := demoUsers[i%len(demoUsers)]
		r := entity.Record{
			entity.LeadID:          id,
			entity.LeadName:        fmt.Sprintf("Opportunity %02d", id),
			entity.LeadType:        entity.LeadTypeOpportunity,
			entity.LeadActive:      true,
			entity.LeadUser:        user,
			entity.LeadCountry:     demoCountries[i%len(demoCountries)],
			entity.LeadExpRevenue:  float64(1000 + (i%7)*750),
			entity.LeadProbability: float64((i % 5) * 25),
			entity.LeadCreateDate:  created,
			entity.LeadStage:       stageRef(demoStages[i%len(demoStages)]),
			entity.LeadLostReason:  nil,
		}
		switch {
		case i%6 == 0:
			r[entity.LeadType] = entity.LeadTypeLead
			r[entity.LeadStage] = nil
		case i%9 == 0:
			r[entity.LeadActive] = false
			r[entity.LeadLostReason] = demoLostReasons[i%len(demoLostReasons)]
		case demoStages[i%len(demoStages)].IsWon:
			r[entity.LeadDateClosed] = created.AddDate(0, 0, 10)
		}
		leads = append(leads, r)

		activities = append(activities, entity.Record{
			entity.ActivityID:         id,
			entity.ActivityResName:    r[entity.LeadName],
			entity.ActivityResModel:   entity.ActivityResModelLead,
			entity.ActivityResID:      id,
			entity.ActivitySummary:    "Follow up",
			entity.ActivityType:       demoActivityTypes[i%len(demoActivityTypes)],
			entity.ActivityUser:       user,
			entity.ActivityCreateUser: demoUsers[0],
			entity.ActivityDeadline:   created.AddDate(0, 0, 7),
			entity.ActivityState:      []string{"planned", "today", "overdue"}[i%3],
			entity.ActivityCreateDate: created,
		})
	}
	s.Insert(entity.SourceLead, leads...)
	s.Insert(entity.SourceActivity, activities...)
	return s
}

func stageRef(st entity.PipelineStage) entity.Reference {
	return entity.Reference{ID: st.Id, Name: st.Name}
}
