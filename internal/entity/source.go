package entity

// FieldKind is the storage type of a source field.
type FieldKind int

const (
	FieldText FieldKind = iota
	FieldSelection
	FieldBool
	FieldInteger
	FieldNumber
	FieldDate
	FieldReference
)

// IsNumeric reports whether values of the kind can be summed.
func (k FieldKind) IsNumeric() bool {
	return k == FieldInteger || k == FieldNumber
}

// Lead fields.
const (
	LeadID          = "id"
	LeadName        = "name"
	LeadType        = "type"
	LeadActive      = "active"
	LeadPartner     = "partner_id"
	LeadUser        = "user_id"
	LeadTeam        = "team_id"
	LeadCompany     = "company_id"
	LeadCountry     = "country_id"
	LeadStage       = "stage_id"
	LeadStageIsWon  = "stage_id.is_won"
	LeadExpRevenue  = "expected_revenue"
	LeadPlanRevenue = "planned_revenue"
	LeadProbability = "probability"
	LeadCreateDate  = "create_date"
	LeadDateClosed  = "date_closed"
	LeadLostReason  = "lost_reason_id"
	LeadSource      = "source_id"
	LeadCampaign    = "campaign_id"
	LeadMedium      = "medium_id"
)

// Values of the lead type discriminator.
const (
	LeadTypeLead        = "lead"
	LeadTypeOpportunity = "opportunity"
)

// Activity fields.
const (
	ActivityID         = "id"
	ActivityResName    = "res_name"
	ActivityResModel   = "res_model"
	ActivityResID      = "res_id"
	ActivitySummary    = "summary"
	ActivityType       = "activity_type_id"
	ActivityUser       = "user_id"
	ActivityCreateUser = "create_uid"
	ActivityDeadline   = "date_deadline"
	ActivityState      = "state"
	ActivityCreateDate = "create_date"
)

// ActivityResModelLead marks activities attached to a lead.
const ActivityResModelLead = "crm.lead"

// SourceFields lists the fields every record store exposes per source.
var SourceFields = map[SourceKind]map[string]FieldKind{
	SourceLead: {
		LeadID:          FieldInteger,
		LeadName:        FieldText,
		LeadType:        FieldSelection,
		LeadActive:      FieldBool,
		LeadPartner:     FieldReference,
		LeadUser:        FieldReference,
		LeadTeam:        FieldReference,
		LeadCompany:     FieldReference,
		LeadCountry:     FieldReference,
		LeadStage:       FieldReference,
		LeadStageIsWon:  FieldBool,
		LeadExpRevenue:  FieldNumber,
		LeadPlanRevenue: FieldNumber,
		LeadProbability: FieldNumber,
		LeadCreateDate:  FieldDate,
		LeadDateClosed:  FieldDate,
		LeadLostReason:  FieldReference,
		LeadSource:      FieldReference,
		LeadCampaign:    FieldReference,
		LeadMedium:      FieldReference,
	},
	SourceActivity: {
		ActivityID:         FieldInteger,
		ActivityResName:    FieldText,
		ActivityResModel:   FieldText,
		ActivityResID:      FieldInteger,
		ActivitySummary:    FieldText,
		ActivityType:       FieldReference,
		ActivityUser:       FieldReference,
		ActivityCreateUser: FieldReference,
		ActivityDeadline:   FieldDate,
		ActivityState:      FieldSelection,
		ActivityCreateDate: FieldDate,
	},
}

// FieldKindOf returns the kind of field on source.
func FieldKindOf(source SourceKind, field string) (FieldKind, bool) {
	fields, ok := SourceFields[source]
	if !ok {
		return 0, false
	}
	k, ok := fields[field]
	return k, ok
}

// PipelineStage is a step of the opportunity pipeline, ordered by Sequence.
type PipelineStage struct {
	Id       int64  `db:"id"`
	Name     string `db:"name"`
	Sequence int    `db:"sequence"`
	IsWon    bool   `db:"is_won"`
}

// FieldLabel is a human readable name of a source field.
type FieldLabel struct {
	Source SourceKind `db:"source"`
	Field  string     `db:"field"`
	Label  string     `db:"label"`
}
