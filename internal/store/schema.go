package store

import (
	"fmt"
	"strings"

	"github.com/jekabolt/grbpwr-reports/internal/entity"
)

// column maps a source field to a column of the source table. Reference
// columns hold the id of a row of ref, which has id and name columns.
type column struct {
	name string
	ref  string
}

type table struct {
	name    string
	alias   string
	columns map[string]column
}

func plain(name string) column      { return column{name: name} }
func refTo(name, ref string) column { return column{name: name, ref: ref} }

var tables = map[entity.SourceKind]table{
	entity.SourceLead: {
		name:  "crm_lead",
		alias: "l",
		columns: map[string]column{
			entity.LeadID:          plain("id"),
			entity.LeadName:        plain("name"),
			entity.LeadType:        plain("type"),
			entity.LeadActive:      plain("active"),
			entity.LeadPartner:     refTo("partner_id", "res_partner"),
			entity.LeadUser:        refTo("user_id", "app_user"),
			entity.LeadTeam:        refTo("team_id", "crm_team"),
			entity.LeadCompany:     refTo("company_id", "res_company"),
			entity.LeadCountry:     refTo("country_id", "res_country"),
			entity.LeadStage:       refTo("stage_id", "crm_stage"),
			entity.LeadExpRevenue:  plain("expected_revenue"),
			entity.LeadPlanRevenue: plain("planned_revenue"),
			entity.LeadProbability: plain("probability"),
			entity.LeadCreateDate:  plain("create_date"),
			entity.LeadDateClosed:  plain("date_closed"),
			entity.LeadLostReason:  refTo("lost_reason_id", "crm_lost_reason"),
			entity.LeadSource:      refTo("source_id", "utm_source"),
			entity.LeadCampaign:    refTo("campaign_id", "utm_campaign"),
			entity.LeadMedium:      refTo("medium_id", "utm_medium"),
		},
	},
	entity.SourceActivity: {
		name:  "mail_activity",
		alias: "a",
		columns: map[string]column{
			entity.ActivityID:         plain("id"),
			entity.ActivityResName:    plain("res_name"),
			entity.ActivityResModel:   plain("res_model"),
			entity.ActivityResID:      plain("res_id"),
			entity.ActivitySummary:    plain("summary"),
			entity.ActivityType:       refTo("activity_type_id", "mail_activity_type"),
			entity.ActivityUser:       refTo("user_id", "app_user"),
			entity.ActivityCreateUser: refTo("create_uid", "app_user"),
			entity.ActivityDeadline:   plain("date_deadline"),
			entity.ActivityState:      plain("state"),
			entity.ActivityCreateDate: plain("create_date"),
		},
	},
}

// field is a source field resolved to SQL.
type field struct {
	expr string
	kind entity.FieldKind
}

// sourceQuery collects the joins a statement needs while its fields are resolved.
// Only fields listed in entity.SourceFields ever reach SQL.
type sourceQuery struct {
	source entity.SourceKind
	t      table
	joins  []string
}

func newQuery(source entity.SourceKind) (*sourceQuery, error) {
	t, ok := tables[source]
	if !ok {
		return nil, fmt.Errorf("unknown source %q", source)
	}
	return &sourceQuery{source: source, t: t}, nil
}

func joinAlias(refField string) string {
	return "j_" + refField
}

// resolve maps name to its SQL expression. Dotted names address a column of
// the table a reference points to, "stage_id.is_won" reads is_won of the
// lead's stage.
func (q *sourceQuery) resolve(name string) (field, error) {
	kind, ok := entity.FieldKindOf(q.source, name)
	if !ok {
		return field{}, fmt.Errorf("unknown field %q on %s", name, q.source)
	}
	if ref, attr, dotted := strings.Cut(name, "."); dotted {
		c, ok := q.t.columns[ref]
		if !ok || c.ref == "" {
			return field{}, fmt.Errorf("field %q is not a reference", ref)
		}
		q.join(ref)
		return field{expr: joinAlias(ref) + "." + attr, kind: kind}, nil
	}
	c, ok := q.t.columns[name]
	if !ok {
		return field{}, fmt.Errorf("field %q has no column", name)
	}
	return field{expr: q.t.alias + "." + c.name, kind: kind}, nil
}

// displayName joins the referenced table of refField and returns its name
// column.
func (q *sourceQuery) displayName(refField string) string {
	q.join(refField)
	return joinAlias(refField) + ".name"
}

func (q *sourceQuery) join(refField string) {
	for _, j := range q.joins {
		if j == refField {
			return
		}
	}
	q.joins = append(q.joins, refField)
}

// from renders the FROM clause with its joins, which must all be known by
// the time it is called.
func (q *sourceQuery) from() (string, []string) {
	joins := make([]string, 0, len(q.joins))
	for _, j := range q.joins {
		c := q.t.columns[j]
		alias := joinAlias(j)
		joins = append(joins, c.ref+" "+alias+" ON "+alias+".id = "+q.t.alias+"."+c.name)
	}
	return q.t.name + " " + q.t.alias, joins
}
