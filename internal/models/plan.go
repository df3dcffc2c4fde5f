package models

// Plan is one of the fixed subscription plan identifiers.
type Plan string

const (
	PlanStarter      Plan = "starter"
	PlanProfessional Plan = "professional"
	PlanEnterprise   Plan = "enterprise"
)

// legacy pricing-page identifier still sent by older clients
const planLegacyBusinessPro = "business-pro"

// NormalizePlan maps raw plan identifiers, including the legacy
// "business-pro" alias, to a canonical Plan. Unknown values pass through
// unchanged so validation can name them.
func NormalizePlan(raw string) Plan {
	if raw == planLegacyBusinessPro {
		return PlanProfessional
	}
	return Plan(raw)
}

// Valid reports whether p is a known plan identifier.
func (p Plan) Valid() bool {
	switch p {
	case PlanStarter, PlanProfessional, PlanEnterprise:
		return true
	}
	return false
}
