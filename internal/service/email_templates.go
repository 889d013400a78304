package service

import (
	"fmt"
	"strings"

	"github.com/templui/claimguard/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// humanLabel turns an enum value like "info_requested" into "Info Requested".
// Casers are stateful, so each call gets its own.
func humanLabel(v string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(v, "_", " "))
}

func statusChangeEmailTemplate(name string, claim *model.Claim, claimURL, appName string) (string, string) {
	status := humanLabel(claim.Status)
	damage := "Not assessed"
	if claim.DamageType != nil {
		damage = humanLabel(*claim.DamageType)
	}

	subject := fmt.Sprintf("Claim %s: %s", claim.ClaimNumber, status)
	body := fmt.Sprintf(`Hi %s,

The status of your claim %s (%s %s, %d) is now: %s.

Damage assessment: %s

View your claim: %s

Best,
The %s Team`, name, claim.ClaimNumber, claim.VehicleMake, claim.VehicleModel, claim.VehicleYear, status, damage, claimURL, appName)

	return subject, body
}
