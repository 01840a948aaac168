package pool

import (
	"strings"

	"wifi-voucher/internal/domain/model"
)

// ParseBulk reads one "<username> <password>" pair per line. Fields are split
// on any whitespace; lines with fewer than two fields are skipped and extra
// fields are ignored.
func ParseBulk(text, locationID string, planType model.PlanType) []model.CredentialInput {
	var out []model.CredentialInput
	for _, line := range strings.Split(text, "\n") {
		f := strings.Fields(line)
		if len(f) < 2 {
			continue
		}
		out = append(out, model.CredentialInput{
			Username:   f[0],
			Password:   f[1],
			LocationID: locationID,
			PlanType:   planType,
		})
	}
	return out
}
