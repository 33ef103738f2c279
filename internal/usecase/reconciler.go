package usecase

import "github.com/riskibarqy/matchday-sync/internal/domain/fixture"

type WritePlan struct {
	Creates []fixture.CreatePlan
	Updates []fixture.UpdatePlan
}

// PlanWrites splits records into updates for identities already present in
// existing and creates for the rest. Updates never carry TV.
func PlanWrites(records []fixture.Record, existing RemoteIndex) WritePlan {
	plan := WritePlan{}
	for _, record := range records {
		if rowID, ok := existing.Lookup(record.Identity); ok {
			plan.Updates = append(plan.Updates, fixture.UpdatePlan{
				RowID:  rowID,
				Fields: record.UpdateFields(),
			})
			continue
		}
		plan.Creates = append(plan.Creates, fixture.CreatePlan{Fields: record.CreateFields()})
	}
	return plan
}
