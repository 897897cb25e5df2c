// Package access answers whether a client stage may reach a portal resource.
package access

import (
	"fmt"

	"github.com/BruksfildServices01/client-portal/internal/domain/stage"
	"github.com/BruksfildServices01/client-portal/internal/httperr"
)

type Resource string

const (
	Dashboard    Resource = "dashboard"
	Onboarding   Resource = "onboarding"
	Agreements   Resource = "agreements"
	Profile      Resource = "profile"
	Status       Resource = "status"
	Documents    Resource = "documents"
	Timeline     Resource = "timeline"
	Learn        Resource = "learn"
	FreeAnalysis Resource = "freeAnalysis"
)

var ErrUnknownResource = httperr.ErrBusiness(httperr.CodeUnknownResource)

// Resources lists every gated resource.
var Resources = []Resource{
	Dashboard, Onboarding, Agreements, Profile, Status, Documents, Timeline, Learn, FreeAnalysis,
}

type stageSet map[stage.Stage]bool

func stages(ss ...stage.Stage) stageSet {
	set := make(stageSet, len(ss))
	for _, s := range ss {
		set[s] = true
	}
	return set
}

// matrix is the single source of truth for portal access. A stage missing
// from a row is denied.
var matrix = map[Resource]stageSet{
	Dashboard:    stages(stage.Active),
	Onboarding:   stages(stage.Onboarding, stage.PendingPayment, stage.Active, stage.PaymentFailed),
	Agreements:   stages(stage.Onboarding, stage.PendingPayment, stage.Active),
	Profile:      stages(stage.Onboarding, stage.PendingPayment, stage.Active, stage.PaymentFailed),
	Status:       stages(stage.Active),
	Documents:    stages(stage.Active),
	Timeline:     stages(stage.Active),
	Learn:        stages(stage.Active),
	FreeAnalysis: stages(stage.All...),
}

func ParseResource(name string) (Resource, error) {
	r := Resource(name)
	if _, ok := matrix[r]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownResource, name)
	}
	return r, nil
}

// CanAccess reports whether s may reach resourceName. Unknown resources and
// unknown stages are errors, never a silent deny.
func CanAccess(s stage.Stage, resourceName string) (bool, error) {
	r, err := ParseResource(resourceName)
	if err != nil {
		return false, err
	}
	if !s.Valid() {
		return false, fmt.Errorf("%w: %q", stage.ErrUnknownStage, s)
	}
	return matrix[r][s], nil
}

// Allowed returns the resources reachable from s in Resources order.
func Allowed(s stage.Stage) ([]Resource, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %q", stage.ErrUnknownStage, s)
	}
	out := make([]Resource, 0, len(Resources))
	for _, r := range Resources {
		if matrix[r][s] {
			out = append(out, r)
		}
	}
	return out, nil
}
