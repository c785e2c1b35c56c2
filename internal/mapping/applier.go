package mapping

import (
	"context"

	"github.com/BartekS5/contentmigrate/internal/record"
	"github.com/BartekS5/contentmigrate/pkg/models"
)

// Applier dispatches descriptors to their rules.
type Applier struct {
	env   Env
	rules map[models.Kind]Rule
}

// NewApplier registers the built-in rules.
func NewApplier(env Env) *Applier {
	return &Applier{
		env: env,
		rules: map[models.Kind]Rule{
			models.KindSimple:             simpleRule{},
			models.KindValueTransform:     valueTransformRule{},
			models.KindRtePrepareToSimple: rtePrepareRule{},
			models.KindCollectedFalToFal:  collectedFalRule{},
		},
	}
}

// Apply runs descs in order. A descriptor with an unknown kind is reported
// and skipped. A collaborator error stops the remaining descriptors and is
// returned.
func (a *Applier) Apply(ctx context.Context, descs []models.Descriptor, src SourceView, dst *DestinationView, it *record.Item) error {
	for _, d := range descs {
		rule, ok := a.rules[d.Kind]
		if !ok {
			a.env.diag("[E] Mapping type " + d.Kind.String() + " not defined")
			continue
		}
		if err := rule.Process(ctx, a.env, d, src, dst, it); err != nil {
			return err
		}
	}
	return nil
}
