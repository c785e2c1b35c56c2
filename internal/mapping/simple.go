package mapping

import (
	"context"

	"github.com/BartekS5/contentmigrate/internal/record"
	"github.com/BartekS5/contentmigrate/pkg/models"
	"github.com/BartekS5/contentmigrate/pkg/utils"
)

type simpleRule struct{}

func (simpleRule) Name() string { return "Simple" }

func (r simpleRule) Process(_ context.Context, env Env, d models.Descriptor, src SourceView, dst *DestinationView, _ *record.Item) error {
	a, ok := resolve(env, r.Name(), d, src)
	if !ok {
		return nil
	}
	write(env, r.Name(), a, dst, a.value)
	return nil
}

type valueTransformRule struct{}

func (valueTransformRule) Name() string { return "ValueTransform" }

// Process writes Map[value] or Default. Keys compare on the string form of
// the raw source value.
func (r valueTransformRule) Process(_ context.Context, env Env, d models.Descriptor, src SourceView, dst *DestinationView, _ *record.Item) error {
	a, ok := resolve(env, r.Name(), d, src)
	if !ok {
		return nil
	}

	out, found := d.Map[utils.ToString(a.value)]
	if !found || out == nil {
		out = d.Default
		if out == nil {
			out = ""
		}
	}
	write(env, r.Name(), a, dst, out)
	return nil
}
