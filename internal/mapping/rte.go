package mapping

import (
	"context"
	"fmt"

	"github.com/BartekS5/contentmigrate/internal/record"
	"github.com/BartekS5/contentmigrate/internal/richtext"
	"github.com/BartekS5/contentmigrate/pkg/models"
	"github.com/BartekS5/contentmigrate/pkg/utils"
)

type rtePrepareRule struct{}

func (rtePrepareRule) Name() string { return "RtePrepareToSimple" }

func (r rtePrepareRule) Process(_ context.Context, env Env, d models.Descriptor, src SourceView, dst *DestinationView, it *record.Item) error {
	a, ok := resolve(env, r.Name(), d, src)
	if !ok {
		return nil
	}
	if env.RichText == nil {
		return fmt.Errorf("%s: no rich text normalizer configured", r.Name())
	}

	field := d.Fieldname
	if field == "" {
		field = models.DefaultFlexFormField
	}
	profile := d.RichTextProfile
	if profile == "" {
		profile = "default"
	}

	out, err := env.RichText.Normalize(richtext.Context{
		Table:   it.SrcTable,
		Field:   field,
		PID:     it.SrcPID,
		Profile: profile,
	}, utils.ToString(a.value))
	if err != nil {
		return fmt.Errorf("%s %s -> %s: %w", r.Name(), d.Src, d.Dst, err)
	}
	write(env, r.Name(), a, dst, out)
	return nil
}
