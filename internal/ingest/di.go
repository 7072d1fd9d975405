package ingest

import (
	"github.com/halcyonlabs/meetscribe/internal/lifecycle"
	"github.com/halcyonlabs/meetscribe/internal/speaker"
	"github.com/halcyonlabs/meetscribe/internal/store"
	"github.com/halcyonlabs/meetscribe/internal/transcript"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Gateway, error) {
		s := do.MustInvoke[store.Store](i)
		speakers := do.MustInvoke[*speaker.Registry](i)
		seq := do.MustInvoke[*transcript.Sequencer](i)
		rec := do.MustInvoke[*lifecycle.Reconciler](i)
		return NewGateway(s, speakers, seq, rec), nil
	})
}
