package transcript

import (
	"github.com/halcyonlabs/meetscribe/internal/store"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Sequencer, error) {
		s := do.MustInvoke[store.Store](i)
		return NewSequencer(s), nil
	})
}
