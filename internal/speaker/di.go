package speaker

import (
	"github.com/halcyonlabs/meetscribe/internal/store"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Registry, error) {
		s := do.MustInvoke[store.Store](i)
		return NewRegistry(s), nil
	})
}
