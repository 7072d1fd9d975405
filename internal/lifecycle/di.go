package lifecycle

import (
	"github.com/halcyonlabs/meetscribe/internal/config"
	"github.com/halcyonlabs/meetscribe/internal/provisioner"
	"github.com/halcyonlabs/meetscribe/internal/store"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Reconciler, error) {
		cfg := do.MustInvoke[*config.Config](i)
		s := do.MustInvoke[store.Store](i)
		bots := do.MustInvoke[provisioner.Client](i)
		return NewReconciler(cfg, s, bots), nil
	})
}
