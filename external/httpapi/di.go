package httpapi

import (
	"github.com/halcyonlabs/meetscribe/internal/ingest"
	"github.com/halcyonlabs/meetscribe/internal/store"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Server, error) {
		s := do.MustInvoke[store.Store](i)
		gateway := do.MustInvoke[*ingest.Gateway](i)
		return NewServer(s, gateway), nil
	})
}
