package provisioner

import (
	"github.com/halcyonlabs/meetscribe/internal/config"
	"github.com/halcyonlabs/meetscribe/internal/provisioner"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (provisioner.Client, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return NewHTTPClient(cfg.ProvisionerBaseURL, cfg.ProvisionerAPIKey), nil
	})
}
