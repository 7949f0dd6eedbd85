package services

// ServiceManager exposes every service to the transport layer.
type ServiceManager interface {
	Ability() AbilityService
	Trend() TrendService
}

type serviceManager struct {
	ability AbilityService
	trend   TrendService
}

func NewServiceManager(deps Dependencies) ServiceManager {
	deps = deps.withDefaults()
	return &serviceManager{
		ability: NewAbilityService(deps),
		trend:   NewTrendService(deps),
	}
}

func (m *serviceManager) Ability() AbilityService { return m.ability }
func (m *serviceManager) Trend() TrendService     { return m.trend }
