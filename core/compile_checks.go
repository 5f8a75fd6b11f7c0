package core

import glog "github.com/goliatone/go-logger/glog"

var (
	_ ConfigProvider  = (*CfgxConfigProvider)(nil)
	_ RawConfigLoader = EnvRawConfigLoader{}
	_ RawConfigLoader = StaticRawConfigLoader{}
	_ OptionsResolver = GoOptionsResolver{}
	_ Validatable     = Config{}

	_ Logger         = glog.Nop()
	_ LoggerProvider = glog.ProviderFromLogger(glog.Nop())
)
