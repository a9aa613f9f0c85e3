// Package factory builds pluggable modules from configuration. A module is a
// type name plus raw settings; the factory registered for the name decodes
// the settings with json tags and returns the implementation.
//
//	reg := factory.NewRegistry[metrics.MetricsSink]()
//	_ = reg.Register("influx", func(conf map[string]any) (metrics.MetricsSink, error) {
//		var c struct {
//			URL string `json:"url"`
//		}
//		if err := factory.Decode(conf, &c); err != nil {
//			return nil, err
//		}
//		return newInfluxSink(c.URL), nil
//	})
//	sink, err := reg.Create(factory.ModuleConfig{Type: "influx", Conf: map[string]any{"url": "http://localhost:8086"}})
package factory
