package telemetry

import "strings"

// endpoint is an OTLP URL split the way the exporters want it: host[:port]
// separately from the URL path.
type endpoint struct {
	host     string
	path     string
	insecure bool
}

func parseEndpoint(raw, defaultPath string) endpoint {
	ep := endpoint{host: raw}

	if strings.HasPrefix(ep.host, "https://") {
		ep.host = strings.TrimPrefix(ep.host, "https://")
	} else if strings.HasPrefix(ep.host, "http://") {
		ep.host = strings.TrimPrefix(ep.host, "http://")
		ep.insecure = true
	}

	if idx := strings.Index(ep.host, "/"); idx > 0 {
		ep.path = strings.TrimSuffix(ep.host[idx:], "/")
		ep.host = ep.host[:idx]
	}
	if ep.path == "" {
		ep.path = defaultPath
	}

	return ep
}
