package discovery

import (
	"sort"

	"github.com/grandcat/zeroconf"

	"github.com/buaawifi/uav-h2-supply-control/internal/linkerror"
	"github.com/buaawifi/uav-h2-supply-control/internal/version"
)

const (
	// ServiceType is the mDNS service type the ground relay advertises.
	ServiceType = "_fuellink._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."
)

// Advertiser holds one active mDNS registration until Close.
type Advertiser struct {
	server *zeroconf.Server
}

// Advertise registers instance as a ServiceType service on port, with extra
// merged into the TXT records alongside the standard version/protocol keys.
// The registration stays active until Close is called.
func Advertise(instance string, port int, extra map[string]string) (*Advertiser, error) {
	txt := BuildTXT(extra)

	server, err := zeroconf.Register(instance, ServiceType, ServiceDomain, port, txt, nil)
	if err != nil {
		return nil, linkerror.NewNetworkError("failed to register mDNS service", err)
	}
	return &Advertiser{server: server}, nil
}

// Close withdraws the mDNS registration.
func (a *Advertiser) Close() {
	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
}

// BuildTXT renders the advertisement's TXT records: the standard keys plus
// any caller-supplied extras, as sorted "key=value" strings so the record
// set is stable across restarts.
func BuildTXT(extra map[string]string) []string {
	records := map[string]string{
		"version": version.Version,
		"proto":   "1",
	}
	for k, v := range extra {
		records[k] = v
	}

	keys := make([]string, 0, len(records))
	for k := range records {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	txt := make([]string, 0, len(keys))
	for _, k := range keys {
		txt = append(txt, k+"="+records[k])
	}
	return txt
}
