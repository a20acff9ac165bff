package dante

import (
	"context"
	"fmt"

	"github.com/brutella/dnssd"

	"github.com/netaudio/dantectl/internal/logging"
)

// eventBufferSize bounds how many translated events can sit unread before a
// worker's next 100ms drain pass; generous because a category browser sees
// at most a handful of devices on most LANs.
const eventBufferSize = 256

// newDNSSDSource browses serviceType with github.com/brutella/dnssd - the
// same library dns_sd.go used to *announce* a service, here used in the
// opposite (browsing) direction - and translates its add/remove callbacks
// into the supervisor's five-event model over a buffered channel.
//
// dnssd.LookupType resolves addresses and TXT records before invoking its
// "added" callback, so there is no separate wire-level Found-then-Resolved
// handshake to observe; this adapter synthesises both events from the one
// callback, which is a faithful enough approximation for the supervisor's
// purposes (it cannot observe the difference once the event reaches it).
func newDNSSDSource(ctx context.Context, serviceType string) (EventSource, error) {
	src := newChanSource(eventBufferSize)

	go func() {
		defer close(src.events)

		send := func(ev Event) {
			select {
			case src.events <- ev:
			case <-ctx.Done():
			}
		}

		send(Event{Kind: SearchStarted, ServiceType: serviceType})

		added := func(entry dnssd.BrowseEntry) {
			fullname := fmt.Sprintf("%s.%s", entry.Name, serviceType)
			send(Event{Kind: ServiceFound, ServiceType: serviceType, Fullname: fullname})
			send(Event{
				Kind:        ServiceResolved,
				ServiceType: serviceType,
				Fullname:    fullname,
				Info: ResolvedInfo{
					Addrs: entry.IPs,
					Port:  entry.Port,
					Text:  entry.Text,
				},
			})
		}

		removed := func(entry dnssd.BrowseEntry) {
			fullname := fmt.Sprintf("%s.%s", entry.Name, serviceType)
			send(Event{Kind: ServiceRemoved, ServiceType: serviceType, Fullname: fullname})
		}

		err := dnssd.LookupType(ctx, serviceType, added, removed)
		if err != nil && ctx.Err() == nil {
			logging.Error("dnssd lookup ended unexpectedly", "service", serviceType, "err", err)
		}

		send(Event{Kind: SearchStopped, ServiceType: serviceType})
	}()

	return src, nil
}
