package dante

import (
	"fmt"
	"io"
	"time"
)

// DumpRaw drains src verbatim for manual protocol exploration, printing
// every event's kind, fullname, and (for ServiceResolved) addresses/port/TXT
// without touching any registry. It returns once src's channel closes or
// budget elapses, whichever comes first.
func DumpRaw(w io.Writer, src EventSource, budget time.Duration) {
	deadline := time.After(budget)
	for {
		select {
		case ev, ok := <-src.Events():
			if !ok {
				return
			}
			fmt.Fprintf(w, "%-6s %-28s fullname=%q", ev.Kind, ev.ServiceType, ev.Fullname)
			if ev.Kind == ServiceResolved {
				fmt.Fprintf(w, " addrs=%v port=%d text=%v", ev.Info.Addrs, ev.Info.Port, ev.Info.Text)
			}
			fmt.Fprintln(w)
		case <-deadline:
			return
		}
	}
}
