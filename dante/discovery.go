package dante

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/netaudio/dantectl/internal/logging"
)

// Category is one of the four independent mDNS service types advertised by
// a Dante device.
type Category int

const (
	CategoryDBC Category = iota
	CategoryCMC
	CategoryARC
	CategoryChan
)

const (
	ServiceTypeDBC  = "_netaudio-dbc._udp.local."
	ServiceTypeCMC  = "_netaudio-cmc._udp.local."
	ServiceTypeARC  = "_netaudio-arc._udp.local."
	ServiceTypeChan = "_netaudio-chan._udp.local."
)

// ServiceType returns the mDNS service-type string browsed for this category.
func (c Category) ServiceType() string {
	switch c {
	case CategoryDBC:
		return ServiceTypeDBC
	case CategoryCMC:
		return ServiceTypeCMC
	case CategoryARC:
		return ServiceTypeARC
	case CategoryChan:
		return ServiceTypeChan
	default:
		return "unknown(" + strconv.Itoa(int(c)) + ")"
	}
}

func (c Category) String() string {
	switch c {
	case CategoryDBC:
		return "dbc"
	case CategoryCMC:
		return "cmc"
	case CategoryARC:
		return "arc"
	case CategoryChan:
		return "chan"
	default:
		return "unknown"
	}
}

// pollInterval is how long a worker sleeps between non-blocking drain
// passes over its category's event stream.
const pollInterval = 100 * time.Millisecond

// Supervisor spawns one worker goroutine per service category, each
// mutating a shared Registry under that registry's own lock. It owns the
// run/stop flag; callers never touch the workers directly.
type Supervisor struct {
	registry *Registry
	newSource EventSourceFactory

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Option configures a Supervisor at construction time.
type Option func(*Supervisor)

// WithEventSourceFactory overrides the production dnssd-backed factory -
// used by tests to inject a fake event source.
func WithEventSourceFactory(f EventSourceFactory) Option {
	return func(s *Supervisor) { s.newSource = f }
}

// NewSupervisor returns a Supervisor bound to registry, browsing via
// github.com/brutella/dnssd unless overridden with WithEventSourceFactory.
func NewSupervisor(registry *Registry, opts ...Option) *Supervisor {
	s := &Supervisor{
		registry:  registry,
		newSource: newDNSSDSource,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IsRunning reports whether discovery workers are currently active.
func (s *Supervisor) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

var allCategories = [4]Category{CategoryDBC, CategoryCMC, CategoryARC, CategoryChan}

// StartDiscovery spawns one worker per service category and returns
// immediately; it is idempotent while already running. Workers mutate the
// shared registry as events arrive until StopDiscovery is called.
func (s *Supervisor) StartDiscovery() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.running = true
	s.mu.Unlock()

	logging.Info("starting discovery")

	for _, cat := range allCategories {
		src, err := s.newSource(ctx, cat.ServiceType())
		if err != nil {
			logging.Error("failed to start category browser", "category", cat, "err", err)
			continue
		}
		s.wg.Add(1)
		go s.runWorker(cat, src)
	}
	return nil
}

// StopDiscovery flips the run flag and cancels the event sources' shared
// context. Workers observe the flag within one poll interval; in-flight
// event processing completes before a worker exits. There is no hard
// drain guarantee over events still queued when the flag flips.
func (s *Supervisor) StopDiscovery() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	logging.Info("discovery stopped")
}

// Wait blocks until every worker goroutine has exited. Primarily useful in
// tests; production callers are not required to call it.
func (s *Supervisor) Wait() {
	s.wg.Wait()
}

func (s *Supervisor) runWorker(cat Category, src EventSource) {
	defer s.wg.Done()

	for s.IsRunning() {
		s.drain(cat, src)
		time.Sleep(pollInterval)
	}
}

func (s *Supervisor) drain(cat Category, src EventSource) {
	for {
		select {
		case ev, ok := <-src.Events():
			if !ok {
				return
			}
			s.handleEvent(cat, ev)
		default:
			return
		}
	}
}

func (s *Supervisor) handleEvent(cat Category, ev Event) {
	switch ev.Kind {
	case SearchStarted:
		logging.Debug("search started", "category", cat)

	case ServiceFound:
		s.handleFound(cat, ev)

	case ServiceResolved:
		s.handleResolved(cat, ev)

	case ServiceRemoved:
		s.handleRemoved(cat, ev)

	case SearchStopped:
		logging.Error("search stopped unexpectedly", "category", cat)
	}
}

func (s *Supervisor) handleFound(cat Category, ev Event) {
	if cat == CategoryChan {
		_, device, ok := NormaliseChannel(ev.Fullname, ev.ServiceType)
		if !ok {
			return
		}
		s.registry.ConnectChan(device)
		return
	}

	name := Normalise(ev.Fullname, ev.ServiceType)
	switch cat {
	case CategoryDBC:
		s.registry.ConnectDBC(name)
	case CategoryCMC:
		s.registry.ConnectCMC(name)
	case CategoryARC:
		s.registry.ConnectARC(name)
	}
}

func (s *Supervisor) handleResolved(cat Category, ev Event) {
	if cat == CategoryChan {
		channel, device, ok := NormaliseChannel(ev.Fullname, ev.ServiceType)
		if !ok {
			return
		}
		info := buildChannelInfo(channel, ev.Info.Text)
		if err := s.registry.UpdateChan(device, info); err != nil {
			logging.Error("update chan failed", "device", device, "err", err)
		}
		return
	}

	name := Normalise(ev.Fullname, ev.ServiceType)
	var err error
	switch cat {
	case CategoryDBC:
		err = s.registry.UpdateDBC(name, DBCInfo{Addrs: ev.Info.Addrs, Port: ev.Info.Port})
	case CategoryCMC:
		err = s.registry.UpdateCMC(name, CMCInfo{
			Addrs:        ev.Info.Addrs,
			Port:         ev.Info.Port,
			ID:           txtOr(ev.Info.Text, "id", naPlaceholder),
			Manufacturer: txtOr(ev.Info.Text, "mf", naPlaceholder),
			Model:        txtOr(ev.Info.Text, "model", naPlaceholder),
		})
	case CategoryARC:
		err = s.registry.UpdateARC(name, ARCInfo{
			Addrs:         ev.Info.Addrs,
			Port:          ev.Info.Port,
			RouterVersion: txtOr(ev.Info.Text, "router_vers", naPlaceholder),
			RouterInfo:    txtOr(ev.Info.Text, "router_info", naPlaceholder),
		})
	}
	if err != nil {
		logging.Error("resolve update failed", "category", cat, "name", name, "err", err)
	}
}

func (s *Supervisor) handleRemoved(cat Category, ev Event) {
	var (
		name string
		err  error
	)
	if cat == CategoryChan {
		_, device, ok := NormaliseChannel(ev.Fullname, ev.ServiceType)
		if !ok {
			return
		}
		name = device
		err = s.registry.DisconnectChan(name)
	} else {
		name = Normalise(ev.Fullname, ev.ServiceType)
		switch cat {
		case CategoryDBC:
			err = s.registry.DisconnectDBC(name)
		case CategoryCMC:
			err = s.registry.DisconnectCMC(name)
		case CategoryARC:
			err = s.registry.DisconnectARC(name)
		}
	}
	if err != nil {
		logging.Error("disconnect failed", "category", cat, "name", name, "err", err)
	}
}

func buildChannelInfo(name string, text map[string]string) ChannelInfo {
	ci := ChannelInfo{Name: name}

	if v, ok := text["id"]; ok {
		if id, perr := strconv.ParseUint(v, 10, 16); perr == nil {
			id16 := uint16(id)
			ci.ID = &id16
		} else {
			logging.Warn("channel TXT \"id\" not numeric", "value", v)
		}
	}

	if v, ok := text["rate"]; ok {
		if rate, perr := strconv.ParseUint(v, 10, 32); perr == nil {
			rate32 := uint32(rate)
			ci.SampleRate = &rate32
		} else {
			logging.Warn("channel TXT \"rate\" not numeric", "value", v)
		}
	}

	if v, ok := text["en"]; ok {
		if enc, eok := parseEncoding(v); eok {
			ci.Encoding = &enc
		} else {
			logging.Warn("channel TXT \"en\" not a recognised encoding", "value", v)
		}
	}

	if v, ok := text["latency_ns"]; ok {
		if ns, perr := strconv.ParseInt(v, 10, 64); perr == nil {
			latency := time.Duration(ns)
			ci.Latency = &latency
		} else {
			logging.Warn("channel TXT \"latency_ns\" not numeric", "value", v)
		}
	}

	return ci
}
