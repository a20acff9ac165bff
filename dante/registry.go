package dante

import (
	"net"
	"sort"
	"sync"

	"github.com/netaudio/dantectl/internal/logging"
)

// channelSet holds a device's channel records. Records with a parsed id are
// kept in a map so that a later update for the same id replaces the earlier
// one (the channel-set-identity rule); records whose id never parsed have no
// such key to dedupe on, so they are appended to a plain list instead of
// being forced into one shared "no id" slot.
type channelSet struct {
	byID map[uint16]ChannelInfo
	noID []ChannelInfo
}

func newChannelSet() *channelSet {
	return &channelSet{byID: make(map[uint16]ChannelInfo)}
}

func (s *channelSet) update(c ChannelInfo) {
	if c.ID != nil {
		s.byID[*c.ID] = c
		return
	}
	s.noID = append(s.noID, c)
}

// sorted returns the channel records ascending by id, with unset-id records
// last in stable (insertion) order.
func (s *channelSet) sorted() []ChannelInfo {
	ids := make([]uint16, 0, len(s.byID))
	for id := range s.byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]ChannelInfo, 0, len(ids)+len(s.noID))
	for _, id := range ids {
		out = append(out, s.byID[id])
	}
	return append(out, s.noID...)
}

type deviceStatus struct {
	DBC  bool
	CMC  bool
	ARC  bool
	Chan bool
}

func (s deviceStatus) any() bool {
	return s.DBC || s.CMC || s.ARC || s.Chan
}

type deviceCache struct {
	dbc      *DBCInfo
	cmc      *CMCInfo
	arc      *ARCInfo
	channels *channelSet
}

type deviceRecord struct {
	status deviceStatus
	cache  *deviceCache
}

func newDeviceRecord() *deviceRecord {
	return &deviceRecord{
		cache: &deviceCache{channels: newChannelSet()},
	}
}

// DeviceDescription is a point-in-time, lock-free snapshot of one device
// record, suitable for reporting or further formatting.
type DeviceDescription struct {
	Name         string
	DBCConnected bool
	CMCConnected bool
	ARCConnected bool
	ChanConnected bool
	DBC          *DBCInfo
	CMC          *CMCInfo
	ARC          *ARCInfo
	Channels     []ChannelInfo
}

// Registry is the single shared mapping from device name to presence flags
// and discovery caches. All mutation and query operations acquire one
// process-wide mutex, with lock scope kept to a single public operation.
type Registry struct {
	mu      sync.Mutex
	devices map[string]*deviceRecord
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{devices: make(map[string]*deviceRecord)}
}

func (r *Registry) tryAddLocked(name string) bool {
	if _, ok := r.devices[name]; ok {
		return false
	}
	r.devices[name] = newDeviceRecord()
	return true
}

// TryAddDevice creates an empty device record if one does not already
// exist. It is the idempotent form of AddDevice.
func (r *Registry) TryAddDevice(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tryAddLocked(name)
}

// AddDevice creates an empty device record, failing if one already exists.
func (r *Registry) AddDevice(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.tryAddLocked(name) {
		return &Error{Op: "AddDevice", Name: name, Err: ErrAlreadyPresent}
	}
	return nil
}

// checkRemoveLocked drops the device record once none of its four presence
// bits remain set. The cache is dropped together with the presence entry
// (see design-notes open question 1).
func (r *Registry) checkRemoveLocked(name string) {
	d, ok := r.devices[name]
	if !ok {
		return
	}
	if !d.status.any() {
		delete(r.devices, name)
	}
}

func (r *Registry) connectLocked(name string, set func(*deviceStatus)) {
	r.tryAddLocked(name)
	set(&r.devices[name].status)
}

// ConnectDBC ensures the device record exists and sets its DBC presence bit.
func (r *Registry) ConnectDBC(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connectLocked(name, func(s *deviceStatus) { s.DBC = true })
}

// ConnectCMC ensures the device record exists and sets its CMC presence bit.
func (r *Registry) ConnectCMC(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connectLocked(name, func(s *deviceStatus) { s.CMC = true })
}

// ConnectARC ensures the device record exists and sets its ARC presence bit.
func (r *Registry) ConnectARC(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connectLocked(name, func(s *deviceStatus) { s.ARC = true })
}

// ConnectChan ensures the device record exists and sets its channel presence bit.
func (r *Registry) ConnectChan(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connectLocked(name, func(s *deviceStatus) { s.Chan = true })
}

func (r *Registry) disconnectLocked(name string, op string, clear func(*deviceStatus)) error {
	d, ok := r.devices[name]
	if !ok {
		logging.Error("disconnect on unknown device", "op", op, "name", name)
		return &Error{Op: op, Name: name, Err: ErrNotPresent}
	}
	clear(&d.status)
	r.checkRemoveLocked(name)
	return nil
}

// DisconnectDBC clears the DBC presence bit, removing the device record if
// it was the last bit set.
func (r *Registry) DisconnectDBC(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.disconnectLocked(name, "DisconnectDBC", func(s *deviceStatus) { s.DBC = false })
}

// DisconnectCMC clears the CMC presence bit, removing the device record if
// it was the last bit set.
func (r *Registry) DisconnectCMC(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.disconnectLocked(name, "DisconnectCMC", func(s *deviceStatus) { s.CMC = false })
}

// DisconnectARC clears the ARC presence bit, removing the device record if
// it was the last bit set.
func (r *Registry) DisconnectARC(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.disconnectLocked(name, "DisconnectARC", func(s *deviceStatus) { s.ARC = false })
}

// DisconnectChan clears the channel presence bit, removing the device
// record if it was the last bit set.
func (r *Registry) DisconnectChan(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.disconnectLocked(name, "DisconnectChan", func(s *deviceStatus) { s.Chan = false })
}

// UpdateDBC overwrites the DBC info slot. The device record must already
// exist (the caller is expected to have called ConnectDBC first).
func (r *Registry) UpdateDBC(name string, info DBCInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.devices[name]
	if !ok {
		logging.Error("update on unknown device", "op", "UpdateDBC", "name", name)
		return &Error{Op: "UpdateDBC", Name: name, Err: ErrNotPresent}
	}
	d.cache.dbc = &info
	return nil
}

// UpdateCMC overwrites the CMC info slot.
func (r *Registry) UpdateCMC(name string, info CMCInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.devices[name]
	if !ok {
		logging.Error("update on unknown device", "op", "UpdateCMC", "name", name)
		return &Error{Op: "UpdateCMC", Name: name, Err: ErrNotPresent}
	}
	d.cache.cmc = &info
	return nil
}

// UpdateARC overwrites the ARC info slot.
func (r *Registry) UpdateARC(name string, info ARCInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.devices[name]
	if !ok {
		logging.Error("update on unknown device", "op", "UpdateARC", "name", name)
		return &Error{Op: "UpdateARC", Name: name, Err: ErrNotPresent}
	}
	d.cache.arc = &info
	return nil
}

// UpdateChan replaces any channel record equal-by-id to info within the
// device's channel set (or appends it, if its id is unset or unseen).
func (r *Registry) UpdateChan(name string, info ChannelInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.devices[name]
	if !ok {
		logging.Error("update on unknown device", "op", "UpdateChan", "name", name)
		return &Error{Op: "UpdateChan", Name: name, Err: ErrNotPresent}
	}
	d.cache.channels.update(info)
	return nil
}

// ChannelIDExists reports whether the device has a channel with the given id.
func (r *Registry) ChannelIDExists(name string, id uint16) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.devices[name]
	if !ok {
		return false
	}
	_, exists := d.cache.channels.byID[id]
	return exists
}

// ChannelNameOf returns the channel name for the given id, if known.
func (r *Registry) ChannelNameOf(name string, id uint16) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.devices[name]
	if !ok {
		return "", false
	}
	ch, exists := d.cache.channels.byID[id]
	if !exists {
		return "", false
	}
	return ch.Name, true
}

// DeviceIPs returns the union of the IP sets held by the DBC, CMC, and ARC
// info slots, deduplicated and sorted for deterministic output.
func (r *Registry) DeviceIPs(name string) []net.IP {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.devices[name]
	if !ok {
		return nil
	}

	seen := make(map[string]net.IP)
	addAll := func(addrs []net.IP) {
		for _, ip := range addrs {
			seen[ip.String()] = ip
		}
	}
	if d.cache.dbc != nil {
		addAll(d.cache.dbc.Addrs)
	}
	if d.cache.cmc != nil {
		addAll(d.cache.cmc.Addrs)
	}
	if d.cache.arc != nil {
		addAll(d.cache.arc.Addrs)
	}

	out := make([]net.IP, 0, len(seen))
	for _, ip := range seen {
		out = append(out, ip)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// DeviceNames returns the names of every currently present device, sorted.
func (r *Registry) DeviceNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.devices))
	for name := range r.devices {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func describeLocked(name string, d *deviceRecord) DeviceDescription {
	return DeviceDescription{
		Name:          name,
		DBCConnected:  d.status.DBC,
		CMCConnected:  d.status.CMC,
		ARCConnected:  d.status.ARC,
		ChanConnected: d.status.Chan,
		DBC:           d.cache.dbc,
		CMC:           d.cache.cmc,
		ARC:           d.cache.arc,
		Channels:      d.cache.channels.sorted(),
	}
}

// Describe returns a snapshot of one device record.
func (r *Registry) Describe(name string) (DeviceDescription, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.devices[name]
	if !ok {
		return DeviceDescription{}, false
	}
	return describeLocked(name, d), true
}

// Devices returns a snapshot of every currently present device, in
// arbitrary order.
func (r *Registry) Devices() []DeviceDescription {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]DeviceDescription, 0, len(r.devices))
	for name, d := range r.devices {
		out = append(out, describeLocked(name, d))
	}
	return out
}
