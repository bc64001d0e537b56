// Copyright 2009 The XGB Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package x11

import (
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

// ExtensionInfo is what the server reported for one extension on this
// connection.
type ExtensionInfo struct {
	Name        string
	MajorOpcode byte
	FirstEvent  byte // 0 if the extension defines no events
	FirstError  byte // 0 if the extension defines no errors
}

// extensionDef is the static shape of an extension, known at compile time by
// the package implementing it.
type extensionDef struct {
	numEvents  int
	errorNames []string
}

var (
	extensionDefs   = map[string]extensionDef{}
	extensionDefsMu sync.RWMutex
)

// RegisterExtension records how many events an extension defines and the
// names of its errors, in code order. Extension packages call it from init so
// connections can bound the extension's event range and name its errors.
func RegisterExtension(name string, numEvents int, errorNames []string) {
	extensionDefsMu.Lock()
	defer extensionDefsMu.Unlock()
	extensionDefs[name] = extensionDef{numEvents: numEvents, errorNames: errorNames}
}

func lookupExtensionDef(name string) (extensionDef, bool) {
	extensionDefsMu.RLock()
	defer extensionDefsMu.RUnlock()
	def, ok := extensionDefs[name]
	return def, ok
}

// extensionRegistry caches QueryExtension results of one connection and maps
// event and error codes back to the extensions that own them.
type extensionRegistry struct {
	byName  map[string]*ExtensionInfo // nil entries record absent extensions
	byMajor map[byte]*ExtensionInfo
	events  []*ExtensionInfo // sorted by FirstEvent
	errors  []*ExtensionInfo // sorted by FirstError
}

func newExtensionRegistry() *extensionRegistry {
	return &extensionRegistry{
		byName:  make(map[string]*ExtensionInfo),
		byMajor: make(map[byte]*ExtensionInfo),
	}
}

func (t *extensionRegistry) lookup(name string) (info *ExtensionInfo, cached bool) {
	info, cached = t.byName[name]
	return
}

func (t *extensionRegistry) add(name string, info *ExtensionInfo) {
	t.byName[name] = info
	if info == nil {
		return
	}
	t.byMajor[info.MajorOpcode] = info
	if info.FirstEvent != 0 {
		t.events = append(t.events, info)
		sort.Slice(t.events, func(i, j int) bool { return t.events[i].FirstEvent < t.events[j].FirstEvent })
	}
	if info.FirstError != 0 {
		t.errors = append(t.errors, info)
		sort.Slice(t.errors, func(i, j int) bool { return t.errors[i].FirstError < t.errors[j].FirstError })
	}
}

// owner finds the extension whose range contains code: the one with the
// greatest first code not above it, limited by the extension's registered
// count when known and by the next extension's first code otherwise.
func owner(list []*ExtensionInfo, code byte, first func(*ExtensionInfo) byte, count func(extensionDef) int) (*ExtensionInfo, int, bool) {
	i := sort.Search(len(list), func(i int) bool { return first(list[i]) > code }) - 1
	if i < 0 {
		return nil, 0, false
	}
	info := list[i]
	index := int(code - first(info))
	if def, ok := lookupExtensionDef(info.Name); ok && index >= count(def) {
		return nil, 0, false
	}
	return info, index, true
}

// eventOwner attributes an event code at or above the first extension event.
func (t *extensionRegistry) eventOwner(code byte) (*ExtensionInfo, int, bool) {
	return owner(t.events, code,
		func(e *ExtensionInfo) byte { return e.FirstEvent },
		func(d extensionDef) int { return d.numEvents })
}

// errorOwner attributes an error code at or above the first extension error
// and names it.
func (t *extensionRegistry) errorOwner(code byte) (*ExtensionInfo, string, bool) {
	info, index, ok := owner(t.errors, code,
		func(e *ExtensionInfo) byte { return e.FirstError },
		func(d extensionDef) int { return len(d.errorNames) })
	if !ok {
		return nil, "", false
	}
	if def, ok := lookupExtensionDef(info.Name); ok {
		return info, info.Name + ":" + def.errorNames[index], true
	}
	return info, fmt.Sprintf("%s:Error%d", info.Name, index), true
}

// Extension returns the server's opcode assignment for the named extension,
// asking the server the first time and answering from the cache afterwards.
// A nil ExtensionInfo with a nil error means the server does not have it.
// Names are case sensitive, e.g. "RANDR" or "XInputExtension".
func (c *Conn) Extension(name string) (*ExtensionInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.extension(name)
}

func (c *Conn) extension(name string) (*ExtensionInfo, error) {
	if info, cached := c.ext.lookup(name); cached {
		return info, nil
	}
	ck, err := c.sendRequest(&QueryExtensionRequest{Name: name}, false)
	if err != nil {
		return nil, err
	}
	rep, err := c.awaitReply(ck)
	if err != nil {
		return nil, err
	}
	qe := rep.(*QueryExtensionReply)
	var info *ExtensionInfo
	if qe.Present {
		info = &ExtensionInfo{
			Name:        name,
			MajorOpcode: qe.MajorOpcode,
			FirstEvent:  qe.FirstEvent,
			FirstError:  qe.FirstError,
		}
	}
	c.ext.add(name, info)
	c.log.WithFields(logrus.Fields{
		"extension": name,
		"present":   qe.Present,
	}).Debug("extension queried")
	return info, nil
}

// majorOpcode resolves the major opcode of an extension request. The
// extension must have been resolved with Extension first.
func (c *Conn) majorOpcode(req Request) (byte, error) {
	name := req.Extension()
	if name == "" {
		return req.Opcode(), nil
	}
	info, cached := c.ext.lookup(name)
	if !cached {
		return 0, &MisuseError{Msg: fmt.Sprintf("%s sent before extension %s was queried", requestName(req), name)}
	}
	if info == nil {
		return 0, &MisuseError{Msg: fmt.Sprintf("%s sent but extension %s is not present", requestName(req), name)}
	}
	return info.MajorOpcode, nil
}
